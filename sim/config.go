package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/westphae/windfusion/ekf"
)

// loadDragConfig reads drag fusion tuning from a config file (any format
// viper understands) and WINDFUSION_* environment variables, on top of the
// defaults. An empty path uses only defaults and environment.
// gain_states is a list of state names such as [WN, WE], or "WN,WE" from
// the environment.
func loadDragConfig(path string) (*ekf.DragConfig, error) {
	cfg := ekf.DefaultDragConfig()

	v := viper.New()
	v.SetDefault("bcoef_x", cfg.BCoefX)
	v.SetDefault("bcoef_y", cfg.BCoefY)
	v.SetDefault("drag_noise", cfg.DragNoise)
	v.SetDefault("air_density", cfg.AirDensity)
	v.SetDefault("dt_avg", cfg.DtAvg)
	v.SetDefault("gain_states", []string{"WN", "WE"})

	v.SetEnvPrefix("windfusion")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.BCoefX = v.GetFloat64("bcoef_x")
	cfg.BCoefY = v.GetFloat64("bcoef_y")
	cfg.DragNoise = v.GetFloat64("drag_noise")
	cfg.AirDensity = v.GetFloat64("air_density")
	cfg.DtAvg = v.GetFloat64("dt_avg")

	cfg.GainStates = cfg.GainStates[:0]
	// From the environment the list arrives as one string, e.g. "WN,WE"
	for _, item := range v.GetStringSlice("gain_states") {
		for _, name := range strings.Split(item, ",") {
			name = strings.ToUpper(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			i := ekf.StateIndex(name)
			if i < 0 {
				return nil, fmt.Errorf("gain_states: unknown state %q", name)
			}
			cfg.GainStates = append(cfg.GainStates, i)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid drag config: %w", err)
	}
	return cfg, nil
}
