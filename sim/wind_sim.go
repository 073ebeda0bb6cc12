/*
Test out the drag fusion code in ekf.
Define a flight path, attitude and wind in code, and then synthesize the
matching GPS velocity and drag specific force data. Add some noise if desired.
Then see if the filter can recover the "true" wind from the noisy input data.
*/

package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"go.uber.org/zap"

	"github.com/westphae/windfusion/ekf"
	"github.com/westphae/windfusion/ekfweb"
)

const (
	velProcessNoise  = 1.0  // Unmodelled acceleration, m/s^2
	windProcessNoise = 0.05 // Wind change rate, m/s^2
	attitudeVariance = 1e-6 // Attitude is taken from truth
	minGPSNoise      = 0.1  // m/s
)

type simOptions struct {
	dt, udt    float64 // Drag and GPS update periods, s
	accelNoise float64 // m/s^2
	gpsNoise   float64 // m/s
	seed       int64
}

// observer is called after every drag fusion.
type observer func(s *ekf.State, x *Truth, d *ekf.DragSample, diag *ekf.DragDiagnostics, m *ekf.InnovationMonitor) error

type simResult struct {
	state   *ekf.State
	truth   Truth
	monitor *ekf.InnovationMonitor
}

// predict stands in for the filter's prediction step: attitude and vertical
// velocity come from truth, horizontal velocity and wind are random walks.
func predict(s *ekf.State, x *Truth, dt float64) {
	s.Q0, s.Q1, s.Q2, s.Q3 = x.Quaternion()
	s.VD = x.VD
	s.Normalize()

	for i := ekf.IdxQ0; i <= ekf.IdxQ3; i++ {
		ekf.UncorrelateSetVariance(s.P, i, attitudeVariance)
	}
	ekf.UncorrelateSetVariance(s.P, ekf.IdxVD, attitudeVariance)
	for _, i := range []int{ekf.IdxVN, ekf.IdxVE} {
		s.P.Set(i, i, s.P.Get(i, i)+velProcessNoise*velProcessNoise*dt*dt)
	}
	for _, i := range []int{ekf.IdxWN, ekf.IdxWE} {
		s.P.Set(i, i, s.P.Get(i, i)+windProcessNoise*windProcessNoise*dt*dt)
	}
	s.T = x.T
}

// run flies the situation from start to end, fusing GPS velocity every udt
// and drag every dt.
func run(sit Situation, cfg *ekf.DragConfig, opts simOptions, obs observer) (*simResult, error) {
	rnd := rand.New(rand.NewSource(opts.seed))
	res := &simResult{
		state:   ekf.NewState(),
		monitor: ekf.NewInnovationMonitor(1 - 1.0/50),
	}
	s := res.state
	x := &res.truth
	gpsVar := math.Pow(math.Max(opts.gpsNoise, minGPSNoise), 2)

	t := sit.BeginTime()
	if err := sit.Interpolate(t, x); err != nil {
		return nil, err
	}
	s.VN, s.VE = x.GPSVelocity(opts.gpsNoise, rnd)

	tNextUpdate := t + opts.udt
	n := int(math.Floor((sit.EndTime()-t)/opts.dt + 1e-9))
	for i := 1; i <= n; i++ {
		t = math.Min(sit.BeginTime()+float64(i)*opts.dt, sit.EndTime())

		// Peek behind the curtain: the "actual" state, which the filter doesn't know
		if err := sit.Interpolate(t, x); err != nil {
			return nil, fmt.Errorf("interpolation error at time %f: %w", t, err)
		}

		predict(s, x, opts.dt)

		if t > tNextUpdate-1e-9 {
			tNextUpdate += opts.udt
			vn, ve := x.GPSVelocity(opts.gpsNoise, rnd)
			s.FuseVelNE(vn, ve, gpsVar)
		}

		d := x.DragSample(cfg, opts.accelNoise, rnd)
		diag := s.FuseDrag(d, cfg)
		res.monitor.Add(&diag)

		if obs != nil {
			if err := obs(s, x, &d, &diag, res.monitor); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func main() {
	// Handle some shell arguments
	var (
		opts         simOptions
		windN, windE float64
		scenario     string
		configFile   string
		logFile      string
		web          bool
		debug        bool
		sit          Situation
		err          error
	)

	const (
		defaultDt         = 0.01
		dtUsage           = "Drag fusion period, seconds"
		defaultUdt        = 0.2
		udtUsage          = "GPS velocity fusion period, seconds"
		defaultAccelNoise = 0.0
		accelNoiseUsage   = "Amount of noise to add to accel measurements, m/s^2"
		defaultGPSNoise   = 0.0
		gpsNoiseUsage     = "Amount of noise to add to GPS speed measurements, m/s"
		defaultWindN      = 3.0
		windNUsage        = "North component of the true wind, m/s"
		defaultWindE      = -2.0
		windEUsage        = "East component of the true wind, m/s"
		defaultScenario   = "cruise"
		scenarioUsage     = "Scenario to use: filename or \"hover\", \"cruise\" or \"turn\""
		configUsage       = "Drag fusion tuning file (yaml, json, toml)"
		logUsage          = "CSV file to log the filter to"
		webUsage          = "Publish telemetry to an ekfweb server on localhost"
		seedUsage         = "Random seed for sensor noise"
	)

	flag.Float64Var(&opts.dt, "dt", defaultDt, dtUsage)
	flag.Float64Var(&opts.udt, "udt", defaultUdt, udtUsage)
	flag.Float64Var(&opts.accelNoise, "accel-noise", defaultAccelNoise, accelNoiseUsage)
	flag.Float64Var(&opts.accelNoise, "a", defaultAccelNoise, accelNoiseUsage)
	flag.Float64Var(&opts.gpsNoise, "gps-noise", defaultGPSNoise, gpsNoiseUsage)
	flag.Float64Var(&opts.gpsNoise, "n", defaultGPSNoise, gpsNoiseUsage)
	flag.Float64Var(&windN, "wind-n", defaultWindN, windNUsage)
	flag.Float64Var(&windE, "wind-e", defaultWindE, windEUsage)
	flag.StringVar(&scenario, "scenario", defaultScenario, scenarioUsage)
	flag.StringVar(&scenario, "s", defaultScenario, scenarioUsage)
	flag.StringVar(&configFile, "config", "", configUsage)
	flag.StringVar(&logFile, "log", "", logUsage)
	flag.BoolVar(&web, "web", false, webUsage)
	flag.Int64Var(&opts.seed, "seed", 1, seedUsage)
	flag.BoolVar(&debug, "debug", false, "Log at debug level")
	flag.Parse()

	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
	}
	logger, err := zc.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sim: building logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar().Named("sim")

	switch scenario {
	case "hover":
		sit = newHoverSituation(windN, windE)
	case "cruise":
		sit = newCruiseSituation(windN, windE)
	case "turn":
		sit = newTurnSituation(windN, windE)
	default:
		log.Infow("loading scenario", "file", scenario)
		sit, err = NewSituationFromFile(scenario)
		if err != nil {
			log.Fatalw("loading scenario", "error", err)
		}
	}

	if opts.dt <= 0 || opts.udt <= 0 {
		log.Fatalw("periods must be positive", "dt", opts.dt, "udt", opts.udt)
	}

	cfg, err := loadDragConfig(configFile)
	if err != nil {
		log.Fatalw("loading drag config", "error", err)
	}
	cfg.DtAvg = opts.dt

	log.Infow("simulation parameters",
		"scenario", scenario,
		"drag_hz", int(1/opts.dt),
		"gps_hz", int(1/opts.udt),
		"accel_noise", opts.accelNoise,
		"gps_noise", opts.gpsNoise,
		"bcoef_x", cfg.BCoefX,
		"bcoef_y", cfg.BCoefY,
		"drag_noise", cfg.DragNoise,
		"air_density", cfg.AirDensity,
	)

	var (
		dl     *ekf.DragLogger
		logMap = make(map[string]interface{})
		pub    *ekfweb.Publisher
	)
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			log.Fatalw("creating log", "error", err)
		}
		ekf.NewState().UpdateLogMap(&ekf.DragSample{}, &ekf.DragDiagnostics{}, logMap)
		logMap["TrueWN"], logMap["TrueWE"] = 0.0, 0.0
		if dl, err = ekf.NewDragLogger(f, logMap); err != nil {
			log.Fatalw("creating log", "error", err)
		}
		defer dl.Close()
	}
	if web {
		if pub, err = ekfweb.NewPublisher(fmt.Sprintf("localhost:%d", ekfweb.Port), log); err != nil {
			log.Fatalw("connecting to ekfweb", "error", err)
		}
		defer pub.Close()
	}

	// This is where it all happens
	log.Info("running simulation")
	obs := func(s *ekf.State, x *Truth, d *ekf.DragSample, diag *ekf.DragDiagnostics, m *ekf.InnovationMonitor) error {
		if dl != nil {
			s.UpdateLogMap(d, diag, logMap)
			logMap["TrueWN"], logMap["TrueWE"] = x.WN, x.WE
			if err := dl.Log(); err != nil {
				return fmt.Errorf("writing log: %w", err)
			}
		}
		if pub != nil {
			pub.Monitor = m
			if err := pub.Send(s, d, diag); err != nil {
				log.Warnw("publishing telemetry", "error", err)
			}
		}
		return nil
	}
	res, err := run(sit, cfg, opts, obs)
	if err != nil {
		log.Fatalw("simulation failed", "error", err)
	}

	dwn, dwe := res.state.WindUncertainty()
	log.Infow("simulation complete",
		"wn", res.state.WN, "we", res.state.WE,
		"dwn", dwn, "dwe", dwe,
		"true_wn", res.truth.WN, "true_we", res.truth.WE,
		"fused_x", res.monitor.Counts[0][ekf.Fused],
		"fused_y", res.monitor.Counts[1][ekf.Fused],
		"rejected_x", res.monitor.Counts[0][ekf.Rejected],
		"rejected_y", res.monitor.Counts[1][ekf.Rejected],
		"suspect", res.monitor.Suspect(),
	)
}
