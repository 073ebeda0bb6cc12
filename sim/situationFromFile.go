package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// scenarioColumns are the columns a scenario file must provide, in any order.
var scenarioColumns = []string{"t", "vn", "ve", "vd", "roll", "pitch", "yaw", "wn", "we"}

// NewSituationFromFile loads a truth timeline from a CSV file with a header
// row naming the columns t,vn,ve,vd,roll,pitch,yaw,wn,we (s, m/s, rad).
func NewSituationFromFile(fn string) (*SituationSim, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewSituationFromCSV(bufio.NewReader(f))
}

// NewSituationFromCSV reads a truth timeline in the scenario file format.
// Rows must be in strictly increasing time order.
func NewSituationFromCSV(rd io.Reader) (*SituationSim, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true

	// Read header line
	rec, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	fields := make(map[string]int)
	for i, k := range rec {
		fields[k] = i
	}
	for _, k := range scenarioColumns {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("scenario file is missing column %q", k)
		}
	}

	sit := new(SituationSim)
	cols := map[string]*[]float64{
		"t": &sit.t, "vn": &sit.vn, "ve": &sit.ve, "vd": &sit.vd,
		"roll": &sit.phi, "pitch": &sit.theta, "yaw": &sit.psi,
		"wn": &sit.wn, "we": &sit.we,
	}

	// Read the rest of the data into the situation
	for line := 2; ; line++ {
		rec, err = r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		for k, a := range cols {
			v, err := strconv.ParseFloat(rec[fields[k]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, k, err)
			}
			*a = append(*a, v)
		}
		if n := len(sit.t); n > 1 && sit.t[n-1] <= sit.t[n-2] {
			return nil, fmt.Errorf("line %d: time %f does not increase", line, sit.t[n-1])
		}
	}

	if len(sit.t) < 2 {
		return nil, errors.New("scenario file needs at least two rows")
	}
	return sit, nil
}
