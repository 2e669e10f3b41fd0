package main

import (
	"io"

	"bitbucket.org/Davydov/lhon/calibrate"
	"bitbucket.org/Davydov/lhon/checkpoint"
	"bitbucket.org/Davydov/lhon/params"
)

// Presets used by the analyses unless -preset is given.
const (
	literaturePreset  = "literature"
	sensitivityPreset = "sensitivity"
	calibratedPreset  = "calibrated"
)

// analysisSettings stores the settings of all analyses.
type analysisSettings struct {
	seed    uint64
	threads int

	outDir      string
	xlsx        string
	paramsF     string
	preset      string
	checkpointF string
	restart     bool

	samples     int
	draws       int
	population  int
	runs        int
	individuals bool
	points      int
	trials      int

	method        string
	delta         float64
	iterations    int
	report        int
	trajF         string
	checkpointSec float64
}

// newAnalysisSettings creates a new analysisSettings from
// the command line parameters (global variables).
func newAnalysisSettings(seed int64, threads int) *analysisSettings {
	return &analysisSettings{
		seed:    uint64(seed),
		threads: threads,

		outDir:      *outDir,
		xlsx:        *xlsxF,
		paramsF:     *paramsF,
		preset:      *preset,
		checkpointF: *checkpointF,
		restart:     *restart,

		samples:     *samples,
		draws:       *draws,
		population:  *population,
		runs:        *runs,
		individuals: *individuals,
		points:      *points,
		trials:      *trials,

		method:        *method,
		delta:         *delta,
		iterations:    *iterations,
		report:        *reportPeriod,
		trajF:         *outF,
		checkpointSec: *checkpointSec,
	}
}

// parameters returns the parameter set of an analysis: the preset
// given on the command line or def, with overrides from the parameter
// file. Ranges are nil unless the file defines them.
func (s *analysisSettings) parameters(def string) (*params.Set, []params.Range, error) {
	name := def
	if s.preset != "" {
		name = s.preset
	}
	base, err := params.Preset(name)
	if err != nil {
		return nil, nil, err
	}
	p, ranges, err := params.Load(s.paramsF, base)
	if err != nil {
		return nil, nil, err
	}
	log.Debugf("Parameters (%s): %v", p.Name, p.Values())
	return p, ranges, nil
}

// calibration creates calibration settings.
func (s *analysisSettings) calibration(cp *checkpoint.Calibration, traj io.Writer) calibrate.Settings {
	return calibrate.Settings{
		Method:       s.method,
		Iterations:   s.iterations,
		ReportPeriod: s.report,
		Delta:        s.delta,
		Trajectory:   traj,
		Checkpoint:   cp,
		WatchSignals: true,
	}
}
