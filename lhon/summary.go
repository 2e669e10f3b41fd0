package main

import (
	"bitbucket.org/Davydov/lhon/bnmodel"
	"bitbucket.org/Davydov/lhon/calibrate"
	"bitbucket.org/Davydov/lhon/sensitivity"
	"bitbucket.org/Davydov/lhon/tally"
	"bitbucket.org/Davydov/lhon/validate"
)

type CallSummary struct {
	// Version stores lhon version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// RunID identifies this invocation in logs and outputs.
	RunID string `json:"runId"`
	// Command is the analysis performed.
	Command string `json:"command"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Time is the computations time in seconds.
	TotalTime float64 `json:"time"`

	Network     *NetworkSummary     `json:"network,omitempty"`
	Simulation  *SimulationSummary  `json:"simulation,omitempty"`
	Sensitivity []sensitivity.Index `json:"sensitivity,omitempty"`
	Calibration *calibrate.Result   `json:"calibration,omitempty"`
	Prevalence  *PrevalenceSummary  `json:"prevalence,omitempty"`
	Validation  *validate.Report    `json:"validation,omitempty"`
}

// NetworkSummary is the Bayesian network analysis.
type NetworkSummary struct {
	Samples    int                `json:"samples"`
	Prevalence tally.Rate         `json:"prevalence"`
	Penetrance []bnmodel.Subgroup `json:"penetrance"`
}

// SimulationSummary is the Monte Carlo population analysis.
type SimulationSummary struct {
	Population       int           `json:"population"`
	Runs             int           `json:"runs"`
	Fingerprint      string        `json:"fingerprint,omitempty"`
	CarrierFrequency tally.Summary `json:"carrierFrequency"`
	Prevalence       tally.Summary `json:"prevalence"`
	Penetrance       tally.Summary `json:"penetrance"`
}

// PrevalenceSummary holds the headline figures of the prevalence
// analysis.
type PrevalenceSummary struct {
	Carriers          float64    `json:"carriers"`
	Patients          float64    `json:"patients"`
	WithinRange       bool       `json:"withinRange"`
	OverallPenetrance tally.Rate `json:"overallPenetrance"`
	PatientSexRatio   tally.Rate `json:"patientSexRatio"`
}
