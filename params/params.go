// Package params holds the literature-derived constants of the LHON
// models as a strongly typed parameter set.
//
// Odds ratios are stored as natural logarithms, frequencies per 100,000
// and proportions as fractions. A Set is treated as a value: analyses
// clone it and override single parameters by name (see Registry).
package params

import (
	"math"

	"bitbucket.org/Davydov/lhon/risk"
)

// PerMutation stores a value for each pathogenic mutation.
type PerMutation struct {
	M11778 float64 `yaml:"11778" json:"11778G>A"`
	M14484 float64 `yaml:"14484" json:"14484T>C"`
	M3460  float64 `yaml:"3460" json:"3460G>A"`
}

// Get returns the value for m, 0 for NoMutation.
func (p PerMutation) Get(m risk.Mutation) float64 {
	switch m {
	case risk.M11778:
		return p.M11778
	case risk.M14484:
		return p.M14484
	case risk.M3460:
		return p.M3460
	}
	return 0
}

// Ptr returns a pointer to the value for m, nil for NoMutation.
func (p *PerMutation) Ptr(m risk.Mutation) *float64 {
	switch m {
	case risk.M11778:
		return &p.M11778
	case risk.M14484:
		return &p.M14484
	case risk.M3460:
		return &p.M3460
	}
	return nil
}

// Sum returns the total over mutations.
func (p PerMutation) Sum() float64 {
	return p.M11778 + p.M14484 + p.M3460
}

// HaplogroupEffect is a log odds ratio applying to a specific
// mutation/haplogroup pair.
type HaplogroupEffect struct {
	Mutation   risk.Mutation
	Haplogroup risk.Haplogroup
	LogOR      float64
}

// Set is a complete parameter set of the liability threshold model and
// of the population it is applied to.
type Set struct {
	// Name of the preset this set was derived from.
	Name string

	// Threshold model.
	Threshold     float64
	Sigma         float64
	BaseLiability PerMutation

	// Log odds ratios.
	MaleEffect         float64
	SmokingHeavyEffect float64
	SmokingLightEffect float64
	AlcoholHeavyEffect float64
	AlcoholLightEffect float64
	HeteroplasmyEffect float64
	// HaplogroupJ14484Effect is used by categorical scenarios.
	HaplogroupJ14484Effect float64
	// HaplogroupEffects are used by individual profiles.
	HaplogroupEffects []HaplogroupEffect

	// AgePeakEffect is added for the Peak age band.
	AgePeakEffect float64
	// Continuous age bonus: AgeBonus*exp(-(age-PeakAge)^2/(2*AgeSpread^2)).
	PeakAge   float64
	AgeSpread float64
	AgeBonus  float64

	// Population structure.
	CarrierFrequency       PerMutation // per 100,000
	MaleProportion         float64
	SmokingHeavyProportion float64
	SmokingLightProportion float64
	AlcoholHeavyProportion float64
	HaplogroupJProportion  float64
	AgePeakProportion      float64

	// Probability of visual recovery of affected carriers.
	RecoveryRate PerMutation

	// Individual draws of the population simulator.
	SmokingRate          float64
	HeavySmokingRate     float64 // among smokers
	AlcoholRate          float64
	HeavyAlcoholRate     float64 // among drinkers
	OnsetAgeMean         float64
	OnsetAgeSD           float64
	MinAge               float64
	MaxAge               float64
	HaplogroupJ11778Rate float64
	HaplogroupJ14484Rate float64
}

// Odds ratios reported in the literature.
const (
	MaleOR                   = 7.11
	SmokingHeavyOR           = 3.16
	SmokingLightOR           = 1.54
	AlcoholHeavyOR           = 3.27
	AlcoholLightOR           = 1.01
	HeteroplasmyProtectiveOR = 0.37
)

// Literature returns parameters of the mathematical models taken
// directly from published odds ratios.
func Literature() *Set {
	return &Set{
		Name:      "literature",
		Threshold: 2.0,
		Sigma:     1.0,
		BaseLiability: PerMutation{
			M11778: 0.5,
			M14484: 0.2,
			M3460:  1.8,
		},

		MaleEffect:             math.Log(MaleOR),
		SmokingHeavyEffect:     math.Log(SmokingHeavyOR),
		SmokingLightEffect:     math.Log(SmokingLightOR),
		AlcoholHeavyEffect:     math.Log(AlcoholHeavyOR),
		AlcoholLightEffect:     math.Log(AlcoholLightOR),
		HeteroplasmyEffect:     math.Log(HeteroplasmyProtectiveOR),
		HaplogroupJ14484Effect: math.Log(2.0),
		HaplogroupEffects: []HaplogroupEffect{
			{risk.M11778, risk.HaploJ, math.Log(1.31)},
			{risk.M11778, risk.HaploH, math.Log(0.79)},
			{risk.M14484, risk.HaploJ, math.Log(27.0)},
			{risk.M14484, risk.HaploNonJ, math.Log(0.037)},
			{risk.M3460, risk.HaploK, math.Log(2.0)},
		},

		AgePeakEffect: 0.5,
		PeakAge:       25,
		AgeSpread:     10,
		AgeBonus:      0.2,

		CarrierFrequency: PerMutation{
			M11778: 42.54,
			M14484: 65.58,
			M3460:  1.77,
		},
		MaleProportion:         0.5,
		SmokingHeavyProportion: 0.25,
		SmokingLightProportion: 0.35,
		AlcoholHeavyProportion: 0.2,
		HaplogroupJProportion:  0.08,
		AgePeakProportion:      0.4,

		RecoveryRate: PerMutation{
			M11778: 0.04,
			M14484: 0.37,
			M3460:  0.20,
		},

		SmokingRate:          0.6,
		HeavySmokingRate:     0.3,
		AlcoholRate:          0.9,
		HeavyAlcoholRate:     0.2,
		OnsetAgeMean:         25,
		OnsetAgeSD:           10,
		MinAge:               15,
		MaxAge:               80,
		HaplogroupJ11778Rate: 0.15,
		HaplogroupJ14484Rate: 0.08,
	}
}

// Sensitivity returns the base case of the sensitivity analysis.
func Sensitivity() *Set {
	s := Literature()
	s.Name = "sensitivity"
	s.BaseLiability.M14484 = -0.5
	return s
}

// Calibrated returns parameters calibrated against real prevalence
// figures. This is the default set.
func Calibrated() *Set {
	s := Literature()
	s.Name = "calibrated"
	s.Threshold = 5.0
	s.Sigma = 1.33
	s.BaseLiability = PerMutation{
		M11778: 0.2,
		M14484: -1.2,
		M3460:  1.5,
	}
	s.HaplogroupJ14484Effect = math.Log(1.8)
	s.AgePeakEffect = 0.3
	return s
}

// Default returns the calibrated parameter set.
func Default() *Set {
	return Calibrated()
}

// Presets maps preset names to constructors.
var Presets = map[string]func() *Set{
	"literature":  Literature,
	"sensitivity": Sensitivity,
	"calibrated":  Calibrated,
}

// Clone returns a deep copy.
func (s *Set) Clone() *Set {
	c := *s
	c.HaplogroupEffects = append([]HaplogroupEffect(nil), s.HaplogroupEffects...)
	return &c
}

// HaplogroupEffect returns the log odds ratio for a mutation/haplogroup
// pair and whether it is defined.
func (s *Set) HaplogroupEffect(m risk.Mutation, h risk.Haplogroup) (float64, bool) {
	for _, e := range s.HaplogroupEffects {
		if e.Mutation == m && e.Haplogroup == h {
			return e.LogOR, true
		}
	}
	return 0, false
}

// ExposureEffect returns the log odds ratio of an environmental factor.
func (s *Set) ExposureEffect(e risk.Exposure) float64 {
	switch e {
	case risk.SmokingHeavy:
		return s.SmokingHeavyEffect
	case risk.SmokingLight:
		return s.SmokingLightEffect
	case risk.AlcoholHeavy:
		return s.AlcoholHeavyEffect
	case risk.AlcoholLight:
		return s.AlcoholLightEffect
	case risk.HeteroplasmyProtective:
		return s.HeteroplasmyEffect
	}
	return 0
}

// TotalCarrierFrequency is the frequency of carriers of any mutation
// per 100,000.
func (s *Set) TotalCarrierFrequency() float64 {
	return s.CarrierFrequency.Sum()
}
