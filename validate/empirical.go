package validate

import (
	"gonum.org/v1/gonum/stat"

	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

// Study is a published population prevalence.
type Study struct {
	Name    string
	Per100k float64
}

// Traditional is a penetrance estimate from affected families.
type Traditional struct {
	Mutation     risk.Mutation
	Male, Female float64
}

// Empirical holds the published figures models are compared with.
type Empirical struct {
	// CarrierFrequencies from gnomAD, per 100,000.
	CarrierFrequencies params.PerMutation
	Studies            []Study
	// Average prevalence and the range of the studies.
	Average       float64
	PrevalenceMin float64
	PrevalenceMax float64

	WatsonPenetrance      float64
	WatsonCI              [2]float64
	Traditional           []Traditional
	TraditionalAverage    float64
	SmokingMalePenetrance float64
	SexRatio              float64
	RecoveryRates         params.PerMutation

	OnsetAgeMean float64
	OnsetAgeSD   float64
	PeakOnset    [2]float64
}

// DefaultEmpirical returns values from gnomAD, Watson et al., Kirkman
// et al. and the regional prevalence studies.
func DefaultEmpirical() Empirical {
	return Empirical{
		CarrierFrequencies: params.PerMutation{M11778: 42.54, M14484: 65.58, M3460: 1.77},
		Studies: []Study{
			{"Madrid_2024", 0.79},
			{"Watson_Australia", 1.46},
			{"Finland", 2.0},
			{"UK_historical", 3.23},
		},
		Average:          1.87,
		PrevalenceMin:    0.79,
		PrevalenceMax:    3.23,
		WatsonPenetrance: 0.011,
		WatsonCI:         [2]float64{0.005, 0.034},
		Traditional: []Traditional{
			{risk.M11778, 0.50, 0.10},
			{risk.M14484, 0.65, 0.15},
			{risk.M3460, 0.78, 0.32},
		},
		TraditionalAverage:    0.4,
		SmokingMalePenetrance: 0.93,
		SexRatio:              params.MaleOR,
		RecoveryRates:         params.PerMutation{M11778: 0.04, M14484: 0.37, M3460: 0.20},
		OnsetAgeMean:          27.9,
		OnsetAgeSD:            14.9,
		PeakOnset:             [2]float64{15, 35},
	}
}

// TotalCarriers is the gnomAD frequency of carriers of any mutation.
func (e *Empirical) TotalCarriers() float64 {
	return e.CarrierFrequencies.Sum()
}

// Theoretical is the prevalence implied by gnomAD carriers and the
// Watson penetrance.
func (e *Empirical) Theoretical() float64 {
	return e.TotalCarriers() * e.WatsonPenetrance
}

// StudyMean is the mean prevalence of the studies.
func (e *Empirical) StudyMean() tally.Rate {
	if len(e.Studies) == 0 {
		return tally.NoData
	}
	v := make([]float64, len(e.Studies))
	for i, s := range e.Studies {
		v[i] = s.Per100k
	}
	return tally.Of(stat.Mean(v, nil))
}

// Share of cases by mutation and the traditional penetrance in percent.
var (
	caseShares           = params.PerMutation{M11778: 0.65, M14484: 0.20, M3460: 0.10}
	literaturePenetrance = params.PerMutation{M11778: 43, M14484: 65, M3460: 78}
)

// Revised is a penetrance implied by observed prevalence and gnomAD
// carrier frequency.
type Revised struct {
	Mutation         string  `json:"mutation"`
	CarrierFrequency float64 `json:"carrier_frequency_per_100k"`
	Prevalence       float64 `json:"estimated_prevalence_per_100k"`
	// Penetrance in percent, undefined without carriers.
	Penetrance tally.Rate `json:"calculated_penetrance_percent"`
	Literature float64    `json:"literature_penetrance_percent"`
	// Ratio of literature to calculated penetrance.
	Ratio tally.Rate `json:"penetrance_ratio_literature_vs_calculated"`
}

// RevisedEstimates attributes the mean study prevalence to mutations by
// their share of cases.
func RevisedEstimates(e *Empirical) []Revised {
	avg := e.StudyMean()
	rs := make([]Revised, 0, len(risk.Mutations))
	for _, m := range risk.Mutations {
		f := e.CarrierFrequencies.Get(m)
		r := Revised{
			Mutation:         m.String(),
			CarrierFrequency: f,
			Prevalence:       avg.Value * caseShares.Get(m),
			Literature:       literaturePenetrance.Get(m),
		}
		if avg.Valid && f > 0 {
			r.Penetrance = tally.Of(r.Prevalence / f * 100)
		}
		r.Ratio = tally.Of(r.Literature).Div(r.Penetrance)
		rs = append(rs, r)
	}
	return rs
}
