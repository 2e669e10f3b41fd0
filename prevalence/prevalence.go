// Package prevalence turns carrier frequencies and modelled penetrance
// into expected numbers of carriers and patients in the population.
package prevalence

import (
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

var log = logging.MustGetLogger("prevalence")

// Targets are published figures the model is compared with.
type Targets struct {
	// Prevalence range and average per 100,000.
	Min, Max, Average float64
	// Overall penetrance (Watson et al.).
	Penetrance float64
	// Male to female patient ratio.
	SexRatio float64
}

// DefaultTargets returns the literature values.
func DefaultTargets() Targets {
	return Targets{Min: 0.79, Max: 3.23, Average: 1.87, Penetrance: 0.011, SexRatio: params.MaleOR}
}

// oneIn returns how many people there are per case, undefined without
// cases.
func oneIn(per100k float64) tally.Rate {
	if per100k <= 0 {
		return tally.NoData
	}
	return tally.Ratio(tally.PerHundredThousand, per100k)
}

// Carrier is the frequency of carriers of one mutation.
type Carrier struct {
	Mutation string     `json:"mutation"`
	Per100k  float64    `json:"frequency_per_100k"`
	OneIn    tally.Rate `json:"one_in_x"`
	Percent  float64    `json:"percentage"`
}

func carrier(name string, f float64) Carrier {
	return Carrier{Mutation: name, Per100k: f, OneIn: oneIn(f), Percent: f / 1000}
}

// Patient is the expected number of affected carriers of one mutation.
type Patient struct {
	Mutation         string  `json:"mutation"`
	CarrierFrequency float64 `json:"carrier_frequency_per_100k"`
	// Penetrance is the population average in percent.
	Penetrance float64    `json:"average_penetrance"`
	Per100k    float64    `json:"patient_prevalence_per_100k"`
	OneIn      tally.Rate `json:"one_in_x_patients"`
}

// Named is a labelled categorical scenario.
type Named struct {
	Name string
	liability.Scenario
}

func peak(m risk.Mutation, sex risk.Sex, smoking, alcohol risk.Level, h risk.Haplogroup) liability.Scenario {
	return liability.Scenario{
		Mutation:   m,
		Sex:        sex,
		Smoking:    smoking,
		Alcohol:    alcohol,
		Haplogroup: h,
		Age:        risk.Peak,
	}
}

// Scenarios are the subgroups reported by Analyze, all at peak onset
// age.
var Scenarios = []Named{
	{"Male non-smoker", peak(risk.M11778, risk.Male, risk.None, risk.None, risk.HaploOther)},
	{"Female non-smoker", peak(risk.M11778, risk.Female, risk.None, risk.None, risk.HaploOther)},
	{"Male heavy smoker", peak(risk.M11778, risk.Male, risk.Heavy, risk.None, risk.HaploOther)},
	{"Male heavy smoker + alcohol", peak(risk.M11778, risk.Male, risk.Heavy, risk.Heavy, risk.HaploOther)},
	{"Male J haplotype", peak(risk.M14484, risk.Male, risk.None, risk.None, risk.HaploJ)},
	{"Male non-J haplotype", peak(risk.M14484, risk.Male, risk.None, risk.None, risk.HaploOther)},
	{"Female J haplotype", peak(risk.M14484, risk.Female, risk.None, risk.None, risk.HaploJ)},
	{"Male 3460G>A", peak(risk.M3460, risk.Male, risk.None, risk.None, risk.HaploOther)},
	{"Female 3460G>A", peak(risk.M3460, risk.Female, risk.None, risk.None, risk.HaploOther)},
}

// SubgroupPenetrance is the penetrance of a named scenario.
type SubgroupPenetrance struct {
	Named
	Penetrance float64
}

// Sex summarizes carriers and patients of one sex, assuming every
// carrier had that sex.
type Sex struct {
	Sex          string     `json:"sex"`
	Carriers     float64    `json:"carrier_frequency_per_100k"`
	Patients     float64    `json:"patient_frequency_per_100k"`
	Penetrance   tally.Rate `json:"overall_penetrance_percent"`
	CarrierOneIn tally.Rate `json:"carrier_one_in_x"`
	PatientOneIn tally.Rate `json:"patient_one_in_x"`
}

// Analysis is the expected burden of disease under one parameter set.
type Analysis struct {
	Targets Targets

	Carriers      []Carrier
	TotalCarriers Carrier

	Patients       []Patient
	TotalPatients  float64
	PatientsOneIn  tally.Rate
	WithinRange    bool
	RatioToAverage tally.Rate

	Subgroups         []SubgroupPenetrance
	OverallPenetrance tally.Rate
	// Overall penetrance relative to Targets.Penetrance.
	PenetranceRatio tally.Rate

	Sexes []Sex
	// Male to female ratios of patients and of penetrance and the
	// patient ratio relative to Targets.SexRatio.
	PatientSexRatio    tally.Rate
	PenetranceSexRatio tally.Rate
	SexRatioComparison tally.Rate
}

// Analyze computes all tables for p.
func Analyze(p *params.Set, t Targets) *Analysis {
	a := &Analysis{Targets: t}

	total := 0.
	for _, m := range risk.Mutations {
		f := p.CarrierFrequency.Get(m)
		a.Carriers = append(a.Carriers, carrier(m.String(), f))
		total += f

		pen := liability.MutationPenetrance(p, m)
		a.Patients = append(a.Patients, Patient{
			Mutation:         m.String(),
			CarrierFrequency: f,
			Penetrance:       100 * pen,
			Per100k:          f * pen,
			OneIn:            oneIn(f * pen),
		})
		a.TotalPatients += f * pen
	}
	a.TotalCarriers = carrier("Total", total)
	a.PatientsOneIn = oneIn(a.TotalPatients)
	a.WithinRange = t.Min <= a.TotalPatients && a.TotalPatients <= t.Max
	a.RatioToAverage = tally.Ratio(a.TotalPatients, t.Average)

	for _, s := range Scenarios {
		a.Subgroups = append(a.Subgroups, SubgroupPenetrance{s, liability.ScenarioPenetrance(p, s.Scenario)})
	}
	a.OverallPenetrance = tally.Ratio(a.TotalPatients, total)
	a.PenetranceRatio = a.OverallPenetrance.Div(tally.Of(t.Penetrance))

	for _, sex := range risk.Sexes {
		s := Sex{Sex: sex.String(), Carriers: total}
		for _, m := range risk.Mutations {
			s.Patients += p.CarrierFrequency.Get(m) * liability.SexPenetrance(p, m, sex)
		}
		s.Penetrance = tally.Ratio(s.Patients, total).Scale(100)
		s.CarrierOneIn = oneIn(total)
		s.PatientOneIn = oneIn(s.Patients)
		a.Sexes = append(a.Sexes, s)
	}
	male, female := a.Sexes[0], a.Sexes[1]
	a.PatientSexRatio = tally.Ratio(male.Patients, female.Patients)
	a.PenetranceSexRatio = male.Penetrance.Div(female.Penetrance)
	a.SexRatioComparison = a.PatientSexRatio.Div(tally.Of(t.SexRatio))

	log.Infof("Expected patients: %.3f per 100,000 (%v of carriers)", a.TotalPatients, a.OverallPenetrance)
	if !a.WithinRange {
		log.Warningf("Expected prevalence %.3f outside of the published range %v-%v", a.TotalPatients, t.Min, t.Max)
	}
	return a
}
