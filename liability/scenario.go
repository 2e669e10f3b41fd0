package liability

import (
	"math"

	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

// Scenario is a categorical risk profile. Only heavy alcohol use and
// haplogroup J on 14484T>C modify liability; the Peak age band adds
// AgePeakEffect.
type Scenario struct {
	Mutation   risk.Mutation
	Sex        risk.Sex
	Smoking    risk.Level
	Alcohol    risk.Level
	Haplogroup risk.Haplogroup
	Age        risk.AgeBand
}

// Reference returns a male non-smoking, non-drinking carrier of m on
// haplogroup Other at peak onset age.
func Reference(m risk.Mutation) Scenario {
	return Scenario{
		Mutation:   m,
		Sex:        risk.Male,
		Smoking:    risk.None,
		Alcohol:    risk.None,
		Haplogroup: risk.HaploOther,
		Age:        risk.Peak,
	}
}

// ScenarioLiability computes the liability of a categorical scenario.
func ScenarioLiability(p *params.Set, s Scenario) float64 {
	l := p.BaseLiability.Get(s.Mutation)
	if s.Sex == risk.Male {
		l += p.MaleEffect
	}
	switch s.Smoking {
	case risk.Heavy:
		l += p.SmokingHeavyEffect
	case risk.Light:
		l += p.SmokingLightEffect
	}
	if s.Alcohol == risk.Heavy {
		l += p.AlcoholHeavyEffect
	}
	if s.Haplogroup == risk.HaploJ && s.Mutation == risk.M14484 {
		l += p.HaplogroupJ14484Effect
	}
	if s.Age == risk.Peak {
		l += p.AgePeakEffect
	}
	return l
}

// ScenarioPenetrance returns the penetrance of a categorical scenario.
func ScenarioPenetrance(p *params.Set, s Scenario) float64 {
	return Transform(ScenarioLiability(p, s), p.Threshold, p.Sigma)
}

// Subgroup is a scenario with its share among carriers of one mutation.
type Subgroup struct {
	Scenario
	Weight float64
}

var (
	subgroupSmoking    = []risk.Level{risk.None, risk.Light, risk.Heavy}
	subgroupAlcohol    = []risk.Level{risk.None, risk.Heavy}
	subgroupHaplogroup = []risk.Haplogroup{risk.HaploOther, risk.HaploJ}
	subgroupAge        = []risk.AgeBand{risk.Young, risk.Peak, risk.Middle}
)

func share(p, q float64) float64 {
	return math.Max(p*q, 0)
}

// Subgroups enumerates sex, smoking, heavy alcohol use, haplogroup J
// and age band of carriers of m with population proportions from p.
// The non-peak share is split evenly between Young and Middle. Negative
// shares from inconsistent proportions are taken as zero.
func Subgroups(p *params.Set, m risk.Mutation) []Subgroup {
	sg := make([]Subgroup, 0, 72)
	for _, sex := range risk.Sexes {
		ws := p.MaleProportion
		if sex == risk.Female {
			ws = 1 - p.MaleProportion
		}
		for _, smk := range subgroupSmoking {
			wsm := share(ws, smokingShare(p, smk))
			for _, alc := range subgroupAlcohol {
				wal := share(wsm, levelShare(p.AlcoholHeavyProportion, alc == risk.Heavy))
				for _, h := range subgroupHaplogroup {
					wh := share(wal, levelShare(p.HaplogroupJProportion, h == risk.HaploJ))
					for _, a := range subgroupAge {
						wa := (1 - p.AgePeakProportion) / 2
						if a == risk.Peak {
							wa = p.AgePeakProportion
						}
						sg = append(sg, Subgroup{
							Scenario: Scenario{m, sex, smk, alc, h, a},
							Weight:   share(wh, wa),
						})
					}
				}
			}
		}
	}
	return sg
}

func smokingShare(p *params.Set, l risk.Level) float64 {
	switch l {
	case risk.Heavy:
		return p.SmokingHeavyProportion
	case risk.Light:
		return p.SmokingLightProportion
	}
	return 1 - p.SmokingHeavyProportion - p.SmokingLightProportion
}

func levelShare(p float64, present bool) float64 {
	if present {
		return p
	}
	return 1 - p
}

// average returns the weighted mean penetrance of the subgroups
// selected by keep, or 0 if they carry no weight.
func average(p *params.Set, sg []Subgroup, keep func(Scenario) bool) float64 {
	var sum, weight float64
	for _, s := range sg {
		if keep != nil && !keep(s.Scenario) {
			continue
		}
		sum += s.Weight * ScenarioPenetrance(p, s.Scenario)
		weight += s.Weight
	}
	if weight <= 0 {
		return 0
	}
	return sum / weight
}

// MutationPenetrance is the population weighted average penetrance of
// carriers of m.
func MutationPenetrance(p *params.Set, m risk.Mutation) float64 {
	return average(p, Subgroups(p, m), nil)
}

// SexPenetrance is the average penetrance of carriers of m of a given
// sex.
func SexPenetrance(p *params.Set, m risk.Mutation, sex risk.Sex) float64 {
	return average(p, Subgroups(p, m), func(s Scenario) bool { return s.Sex == sex })
}

// PopulationPrevalence returns expected affected individuals per
// 100,000.
func PopulationPrevalence(p *params.Set) float64 {
	var prev float64
	for _, m := range risk.Mutations {
		prev += p.CarrierFrequency.Get(m) * MutationPenetrance(p, m)
	}
	return prev
}

// OverallPenetrance is the carrier frequency weighted penetrance over
// all mutations. Without carriers it is undefined.
func OverallPenetrance(p *params.Set) tally.Rate {
	return tally.Ratio(PopulationPrevalence(p), p.TotalCarrierFrequency())
}
