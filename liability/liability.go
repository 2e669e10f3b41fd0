// Package liability implements the liability threshold model of LHON
// penetrance.
//
// A carrier's liability is the base liability of the mutation plus log
// odds ratios of present risk factors. Penetrance is the probability
// that a normally distributed residual pushes liability over the
// threshold: Phi((L - T) / sigma).
package liability

import (
	"bitbucket.org/Davydov/lhon/dist"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
)

// Profile describes an individual carrier with continuous age.
type Profile struct {
	Mutation   risk.Mutation
	Sex        risk.Sex
	Haplogroup risk.Haplogroup
	Exposures  risk.Exposures
	Age        float64
}

// AgeBonus returns the age proximity term, largest at the peak onset
// age.
func AgeBonus(p *params.Set, age float64) float64 {
	return p.AgeBonus * dist.Gaussian(age, p.PeakAge, p.AgeSpread)
}

// Liability computes the liability score of a profile.
func Liability(p *params.Set, pr Profile) float64 {
	l := p.BaseLiability.Get(pr.Mutation)
	if pr.Sex == risk.Male {
		l += p.MaleEffect
	}
	if e, ok := p.HaplogroupEffect(pr.Mutation, pr.Haplogroup); ok {
		l += e
	}
	for _, e := range pr.Exposures.List() {
		l += p.ExposureEffect(e)
	}
	return l + AgeBonus(p, pr.Age)
}

// Transform converts liability to penetrance. With sigma <= 0 the
// residual vanishes and penetrance is a step at the threshold.
func Transform(l, threshold, sigma float64) float64 {
	if sigma <= 0 {
		if l >= threshold {
			return 1
		}
		return 0
	}
	return dist.NormalCDF((l - threshold) / sigma)
}

// Penetrance returns the probability of being affected and the
// liability of a profile.
func Penetrance(p *params.Set, pr Profile) (prob, liab float64) {
	liab = Liability(p, pr)
	return Transform(liab, p.Threshold, p.Sigma), liab
}

// Example is a named profile.
type Example struct {
	Name    string
	Profile Profile
}

// Examples are the reference profiles reported by the model command.
var Examples = []Example{
	{"11778G>A female", Profile{risk.M11778, risk.Female, risk.HaploOther, 0, 25}},
	{"11778G>A male", Profile{risk.M11778, risk.Male, risk.HaploOther, 0, 25}},
	{"11778G>A male J smoking_heavy", Profile{risk.M11778, risk.Male, risk.HaploJ, risk.Exposures(risk.SmokingHeavy), 25}},
	{"14484T>C male J", Profile{risk.M14484, risk.Male, risk.HaploJ, 0, 25}},
	{"14484T>C male non_J", Profile{risk.M14484, risk.Male, risk.HaploNonJ, 0, 25}},
	{"3460G>A male", Profile{risk.M3460, risk.Male, risk.HaploOther, 0, 25}},
	{"11778G>A male heteroplasmy_protective", Profile{risk.M11778, risk.Male, risk.HaploOther, risk.Exposures(risk.HeteroplasmyProtective), 25}},
}
