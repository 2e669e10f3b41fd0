package bnmodel

import (
	"math"

	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
)

// impairment is the probability of impaired mitochondrial function
// per mutation before modifiers.
var impairment = map[string]float64{
	risk.M11778.String(): 0.7,
	risk.M14484.String(): 0.5,
	risk.M3460.String():  0.9,
}

// MitoFunction returns P(Normal, Mild_Impair, Severe_Impair) given
// mutation, haplogroup and nuclear variant labels.
func MitoFunction(mutation, haplogroup, nuclear string) []float64 {
	if mutation == risk.NoMutation.String() {
		if nuclear == "None" {
			return []float64{0.95, 0.04, 0.01}
		}
		return []float64{0.1, 0.4, 0.5}
	}
	b := impairment[mutation]
	j := haplogroup == risk.HaploJ.String()
	switch {
	case mutation == risk.M14484.String() && j:
		b *= 1.5
	case mutation == risk.M11778.String() && j:
		b *= 1.1
	case haplogroup == risk.HaploH.String() || haplogroup == risk.HaploU.String():
		b *= 0.9
	}
	if nuclear != "None" {
		b *= 1.3
	}
	b = math.Min(b, 0.95)
	return []float64{1 - b, 0.4 * b, 0.6 * b}
}

var (
	smokingScore = map[string]float64{"None": 0, "Light": 1, "Heavy": 3}
	alcoholScore = map[string]float64{"None": 0, "Light": 0.5, "Heavy": 2}
	stressScore  = map[string]float64{Low: 0, Moderate: 1, High: 2}
)

// OxidativeStressScore combines exposure levels into a severity index.
func OxidativeStressScore(smoking, alcohol, environment string) float64 {
	return smokingScore[smoking] + alcoholScore[alcohol] + stressScore[environment]
}

// OxidativeStressCPT returns P(Low, Moderate, High).
func OxidativeStressCPT(smoking, alcohol, environment string) []float64 {
	switch score := OxidativeStressScore(smoking, alcohol, environment); {
	case score <= 1:
		return []float64{0.8, 0.15, 0.05}
	case score <= 3:
		return []float64{0.3, 0.5, 0.2}
	}
	return []float64{0.1, 0.3, 0.6}
}

var (
	mitoScore     = map[string]float64{Normal: 0, MildImpair: 2, SevereImpair: 4}
	oxidScore     = map[string]float64{Low: 0, Moderate: 1, High: 2}
	sexScore      = map[string]float64{"Male": 1, "Female": 0}
	ageBandScores = map[string]float64{"Young": 0.5, "Peak": 1.0, "Middle": 0.5, "Late": 0.2}
)

// LiabilityScore combines mitochondrial function, oxidative stress, sex
// and age into a severity index.
func LiabilityScore(mito, oxidative, sex, age string) float64 {
	return mitoScore[mito] + oxidScore[oxidative] + sexScore[sex] + ageBandScores[age]
}

// LiabilityCPT returns P(Very_Low, Low, Moderate, High, Very_High).
func LiabilityCPT(mito, oxidative, sex, age string) []float64 {
	switch score := LiabilityScore(mito, oxidative, sex, age); {
	case score <= 1:
		return []float64{0.7, 0.25, 0.04, 0.01, 0.0}
	case score <= 2:
		return []float64{0.4, 0.4, 0.15, 0.04, 0.01}
	case score <= 4:
		return []float64{0.1, 0.3, 0.4, 0.15, 0.05}
	case score <= 6:
		return []float64{0.02, 0.08, 0.3, 0.4, 0.2}
	}
	return []float64{0.0, 0.02, 0.08, 0.3, 0.6}
}

var affectedGivenLiability = map[string]float64{
	"Very_Low":  0.001,
	"Low":       0.02,
	"Moderate":  0.10,
	"High":      0.50,
	"Very_High": 0.95,
}

// PhenotypeCPT returns P(Unaffected, Affected).
func PhenotypeCPT(liability string) []float64 {
	a := affectedGivenLiability[liability]
	return []float64{1 - a, a}
}

var recoveryAgeMultiplier = map[string]float64{"Young": 2.0, "Peak": 1.0, "Middle": 0.5, "Late": 0.2}

// maxRecovery caps the total recovery probability.
const maxRecovery = 0.8

// RecoveryCPT returns P(No_Recovery, Partial, Complete).
// Unaffected individuals never recover; 30% of recoveries are complete.
func RecoveryCPT(rates params.PerMutation, phenotype, age, mutation string) []float64 {
	if phenotype == Unaffected {
		return []float64{1, 0, 0}
	}
	m, err := risk.ParseMutation(mutation)
	if err != nil {
		m = risk.NoMutation
	}
	total := math.Min(rates.Get(m)*recoveryAgeMultiplier[age], maxRecovery)
	return []float64{1 - total, 0.7 * total, 0.3 * total}
}
