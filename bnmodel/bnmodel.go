// Package bnmodel defines the LHON Bayesian network: genetic,
// demographic and environmental risk factors feeding mitochondrial
// function, oxidative stress, liability, phenotype and recovery.
//
// Every non-root table is keyed by the full tuple of declared parents
// and covers all parent combinations. Smoking and Alcohol carry
// documented defaults for the unexpected case of a missing entry.
package bnmodel

import (
	"math"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/lhon/network"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
)

var log = logging.MustGetLogger("bnmodel")

// Node names.
const (
	Population            = "Population"
	Mutation              = "mtDNA_Mutation"
	Haplogroup            = "Haplogroup"
	Sex                   = "Sex"
	Age                   = "Age"
	Smoking               = "Smoking"
	Alcohol               = "Alcohol"
	NuclearVariants       = "Nuclear_Variants"
	EnvironmentalStress   = "Environmental_Stress"
	MitochondrialFunction = "Mitochondrial_Function"
	OxidativeStress       = "Oxidative_Stress"
	Liability             = "Liability"
	Phenotype             = "LHON_Phenotype"
	Recovery              = "Recovery"
)

// State labels not covered by package risk.
const (
	General = "General"

	Unaffected = "Unaffected"
	Affected   = "Affected"

	NoRecovery       = "No_Recovery"
	PartialRecovery  = "Partial"
	CompleteRecovery = "Complete"

	Normal       = "Normal"
	MildImpair   = "Mild_Impair"
	SevereImpair = "Severe_Impair"

	Low      = "Low"
	Moderate = "Moderate"
	High     = "High"

	DNAJC30 = "DNAJC30"
	OtherCI = "Other_CI"
)

var (
	mutationStates   = labels(risk.NoMutation, risk.M11778, risk.M14484, risk.M3460)
	haplogroupStates = labels(risk.HaploH, risk.HaploJ, risk.HaploK, risk.HaploT, risk.HaploU, risk.HaploOther)
	sexStates        = labels(risk.Male, risk.Female)
	ageStates        = labels(risk.Young, risk.Peak, risk.Middle, risk.Late)
	levelStates      = labels(risk.None, risk.Light, risk.Heavy)
	nuclearStates    = []string{"None", DNAJC30, OtherCI}
	stressStates     = []string{Low, Moderate, High}
	mitoStates       = []string{Normal, MildImpair, SevereImpair}
	liabilityStates  = []string{"Very_Low", "Low", "Moderate", "High", "Very_High"}
	phenotypeStates  = []string{Unaffected, Affected}
	recoveryStates   = []string{NoRecovery, PartialRecovery, CompleteRecovery}
)

func labels[T interface{ String() string }](vs ...T) []string {
	l := make([]string, len(vs))
	for i, v := range vs {
		l[i] = v.String()
	}
	return l
}

// Probability vectors of the root and single-parent nodes.
var (
	haplogroupPrior = []float64{0.45, 0.08, 0.06, 0.09, 0.18, 0.14}
	sexPrior        = []float64{0.5, 0.5}
	agePrior        = []float64{0.4, 0.4, 0.15, 0.05}

	smokingMale   = []float64{0.35, 0.35, 0.30}
	smokingFemale = []float64{0.45, 0.35, 0.20}
	alcoholMale   = []float64{0.05, 0.70, 0.25}
	alcoholFemale = []float64{0.10, 0.75, 0.15}

	// defaults for a missing parent combination
	smokingDefault = []float64{0.4, 0.35, 0.25}
	alcoholDefault = []float64{0.075, 0.725, 0.2}

	nuclearPrior = []float64{0.995, 0.003, 0.002}
	stressPrior  = []float64{0.6, 0.3, 0.1}
)

// mutationPrior derives mutation probabilities from carrier frequencies
// per 100,000.
func mutationPrior(p *params.Set) []float64 {
	f := p.CarrierFrequency
	carriers := []float64{f.M11778, f.M14484, f.M3460}
	none := 1.0
	for i := range carriers {
		carriers[i] /= 100000
		none -= carriers[i]
	}
	return append([]float64{math.Max(none, 0)}, carriers...)
}

// New builds the LHON network. Carrier frequencies and recovery rates
// are taken from p.
func New(p *params.Set) (*network.Network, error) {
	recovery := p.RecoveryRate
	return network.NewBuilder().
		Root(Population, []string{General}, []float64{1}).
		Node(Mutation, mutationStates, Population).
		Rule(Mutation, func([]string) []float64 { return mutationPrior(p) }).
		Node(Haplogroup, haplogroupStates, Population).
		Rule(Haplogroup, constant(haplogroupPrior)).
		Node(Sex, sexStates, Population).
		Rule(Sex, constant(sexPrior)).
		Node(Age, ageStates, Population).
		Rule(Age, constant(agePrior)).
		Node(Smoking, levelStates, Population, Sex).
		Rule(Smoking, bySex(smokingMale, smokingFemale)).
		Fallback(Smoking, smokingDefault).
		Node(Alcohol, levelStates, Population, Sex).
		Rule(Alcohol, bySex(alcoholMale, alcoholFemale)).
		Fallback(Alcohol, alcoholDefault).
		Node(NuclearVariants, nuclearStates, Population).
		Rule(NuclearVariants, constant(nuclearPrior)).
		Node(EnvironmentalStress, stressStates, Population).
		Rule(EnvironmentalStress, constant(stressPrior)).
		Node(MitochondrialFunction, mitoStates, Mutation, Haplogroup, NuclearVariants).
		Rule(MitochondrialFunction, func(ps []string) []float64 { return MitoFunction(ps[0], ps[1], ps[2]) }).
		Node(OxidativeStress, stressStates, Smoking, Alcohol, EnvironmentalStress).
		Rule(OxidativeStress, func(ps []string) []float64 { return OxidativeStressCPT(ps[0], ps[1], ps[2]) }).
		Node(Liability, liabilityStates, MitochondrialFunction, OxidativeStress, Sex, Age).
		Rule(Liability, func(ps []string) []float64 { return LiabilityCPT(ps[0], ps[1], ps[2], ps[3]) }).
		Node(Phenotype, phenotypeStates, Liability).
		Rule(Phenotype, func(ps []string) []float64 { return PhenotypeCPT(ps[0]) }).
		Node(Recovery, recoveryStates, Phenotype, Age, Mutation).
		Rule(Recovery, func(ps []string) []float64 { return RecoveryCPT(recovery, ps[0], ps[1], ps[2]) }).
		Build()
}

func constant(p []float64) func([]string) []float64 {
	return func([]string) []float64 { return p }
}

// bySex selects the distribution by the second parent (Sex).
func bySex(male, female []float64) func([]string) []float64 {
	return func(ps []string) []float64 {
		if ps[1] == risk.Male.String() {
			return male
		}
		return female
	}
}
