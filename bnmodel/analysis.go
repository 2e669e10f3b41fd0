package bnmodel

import (
	"bitbucket.org/Davydov/lhon/network"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

// Subgroup is a named rate estimated from N matching samples.
type Subgroup struct {
	Name string     `json:"name"`
	Rate tally.Rate `json:"rate"`
	N    int        `json:"n"`
}

func subgroup(ds *network.Dataset, name string, filter, outcome network.Predicate) Subgroup {
	return Subgroup{
		Name: name,
		Rate: ds.Rate(filter, outcome),
		N:    ds.Count(filter),
	}
}

// defined drops subgroups without data.
func defined(sg []Subgroup) []Subgroup {
	out := sg[:0]
	for _, s := range sg {
		if s.Rate.Valid {
			out = append(out, s)
		} else {
			log.Debugf("Skipping subgroup %s: no samples", s.Name)
		}
	}
	return out
}

// Find returns the subgroup with a given name.
func Find(sg []Subgroup, name string) (tally.Rate, bool) {
	for _, s := range sg {
		if s.Name == name {
			return s.Rate, true
		}
	}
	return tally.NoData, false
}

// Penetrance estimates the fraction affected among carriers overall,
// by mutation, by sex, by mutation and sex, among heavy smokers and for
// male heavy smoking 11778G>A carriers. Subgroups without carriers are
// omitted.
func Penetrance(ds *network.Dataset) []Subgroup {
	n := ds.Network
	carrier := n.Ne(Mutation, risk.NoMutation.String())
	affected := n.Eq(Phenotype, Affected)

	sg := []Subgroup{subgroup(ds, "Overall", carrier, affected)}
	for _, m := range risk.Mutations {
		sg = append(sg, subgroup(ds, m.String(), n.Eq(Mutation, m.String()), affected))
	}
	for _, s := range risk.Sexes {
		sg = append(sg, subgroup(ds, s.String(), network.And(carrier, n.Eq(Sex, s.String())), affected))
	}
	for _, m := range risk.Mutations {
		for _, s := range risk.Sexes {
			f := network.And(n.Eq(Mutation, m.String()), n.Eq(Sex, s.String()))
			sg = append(sg, subgroup(ds, m.String()+"_"+s.String(), f, affected))
		}
	}
	heavy := n.Eq(Smoking, risk.Heavy.String())
	sg = append(sg, subgroup(ds, "Heavy_Smokers", network.And(carrier, heavy), affected))
	highRisk := network.And(n.Eq(Mutation, risk.M11778.String()), n.Eq(Sex, risk.Male.String()), heavy)
	sg = append(sg, subgroup(ds, "High_Risk_11778_Male_Heavy_Smoker", highRisk, affected))
	return defined(sg)
}

// RecoveryRates estimates any and complete recovery among affected
// individuals, overall and by mutation, and any recovery by age band.
func RecoveryRates(ds *network.Dataset) []Subgroup {
	n := ds.Network
	affected := n.Eq(Phenotype, Affected)
	if ds.Count(affected) == 0 {
		return nil
	}
	recovered := n.Ne(Recovery, NoRecovery)
	complete := n.Eq(Recovery, CompleteRecovery)

	sg := []Subgroup{
		subgroup(ds, "Overall_Any_Recovery", affected, recovered),
		subgroup(ds, "Overall_Complete_Recovery", affected, complete),
	}
	for _, m := range risk.Mutations {
		f := network.And(affected, n.Eq(Mutation, m.String()))
		sg = append(sg,
			subgroup(ds, m.String()+"_Any_Recovery", f, recovered),
			subgroup(ds, m.String()+"_Complete_Recovery", f, complete),
		)
	}
	for _, a := range risk.AgeBands {
		sg = append(sg, subgroup(ds, a.String()+"_Recovery", network.And(affected, n.Eq(Age, a.String())), recovered))
	}
	return defined(sg)
}

// Prevalence returns affected individuals per 100,000 samples.
func Prevalence(ds *network.Dataset) tally.Rate {
	return tally.Count(ds.Count(ds.Network.Eq(Phenotype, Affected)), ds.Len(), tally.PerHundredThousand)
}

// CarrierFrequencies returns carriers of each mutation per 100,000
// samples, plus the total as "All".
func CarrierFrequencies(ds *network.Dataset) []Subgroup {
	n := ds.Network
	sg := []Subgroup{{
		Name: "All",
		Rate: tally.Count(ds.Count(n.Ne(Mutation, risk.NoMutation.String())), ds.Len(), tally.PerHundredThousand),
		N:    ds.Len(),
	}}
	for _, m := range risk.Mutations {
		sg = append(sg, Subgroup{
			Name: m.String(),
			Rate: tally.Count(ds.Count(n.Eq(Mutation, m.String())), ds.Len(), tally.PerHundredThousand),
			N:    ds.Len(),
		})
	}
	return defined(sg)
}
