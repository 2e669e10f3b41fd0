// Package risk defines the categorical risk factors shared by all
// LHON models together with their textual labels.
//
// Labels are used verbatim in output tables (e.g. "11778G>A", "Heavy",
// "Affected"), so they must not be changed.
package risk

import (
	"fmt"
)

// Mutation is a primary mtDNA LHON mutation, or its absence.
type Mutation uint8

const (
	NoMutation Mutation = iota
	M11778
	M14484
	M3460
)

var mutationLabels = [...]string{"None", "11778G>A", "14484T>C", "3460G>A"}

// Mutations lists the pathogenic mutations in reporting order.
var Mutations = []Mutation{M11778, M14484, M3460}

func (m Mutation) String() string {
	if int(m) < len(mutationLabels) {
		return mutationLabels[m]
	}
	return fmt.Sprintf("Mutation(%d)", m)
}

// Short returns the numeric part of the mutation name (e.g. "11778"),
// used in parameter names.
func (m Mutation) Short() string {
	switch m {
	case M11778:
		return "11778"
	case M14484:
		return "14484"
	case M3460:
		return "3460"
	}
	return "none"
}

// ParseMutation converts a label into a Mutation.
func ParseMutation(s string) (Mutation, error) {
	for i, l := range mutationLabels {
		if l == s {
			return Mutation(i), nil
		}
	}
	return NoMutation, fmt.Errorf("unknown mutation: %q", s)
}

// Sex of an individual.
type Sex uint8

const (
	Male Sex = iota
	Female
)

// Sexes lists both sexes, males first.
var Sexes = []Sex{Male, Female}

func (s Sex) String() string {
	if s == Male {
		return "Male"
	}
	return "Female"
}

// ParseSex converts a label into a Sex.
func ParseSex(s string) (Sex, error) {
	switch s {
	case "Male":
		return Male, nil
	case "Female":
		return Female, nil
	}
	return Male, fmt.Errorf("unknown sex: %q", s)
}

// Level is an exposure intensity (smoking, alcohol).
type Level uint8

const (
	None Level = iota
	Light
	Heavy
)

var levelLabels = [...]string{"None", "Light", "Heavy"}

// Levels lists exposure levels from lowest to highest.
var Levels = []Level{None, Light, Heavy}

func (l Level) String() string {
	if int(l) < len(levelLabels) {
		return levelLabels[l]
	}
	return fmt.Sprintf("Level(%d)", l)
}

// ParseLevel converts a label into a Level.
func ParseLevel(s string) (Level, error) {
	for i, l := range levelLabels {
		if l == s {
			return Level(i), nil
		}
	}
	return None, fmt.Errorf("unknown exposure level: %q", s)
}

// Haplogroup is a mitochondrial lineage.
type Haplogroup uint8

const (
	HaploH Haplogroup = iota
	HaploJ
	HaploK
	HaploT
	HaploU
	HaploL2
	HaploNonJ
	HaploOther
)

var haplogroupLabels = [...]string{"H", "J", "K", "T", "U", "L2", "non_J", "Other"}

func (h Haplogroup) String() string {
	if int(h) < len(haplogroupLabels) {
		return haplogroupLabels[h]
	}
	return fmt.Sprintf("Haplogroup(%d)", h)
}

// ParseHaplogroup converts a label into a Haplogroup.
func ParseHaplogroup(s string) (Haplogroup, error) {
	for i, l := range haplogroupLabels {
		if l == s {
			return Haplogroup(i), nil
		}
	}
	return HaploOther, fmt.Errorf("unknown haplogroup: %q", s)
}

// AgeBand is a coarse age category relative to the onset peak.
type AgeBand uint8

const (
	Young AgeBand = iota
	Peak
	Middle
	Late
)

var ageLabels = [...]string{"Young", "Peak", "Middle", "Late"}

// AgeBands lists all age bands in increasing age.
var AgeBands = []AgeBand{Young, Peak, Middle, Late}

func (a AgeBand) String() string {
	if int(a) < len(ageLabels) {
		return ageLabels[a]
	}
	return fmt.Sprintf("AgeBand(%d)", a)
}

// ParseAgeBand converts a label into an AgeBand.
func ParseAgeBand(s string) (AgeBand, error) {
	for i, l := range ageLabels {
		if l == s {
			return AgeBand(i), nil
		}
	}
	return Young, fmt.Errorf("unknown age band: %q", s)
}

// Exposure is an environmental risk factor with its own odds ratio.
type Exposure uint8

const (
	SmokingHeavy Exposure = 1 << iota
	SmokingLight
	AlcoholHeavy
	AlcoholLight
	HeteroplasmyProtective
)

var exposureNames = []struct {
	e    Exposure
	name string
}{
	{SmokingHeavy, "smoking_heavy"},
	{SmokingLight, "smoking_light"},
	{AlcoholHeavy, "alcohol_heavy"},
	{AlcoholLight, "alcohol_light"},
	{HeteroplasmyProtective, "heteroplasmy_protective"},
}

// Exposures is a set of present environmental factors.
type Exposures uint8

// Has reports whether e is present.
func (s Exposures) Has(e Exposure) bool {
	return uint8(s)&uint8(e) != 0
}

// With returns a copy of s with e added.
func (s Exposures) With(e Exposure) Exposures {
	return Exposures(uint8(s) | uint8(e))
}

func (e Exposure) String() string {
	for _, n := range exposureNames {
		if n.e == e {
			return n.name
		}
	}
	return fmt.Sprintf("Exposure(%d)", uint8(e))
}

// List returns present exposures in a fixed order.
func (s Exposures) List() (l []Exposure) {
	for _, n := range exposureNames {
		if s.Has(n.e) {
			l = append(l, n.e)
		}
	}
	return
}

// ExposuresFromLevels builds an exposure set from smoking and alcohol
// levels.
func ExposuresFromLevels(smoking, alcohol Level) (s Exposures) {
	switch smoking {
	case Heavy:
		s = s.With(SmokingHeavy)
	case Light:
		s = s.With(SmokingLight)
	}
	switch alcohol {
	case Heavy:
		s = s.With(AlcoholHeavy)
	case Light:
		s = s.With(AlcoholLight)
	}
	return
}
