package params

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"bitbucket.org/Davydov/lhon/optimize"
	"bitbucket.org/Davydov/lhon/risk"
)

// ErrUnknownParameter is returned for names missing from the registry.
var ErrUnknownParameter = errors.New("unknown parameter")

type field struct {
	name string
	ptr  func(*Set) *float64
}

func perMutation(prefix string, f func(*Set) *PerMutation) []field {
	fs := make([]field, 0, len(risk.Mutations))
	for _, m := range risk.Mutations {
		m := m
		fs = append(fs, field{prefix + "_" + m.Short(), func(s *Set) *float64 { return f(s).Ptr(m) }})
	}
	return fs
}

var registry = func() (fs []field) {
	fs = append(fs,
		field{"threshold", func(s *Set) *float64 { return &s.Threshold }},
		field{"sigma", func(s *Set) *float64 { return &s.Sigma }},
	)
	fs = append(fs, perMutation("base_liability", func(s *Set) *PerMutation { return &s.BaseLiability })...)
	fs = append(fs,
		field{"male_effect", func(s *Set) *float64 { return &s.MaleEffect }},
		field{"smoking_heavy_effect", func(s *Set) *float64 { return &s.SmokingHeavyEffect }},
		field{"smoking_light_effect", func(s *Set) *float64 { return &s.SmokingLightEffect }},
		field{"alcohol_heavy_effect", func(s *Set) *float64 { return &s.AlcoholHeavyEffect }},
		field{"alcohol_light_effect", func(s *Set) *float64 { return &s.AlcoholLightEffect }},
		field{"heteroplasmy_effect", func(s *Set) *float64 { return &s.HeteroplasmyEffect }},
		field{"haplogroup_j_14484_effect", func(s *Set) *float64 { return &s.HaplogroupJ14484Effect }},
		field{"age_peak_effect", func(s *Set) *float64 { return &s.AgePeakEffect }},
		field{"peak_age", func(s *Set) *float64 { return &s.PeakAge }},
		field{"age_spread", func(s *Set) *float64 { return &s.AgeSpread }},
		field{"age_bonus", func(s *Set) *float64 { return &s.AgeBonus }},
	)
	fs = append(fs, perMutation("carrier_frequency", func(s *Set) *PerMutation { return &s.CarrierFrequency })...)
	fs = append(fs,
		field{"male_proportion", func(s *Set) *float64 { return &s.MaleProportion }},
		field{"smoking_heavy_proportion", func(s *Set) *float64 { return &s.SmokingHeavyProportion }},
		field{"smoking_light_proportion", func(s *Set) *float64 { return &s.SmokingLightProportion }},
		field{"alcohol_heavy_proportion", func(s *Set) *float64 { return &s.AlcoholHeavyProportion }},
		field{"haplogroup_j_proportion", func(s *Set) *float64 { return &s.HaplogroupJProportion }},
		field{"age_peak_proportion", func(s *Set) *float64 { return &s.AgePeakProportion }},
	)
	fs = append(fs, perMutation("recovery_rate", func(s *Set) *PerMutation { return &s.RecoveryRate })...)
	fs = append(fs,
		field{"smoking_rate", func(s *Set) *float64 { return &s.SmokingRate }},
		field{"heavy_smoking_rate", func(s *Set) *float64 { return &s.HeavySmokingRate }},
		field{"alcohol_rate", func(s *Set) *float64 { return &s.AlcoholRate }},
		field{"heavy_alcohol_rate", func(s *Set) *float64 { return &s.HeavyAlcoholRate }},
		field{"onset_age_mean", func(s *Set) *float64 { return &s.OnsetAgeMean }},
		field{"onset_age_sd", func(s *Set) *float64 { return &s.OnsetAgeSD }},
		field{"min_age", func(s *Set) *float64 { return &s.MinAge }},
		field{"max_age", func(s *Set) *float64 { return &s.MaxAge }},
		field{"haplogroup_j_11778_rate", func(s *Set) *float64 { return &s.HaplogroupJ11778Rate }},
		field{"haplogroup_j_14484_rate", func(s *Set) *float64 { return &s.HaplogroupJ14484Rate }},
	)
	return
}()

var registryIndex = func() map[string]int {
	m := make(map[string]int, len(registry))
	for i, f := range registry {
		m[f.name] = i
	}
	return m
}()

// Names returns all registered parameter names in a fixed order.
func Names() []string {
	n := make([]string, len(registry))
	for i, f := range registry {
		n[i] = f.name
	}
	return n
}

// Ptr returns a pointer to the named parameter.
func (s *Set) Ptr(name string) (*float64, error) {
	i, ok := registryIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return registry[i].ptr(s), nil
}

// Get returns the value of the named parameter.
func (s *Set) Get(name string) (float64, error) {
	p, err := s.Ptr(name)
	if err != nil {
		return math.NaN(), err
	}
	return *p, nil
}

// SetValue changes the named parameter.
func (s *Set) SetValue(name string, v float64) error {
	p, err := s.Ptr(name)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// With returns a clone of s with overrides applied.
func (s *Set) With(overrides map[string]float64) (*Set, error) {
	c := s.Clone()
	// sorted for deterministic error reporting
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.SetValue(k, overrides[k]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Values returns all registered parameters by name.
func (s *Set) Values() map[string]float64 {
	m := make(map[string]float64, len(registry))
	for _, f := range registry {
		m[f.name] = *f.ptr(s)
	}
	return m
}

// Range is an interval of plausible values of a parameter.
type Range struct {
	Name string  `yaml:"name" json:"name"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

// DefaultRanges are the uncertainty intervals of the sensitivity
// analysis.
func DefaultRanges() []Range {
	return []Range{
		{"male_effect", math.Log(3.0), math.Log(15.0)},
		{"smoking_heavy_effect", math.Log(1.5), math.Log(6.0)},
		{"smoking_light_effect", math.Log(1.0), math.Log(3.0)},
		{"alcohol_heavy_effect", math.Log(1.5), math.Log(6.0)},
		{"haplogroup_j_14484_effect", math.Log(1.0), math.Log(4.0)},
		{"threshold", 1.0, 4.0},
		{"sigma", 0.5, 2.0},
		{"base_liability_11778", -1.0, 2.0},
		{"base_liability_14484", -2.0, 1.0},
		{"base_liability_3460", 0.5, 3.0},
	}
}

// FloatParameters binds the named parameters of s to bounded optimizer
// parameters. Changing them changes s.
func (s *Set) FloatParameters(ranges []Range) (pars optimize.FloatParameters, err error) {
	for _, r := range ranges {
		p, err := s.Ptr(r.Name)
		if err != nil {
			return nil, err
		}
		pars.Append(optimize.NewBoundedFloatParameter(p, r.Name, r.Min, r.Max))
	}
	return pars, nil
}
