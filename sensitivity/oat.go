// Package sensitivity measures how strongly model outputs respond to the
// uncertain parameters: one parameter at a time over its range, all
// parameters jointly at random, and as fixed scenario bundles.
package sensitivity

import (
	"fmt"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

var log = logging.MustGetLogger("sensitivity")

// DefaultPoints is the number of values per sweep.
const DefaultPoints = 20

// Curve is the response of the model to one parameter swept over its
// range with all others at base values. Penetrances are in percent.
type Curve struct {
	Range            params.Range
	Values           []float64
	Prevalence       []float64
	PenetranceMale   []float64
	PenetranceFemale []float64
}

// grid returns n evenly spaced values from min to max inclusive.
func grid(r params.Range, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{r.Min}
	}
	return floats.Span(make([]float64, n), r.Min, r.Max)
}

// OneAtATime sweeps every range over n points.
func OneAtATime(base *params.Set, ranges []params.Range, n int) ([]Curve, error) {
	curves := make([]Curve, 0, len(ranges))
	male := liability.Reference(risk.M11778)
	female := male
	female.Sex = risk.Female
	for _, r := range ranges {
		if r.Min > r.Max {
			return nil, fmt.Errorf("range of %s is empty (%v > %v)", r.Name, r.Min, r.Max)
		}
		c := Curve{Range: r, Values: grid(r, n)}
		p := base.Clone()
		for _, v := range c.Values {
			if err := p.SetValue(r.Name, v); err != nil {
				return nil, err
			}
			c.Prevalence = append(c.Prevalence, liability.PopulationPrevalence(p))
			c.PenetranceMale = append(c.PenetranceMale, 100*liability.ScenarioPenetrance(p, male))
			c.PenetranceFemale = append(c.PenetranceFemale, 100*liability.ScenarioPenetrance(p, female))
		}
		log.Debugf("Swept %s over [%v, %v]", r.Name, r.Min, r.Max)
		curves = append(curves, c)
	}
	return curves, nil
}

// Index summarizes the prevalence curve of one parameter.
type Index struct {
	Name string `json:"parameter"`
	// Index is the prevalence range relative to the base case. It is
	// zero for a flat curve and undefined if the base case is zero.
	Index tally.Rate `json:"sensitivity_index"`
	// CV is the coefficient of variation of the curve.
	CV   tally.Rate `json:"coefficient_of_variation"`
	Min  float64    `json:"min_prevalence"`
	Max  float64    `json:"max_prevalence"`
	Base float64    `json:"base_prevalence"`
}

// Indices computes the sensitivity index of every curve against the
// prevalence of base.
func Indices(base *params.Set, curves []Curve) []Index {
	bp := liability.PopulationPrevalence(base)
	idx := make([]Index, 0, len(curves))
	for _, c := range curves {
		in := Index{Name: c.Range.Name, Base: bp}
		if len(c.Prevalence) == 0 {
			idx = append(idx, in)
			continue
		}
		in.Min = floats.Min(c.Prevalence)
		in.Max = floats.Max(c.Prevalence)
		if spread := in.Max - in.Min; spread == 0 {
			in.Index = tally.Of(0)
		} else {
			in.Index = tally.Ratio(spread, bp)
		}
		mean, sd := stat.PopMeanStdDev(c.Prevalence, nil)
		if sd == 0 {
			in.CV = tally.Of(0)
		} else {
			in.CV = tally.Ratio(sd, mean)
		}
		idx = append(idx, in)
	}
	return idx
}
