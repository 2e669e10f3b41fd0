package sensitivity

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"bitbucket.org/Davydov/lhon/dist"
	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

// DefaultTrials is the number of Monte Carlo trials.
const DefaultTrials = 1000

// Outcome is a model output tracked by the Monte Carlo analysis.
type Outcome struct {
	Name string
	Eval func(*params.Set) float64
}

func reference(m risk.Mutation, sex risk.Sex) func(*params.Set) float64 {
	s := liability.Reference(m)
	s.Sex = sex
	return func(p *params.Set) float64 {
		return 100 * liability.ScenarioPenetrance(p, s)
	}
}

// Outcomes are population prevalence per 100,000 and reference
// penetrances in percent.
var Outcomes = []Outcome{
	{"prevalence", liability.PopulationPrevalence},
	{"penetrance_male_11778", reference(risk.M11778, risk.Male)},
	{"penetrance_female_11778", reference(risk.M11778, risk.Female)},
	{"penetrance_male_14484", reference(risk.M14484, risk.Male)},
	{"penetrance_male_3460", reference(risk.M3460, risk.Male)},
}

// MonteCarlo holds joint random draws of all ranged parameters and the
// resulting outcomes.
type MonteCarlo struct {
	Ranges   []params.Range
	Outcomes []Outcome
	// Samples[i][t] is the value of parameter i in trial t.
	Samples [][]float64
	// Values[j][t] is outcome j in trial t.
	Values [][]float64
	// Correlations[i][j] is the Pearson correlation of parameter i and
	// outcome j, undefined if either does not vary.
	Correlations [][]tally.Rate
}

// Random draws every parameter uniformly from its range in each of n
// trials. Trial t uses random stream t of seed.
func Random(base *params.Set, ranges []params.Range, n int, seed uint64, threads int) (*MonteCarlo, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid number of trials: %d", n)
	}
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	mc := &MonteCarlo{
		Ranges:   ranges,
		Outcomes: Outcomes,
		Samples:  make([][]float64, len(ranges)),
		Values:   make([][]float64, len(Outcomes)),
	}
	for i := range mc.Samples {
		mc.Samples[i] = make([]float64, n)
	}
	for j := range mc.Values {
		mc.Values[j] = make([]float64, n)
	}

	var g errgroup.Group
	g.SetLimit(threads)
	for t := 0; t < n; t++ {
		g.Go(func() error {
			rng := dist.Stream(seed, t)
			p := base.Clone()
			for i, r := range ranges {
				v := dist.Uniform(rng, r.Min, r.Max)
				if err := p.SetValue(r.Name, v); err != nil {
					return err
				}
				mc.Samples[i][t] = v
			}
			for j, o := range mc.Outcomes {
				mc.Values[j][t] = o.Eval(p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mc.Correlations = make([][]tally.Rate, len(ranges))
	for i := range ranges {
		mc.Correlations[i] = make([]tally.Rate, len(mc.Outcomes))
		for j := range mc.Outcomes {
			mc.Correlations[i][j] = correlation(mc.Samples[i], mc.Values[j])
		}
	}
	log.Infof("Monte Carlo sensitivity: %d trials over %d parameters", n, len(ranges))
	return mc, nil
}

func correlation(x, y []float64) tally.Rate {
	if len(x) < 2 {
		return tally.NoData
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return tally.NoData
	}
	return tally.Of(c)
}

// Correlation returns the correlation of a parameter and an outcome by
// name.
func (mc *MonteCarlo) Correlation(param, outcome string) tally.Rate {
	for i, r := range mc.Ranges {
		if r.Name != param {
			continue
		}
		for j, o := range mc.Outcomes {
			if o.Name == outcome {
				return mc.Correlations[i][j]
			}
		}
	}
	return tally.NoData
}
