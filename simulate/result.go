package simulate

import (
	"math"

	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

// Count is the number of carriers and affected carriers in a group.
type Count struct {
	Carriers int `json:"carriers"`
	Affected int `json:"affected"`
}

// Penetrance returns the fraction of affected carriers.
func (c Count) Penetrance() tally.Rate {
	return tally.Count(c.Affected, c.Carriers, 1)
}

// Run summarizes one simulated population. Without carriers
// penetrance is undefined; an empty population also leaves prevalence
// and carrier frequency undefined.
type Run struct {
	Index            int              `json:"simulation"`
	Population       int              `json:"population"`
	Carriers         int              `json:"total_carriers"`
	Affected         int              `json:"total_affected"`
	Penetrance       tally.Rate       `json:"overall_penetrance"`
	Prevalence       tally.Rate       `json:"population_prevalence"`
	CarrierFrequency tally.Rate       `json:"carrier_frequency"`
	ByMutation       map[string]Count `json:"by_mutation"`
	BySex            map[string]Count `json:"by_sex"`
}

type counter struct {
	total      Count
	byMutation map[risk.Mutation]*Count
	bySex      map[risk.Sex]*Count
}

func newCounter() *counter {
	return &counter{
		byMutation: make(map[risk.Mutation]*Count),
		bySex:      make(map[risk.Sex]*Count),
	}
}

func (c *counter) add(ind *Individual) {
	for _, cnt := range []*Count{&c.total, slot(c.byMutation, ind.Mutation), slot(c.bySex, ind.Sex)} {
		cnt.Carriers++
		if ind.Affected {
			cnt.Affected++
		}
	}
}

func slot[K comparable](m map[K]*Count, k K) *Count {
	if m[k] == nil {
		m[k] = new(Count)
	}
	return m[k]
}

func (c *counter) run(index, population int) Run {
	r := Run{
		Index:            index,
		Population:       population,
		Carriers:         c.total.Carriers,
		Affected:         c.total.Affected,
		Penetrance:       c.total.Penetrance(),
		Prevalence:       tally.Count(c.total.Affected, population, tally.PerHundredThousand),
		CarrierFrequency: tally.Count(c.total.Carriers, population, tally.PerHundredThousand),
		ByMutation:       make(map[string]Count, len(c.byMutation)),
		BySex:            make(map[string]Count, len(c.bySex)),
	}
	for m, cnt := range c.byMutation {
		r.ByMutation[m.String()] = *cnt
	}
	for s, cnt := range c.bySex {
		r.BySex[s.String()] = *cnt
	}
	return r
}

// Point is the running estimate of prevalence after Runs runs.
type Point struct {
	Runs   int        `json:"runs"`
	Mean   tally.Rate `json:"mean"`
	StdErr tally.Rate `json:"stderr"`
}

// Result collects all runs of a simulation.
type Result struct {
	Runs []Run
	// Individuals are carriers of the last run, if requested.
	Individuals []Individual

	CarrierFrequency tally.Summary
	Prevalence       tally.Summary
	Penetrance       tally.Summary
	// Convergence of mean prevalence as runs accumulate.
	Convergence []Point
}

func column(runs []Run, f func(*Run) tally.Rate) []tally.Rate {
	rs := make([]tally.Rate, len(runs))
	for i := range runs {
		rs[i] = f(&runs[i])
	}
	return rs
}

func (res *Result) summarize() {
	res.CarrierFrequency = tally.Summarize(column(res.Runs, func(r *Run) tally.Rate { return r.CarrierFrequency }))
	prev := column(res.Runs, func(r *Run) tally.Rate { return r.Prevalence })
	res.Prevalence = tally.Summarize(prev)
	res.Penetrance = tally.Summarize(column(res.Runs, func(r *Run) tally.Rate { return r.Penetrance }))
	res.Convergence = Convergence(prev)
}

// Convergence returns the running mean and its standard error over the
// first k rates for every k. Undefined rates are skipped.
func Convergence(rs []tally.Rate) []Point {
	pts := make([]Point, len(rs))
	for k := range rs {
		s := tally.Summarize(rs[:k+1])
		pts[k] = Point{Runs: k + 1, Mean: s.Mean}
		if s.SD.Valid {
			pts[k].StdErr = tally.Of(s.SD.Value / math.Sqrt(float64(s.N)))
		}
	}
	return pts
}

// MutationPenetrance pools carriers of m over all runs.
func (res *Result) MutationPenetrance(m risk.Mutation) tally.Rate {
	var c Count
	for _, r := range res.Runs {
		cnt := r.ByMutation[m.String()]
		c.Carriers += cnt.Carriers
		c.Affected += cnt.Affected
	}
	return c.Penetrance()
}
