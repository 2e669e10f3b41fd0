// Package simulate draws synthetic populations of mutation carriers
// and summarizes carrier frequency, penetrance and prevalence over
// repeated runs.
package simulate

import (
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"bitbucket.org/Davydov/lhon/checkpoint"
	"bitbucket.org/Davydov/lhon/dist"
	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

var log = logging.MustGetLogger("simulate")

// Individual is a simulated carrier. Non-carriers are not recorded.
type Individual struct {
	ID           int
	Mutation     risk.Mutation
	Sex          risk.Sex
	Age          float64
	Haplogroup   risk.Haplogroup
	SmokingHeavy bool
	SmokingLight bool
	AlcoholHeavy bool
	AlcoholLight bool
	Liability    float64
	Penetrance   float64
	Affected     bool
}

// Exposures returns the environmental factors of the individual.
func (ind *Individual) Exposures() (e risk.Exposures) {
	for _, f := range []struct {
		present bool
		e       risk.Exposure
	}{
		{ind.SmokingHeavy, risk.SmokingHeavy},
		{ind.SmokingLight, risk.SmokingLight},
		{ind.AlcoholHeavy, risk.AlcoholHeavy},
		{ind.AlcoholLight, risk.AlcoholLight},
	} {
		if f.present {
			e = e.With(f.e)
		}
	}
	return
}

// Simulator draws populations. Run r uses random stream r of Seed, so
// results do not depend on Threads or on which runs were restored from
// Store.
type Simulator struct {
	Params     *params.Set
	Population int
	Runs       int
	Seed       uint64
	Threads    int
	// Store keeps completed runs; nil disables checkpointing.
	Store *checkpoint.Runs
	// KeepIndividuals retains carriers of the last run.
	KeepIndividuals bool
}

// New creates a simulator with default population size and number of
// runs.
func New(p *params.Set, seed uint64) *Simulator {
	return &Simulator{
		Params:     p,
		Population: 100000,
		Runs:       100,
		Seed:       seed,
	}
}

// Fingerprint identifies runs of this configuration. The number of
// runs is not included, so extending a simulation reuses earlier runs.
func (s *Simulator) Fingerprint() (uuid.UUID, error) {
	return checkpoint.Fingerprint(struct {
		Params     *params.Set
		Population int
		Seed       uint64
	}{s.Params, s.Population, s.Seed})
}

// mutationOrder lists mutations in the order of the frequency scale.
var mutationOrder = []risk.Mutation{risk.NoMutation, risk.M3460, risk.M11778, risk.M14484}

// mutationSampler draws the mutation of an individual: carriers of
// each mutation per 100,000, the rest carry none.
func (s *Simulator) mutationSampler(rng *rand.Rand) distuv.Categorical {
	w := make([]float64, len(mutationOrder))
	carriers := 0.
	for i, m := range mutationOrder[1:] {
		w[i+1] = max(s.Params.CarrierFrequency.Get(m), 0)
		carriers += w[i+1]
	}
	w[0] = max(tally.PerHundredThousand-carriers, 0)
	p, _ := dist.Normalize(w)
	return distuv.NewCategorical(p, rng)
}

// haplogroup draws the background of a carrier of m.
func (s *Simulator) haplogroup(rng *rand.Rand, m risk.Mutation) risk.Haplogroup {
	switch m {
	case risk.M11778:
		if dist.Bernoulli(rng, s.Params.HaplogroupJ11778Rate) {
			return risk.HaploJ
		}
		return risk.HaploOther
	case risk.M14484:
		if dist.Bernoulli(rng, s.Params.HaplogroupJ14484Rate) {
			return risk.HaploJ
		}
		return risk.HaploNonJ
	}
	return risk.HaploL2
}

// individual draws demographics and exposures of a carrier of m and its
// outcome.
func (s *Simulator) individual(rng *rand.Rand, id int, m risk.Mutation) Individual {
	p := s.Params
	ind := Individual{ID: id, Mutation: m, Sex: risk.Female}
	if dist.Bernoulli(rng, p.MaleProportion) {
		ind.Sex = risk.Male
	}
	ind.Age = min(max(dist.Normal(rng, p.OnsetAgeMean, p.OnsetAgeSD), p.MinAge), p.MaxAge)
	ind.Haplogroup = s.haplogroup(rng, m)

	smoking := dist.Bernoulli(rng, p.SmokingRate)
	ind.SmokingHeavy = smoking && dist.Bernoulli(rng, p.HeavySmokingRate)
	ind.SmokingLight = smoking && !ind.SmokingHeavy
	alcohol := dist.Bernoulli(rng, p.AlcoholRate)
	ind.AlcoholHeavy = alcohol && dist.Bernoulli(rng, p.HeavyAlcoholRate)
	ind.AlcoholLight = alcohol && !ind.AlcoholHeavy

	ind.Penetrance, ind.Liability = liability.Penetrance(p, liability.Profile{
		Mutation:   m,
		Sex:        ind.Sex,
		Haplogroup: ind.Haplogroup,
		Exposures:  ind.Exposures(),
		Age:        ind.Age,
	})
	ind.Affected = dist.Bernoulli(rng, ind.Penetrance)
	return ind
}

// Draw simulates run r. If keep is set, carriers are returned.
func (s *Simulator) Draw(r int, keep bool) (Run, []Individual) {
	rng := dist.Stream(s.Seed, r)
	mut := s.mutationSampler(rng)
	var inds []Individual
	c := newCounter()
	for i := 0; i < s.Population; i++ {
		m := mutationOrder[int(mut.Rand())]
		if m == risk.NoMutation {
			continue
		}
		ind := s.individual(rng, i, m)
		c.add(&ind)
		if keep {
			inds = append(inds, ind)
		}
	}
	return c.run(r, s.Population), inds
}

// Simulate performs all runs, restoring completed ones from Store.
func (s *Simulator) Simulate() (*Result, error) {
	if s.Population < 0 || s.Runs < 0 {
		return nil, fmt.Errorf("invalid simulation size: population=%d, runs=%d", s.Population, s.Runs)
	}
	threads := s.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	res := &Result{Runs: make([]Run, s.Runs)}
	done := make([]bool, s.Runs)
	found, err := s.Store.Load(s.Runs, func(i int) any { return &res.Runs[i] })
	if err != nil {
		return nil, fmt.Errorf("restore runs: %w", err)
	}
	for _, i := range found {
		done[i] = true
	}

	last := s.Runs - 1
	var g errgroup.Group
	g.SetLimit(threads)
	for r := 0; r < s.Runs; r++ {
		keep := s.KeepIndividuals && r == last
		if done[r] && !keep {
			continue
		}
		g.Go(func() error {
			run, inds := s.Draw(r, keep)
			res.Runs[r] = run
			if keep {
				res.Individuals = inds
			}
			if done[r] {
				return nil
			}
			log.Debugf("Run %d: carriers=%d, affected=%d", r, run.Carriers, run.Affected)
			return s.Store.Put(r, run)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("store run: %w", err)
	}

	res.summarize()
	log.Infof("Simulated %d runs (%d restored), mean prevalence %v per 100,000",
		s.Runs, len(found), res.Prevalence.Mean)
	return res, nil
}
