package liability

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"

	"bitbucket.org/Davydov/lhon/dist"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

var log = logging.MustGetLogger("liability")

// drawChunk is the number of hierarchical draws taken from one random
// stream.
const drawChunk = 1024

// LogNormalPrior is a prior on an odds ratio: log(OR) ~ N(Mu, Sigma^2).
type LogNormalPrior struct {
	Mu    float64
	Sigma float64
}

func (p LogNormalPrior) draw(rng *rand.Rand) float64 {
	return dist.LogNormal(rng, p.Mu, p.Sigma)
}

// Priors of the hierarchical penetrance model. Base penetrance of each
// mutation is Beta(Alpha, Beta); modifiers multiply it.
type Priors struct {
	Alpha, Beta  params.PerMutation
	Male         LogNormalPrior
	SmokingHeavy LogNormalPrior
	J11778       LogNormalPrior
	J14484       LogNormalPrior
	// NonJ14484 is a fixed multiplier for 14484T>C outside haplogroup J.
	NonJ14484    float64
}

// DefaultPriors centers the base penetrances at 4%, 0.8% and 14%.
func DefaultPriors() Priors {
	return Priors{
		Alpha:        params.PerMutation{M11778: 4, M14484: 1, M3460: 14},
		Beta:         params.PerMutation{M11778: 96, M14484: 124, M3460: 86},
		Male:         LogNormalPrior{math.Log(params.MaleOR), 0.2},
		SmokingHeavy: LogNormalPrior{math.Log(params.SmokingHeavyOR), 0.3},
		J11778:       LogNormalPrior{math.Log(1.31), 0.1},
		J14484:       LogNormalPrior{math.Log(27.0), 0.5},
		NonJ14484:    0.037,
	}
}

// HierarchicalScenario is a profile evaluated under every draw.
type HierarchicalScenario struct {
	Name         string
	Mutation     risk.Mutation
	Sex          risk.Sex
	Haplogroup   risk.Haplogroup
	SmokingHeavy bool
}

// HierarchicalScenarios are the profiles of the hierarchical model.
var HierarchicalScenarios = []HierarchicalScenario{
	{"11778G>A_female", risk.M11778, risk.Female, risk.HaploOther, false},
	{"11778G>A_male", risk.M11778, risk.Male, risk.HaploOther, false},
	{"11778G>A_male_J_smoking_heavy", risk.M11778, risk.Male, risk.HaploJ, true},
	{"14484T>C_male_J", risk.M14484, risk.Male, risk.HaploJ, false},
	{"14484T>C_male_non_J", risk.M14484, risk.Male, risk.HaploNonJ, false},
	{"3460G>A_male", risk.M3460, risk.Male, risk.HaploOther, false},
}

// effects is one joint draw from the priors.
type effects struct {
	base                          params.PerMutation
	male, smoking, j11778, j14484 float64
}

func (pr Priors) draw(rng *rand.Rand) (e effects) {
	for _, m := range risk.Mutations {
		*e.base.Ptr(m) = dist.Beta(rng, pr.Alpha.Get(m), pr.Beta.Get(m))
	}
	e.male = pr.Male.draw(rng)
	e.smoking = pr.SmokingHeavy.draw(rng)
	e.j11778 = pr.J11778.draw(rng)
	e.j14484 = pr.J14484.draw(rng)
	return
}

func (pr Priors) penetrance(e effects, s HierarchicalScenario) float64 {
	p := e.base.Get(s.Mutation)
	if s.Sex == risk.Male {
		p *= e.male
	}
	if s.SmokingHeavy {
		p *= e.smoking
	}
	switch {
	case s.Mutation == risk.M11778 && s.Haplogroup == risk.HaploJ:
		p *= e.j11778
	case s.Mutation == risk.M14484 && s.Haplogroup == risk.HaploJ:
		p *= e.j14484
	case s.Mutation == risk.M14484 && s.Haplogroup == risk.HaploNonJ:
		p *= pr.NonJ14484
	}
	return math.Min(p, 1)
}

// Posterior holds the draws of one scenario.
type Posterior struct {
	Scenario HierarchicalScenario
	Draws    []float64
	Summary  tally.Summary
}

// Hierarchical draws penetrance of every scenario n times. Draws
// [k*1024, (k+1)*1024) use stream k of seed, so results do not depend
// on threads.
func Hierarchical(pr Priors, n int, seed uint64, threads int) ([]Posterior, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative number of draws: %d", n)
	}
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	post := make([]Posterior, len(HierarchicalScenarios))
	for i, s := range HierarchicalScenarios {
		post[i] = Posterior{Scenario: s, Draws: make([]float64, n)}
	}

	var g errgroup.Group
	g.SetLimit(threads)
	for c := 0; c*drawChunk < n; c++ {
		g.Go(func() error {
			rng := dist.Stream(seed, c)
			for i := c * drawChunk; i < min((c+1)*drawChunk, n); i++ {
				e := pr.draw(rng)
				for j := range post {
					post[j].Draws[i] = pr.penetrance(e, post[j].Scenario)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range post {
		rs := make([]tally.Rate, n)
		for j, v := range post[i].Draws {
			rs[j] = tally.Of(v)
		}
		post[i].Summary = tally.Summarize(rs)
		log.Debugf("%s: mean=%v [%v, %v]", post[i].Scenario.Name,
			post[i].Summary.Mean, post[i].Summary.Lower, post[i].Summary.Upper)
	}
	return post, nil
}
