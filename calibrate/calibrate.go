// Package calibrate fits the liability threshold and its spread to the
// observed overall penetrance and population prevalence.
package calibrate

import (
	"errors"
	"fmt"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/optimize"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/risk"
)

var log = logging.MustGetLogger("calibrate")

// ErrNoCarriers is returned when carrier frequencies give no weight to
// any scenario.
var ErrNoCarriers = errors.New("no carriers to calibrate against")

// Targets are the observed values the model is fitted to.
type Targets struct {
	// Penetrance is overall penetrance as a fraction.
	Penetrance float64 `json:"penetrance"`
	// Prevalence is affected per 100,000.
	Prevalence float64 `json:"prevalence"`
}

// DefaultTargets are overall penetrance from Watson et al. and the
// average of the published prevalence studies.
func DefaultTargets() Targets {
	return Targets{Penetrance: 0.011, Prevalence: 1.87}
}

// DefaultFree are the fitted parameters and their bounds.
func DefaultFree() []params.Range {
	return []params.Range{
		{Name: "threshold", Min: 0.5, Max: 5},
		{Name: "sigma", Min: 0.1, Max: 3},
	}
}

// scenario is a fitted carrier group: no exposures, only sex modifies
// the base liability.
type scenario struct {
	mutation risk.Mutation
	sex      risk.Sex
}

var scenarios = []scenario{
	{risk.M11778, risk.Female},
	{risk.M11778, risk.Male},
	{risk.M14484, risk.Male},
	{risk.M3460, risk.Male},
}

// Problem is the calibration loss over the free parameters of a copy
// of the parameter set.
type Problem struct {
	Params  *params.Set
	Targets Targets
	Free    []params.Range
	pars    optimize.FloatParameters
}

// NewProblem binds free parameters of a clone of p. Starting values are
// taken from p and moved into the bounds if needed.
func NewProblem(p *params.Set, t Targets, free []params.Range) (*Problem, error) {
	if p.TotalCarrierFrequency() <= 0 {
		return nil, ErrNoCarriers
	}
	pr := &Problem{Params: p.Clone(), Targets: t, Free: free}
	pars, err := pr.Params.FloatParameters(free)
	if err != nil {
		return nil, fmt.Errorf("calibration parameters: %w", err)
	}
	for _, par := range pars {
		v := par.Get()
		if !par.InRange() {
			v = min(max(v, par.GetMin()), par.GetMax())
			log.Warningf("Starting value of %s moved into bounds: %v", par.Name(), v)
		}
		par.Set(v)
	}
	pr.pars = pars
	return pr, nil
}

func (pr *Problem) GetFloatParameters() optimize.FloatParameters {
	return pr.pars
}

func (pr *Problem) Copy() optimize.Optimizable {
	c := &Problem{Params: pr.Params.Clone(), Targets: pr.Targets, Free: pr.Free}
	// names were checked by NewProblem
	c.pars, _ = c.Params.FloatParameters(pr.Free)
	return c
}

// Penetrance is the carrier frequency weighted penetrance of the fitted
// scenarios.
func (pr *Problem) Penetrance() float64 {
	p := pr.Params
	var sum, weight float64
	for _, s := range scenarios {
		l := p.BaseLiability.Get(s.mutation)
		if s.sex == risk.Male {
			l += p.MaleEffect
		}
		w := p.CarrierFrequency.Get(s.mutation)
		sum += w * liability.Transform(l, p.Threshold, p.Sigma)
		weight += w
	}
	if weight <= 0 {
		return 0
	}
	return sum / weight
}

// Prevalence is the prevalence per 100,000 implied by Penetrance.
func (pr *Problem) Prevalence() float64 {
	return pr.Params.TotalCarrierFrequency() * pr.Penetrance()
}

// Loss is the sum of squared deviations from the targets.
func (pr *Problem) Loss() float64 {
	pen := pr.Penetrance()
	dp := pen - pr.Targets.Penetrance
	dv := pr.Params.TotalCarrierFrequency()*pen - pr.Targets.Prevalence
	return dp*dp + dv*dv
}
