package optimize

import (
	"math"

	opt "gonum.org/v1/gonum/optimize"
)

// BFGS wraps gonum BFGS. Bounds are enforced by an infinite loss
// outside of the box.
type BFGS struct {
	BaseOptimizer
	dH float64
}

func NewBFGS() (b *BFGS) {
	b = &BFGS{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
			method:    "bfgs",
		},
		dH: 1e-6,
	}
	return
}

func (b *BFGS) Func(x []float64) float64 {
	if b.interrupted() || !b.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}

	b.parameters.SetValues(x)
	l := b.evaluate(b.Optimizable, b.parameters)
	b.PrintLine(b.parameters, l)
	return l
}

func (b *BFGS) Grad(grad, x []float64) {
	for i := range x {
		lo := math.Max(x[i]-b.dH, b.parameters[i].GetMin())
		hi := math.Min(x[i]+b.dH, b.parameters[i].GetMax())
		if hi <= lo {
			grad[i] = 0
			continue
		}
		no := b.Optimizable.Copy()
		par := no.GetFloatParameters()
		par.SetValues(x)
		par[i].Set(lo)
		l1 := no.Loss()
		par[i].Set(hi)
		l2 := no.Loss()
		b.calls += 2
		grad[i] = (l2 - l1) / (hi - lo)
	}
}

func (b *BFGS) Run(iterations int) {
	b.init()
	if len(b.parameters) == 0 {
		b.status = ErrNoParameters.Error()
		return
	}
	b.PrintHeader(b.parameters)

	p := opt.Problem{
		Func: b.Func,
		Grad: b.Grad,
	}

	settings := &opt.Settings{
		MajorIterations:   iterations,
		GradientThreshold: 1e-9,
		Converger: &opt.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 20,
		},
	}

	res, err := opt.Minimize(p, b.parameters.Values(nil), settings, &opt.BFGS{})
	if res != nil {
		b.i = res.Stats.MajorIterations
		b.status = res.Status.String()
		switch res.Status {
		case opt.Success, opt.FunctionConvergence, opt.GradientThreshold,
			opt.FunctionThreshold, opt.StepConvergence, opt.MethodConverge:
			b.converged = err == nil && !b.stopped
		}
	}
	if err != nil {
		log.Warning("BFGS error:", err)
		b.status = err.Error()
	}

	b.restoreBest()
	log.Info("Finished BFGS")
	log.Infof("Loss function calls: %v", b.calls)
	b.PrintFinal()
}
