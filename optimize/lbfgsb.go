package optimize

import (
	"fmt"
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB is a bounded limited-memory BFGS with numerical gradient.
type LBFGSB struct {
	BaseOptimizer
	dH    float64
	grad  []float64
	limit int
}

func NewLBFGSB() (l *LBFGSB) {
	l = &LBFGSB{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
			method:    "lbfgsb",
		},
		dH: 1e-6,
	}
	return
}

// Logger is called after every iteration. Once the iteration limit is
// reached the run is stopped: further evaluations return +Inf and a
// zero gradient, which makes the minimizer exit.
func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	if l.i%l.repPeriod == 0 {
		log.Debugf("%d: loss=%g", l.i, info.F)
	}
	l.parameters.SetValues(info.X)
	l.PrintLine(l.parameters, info.F)
	if l.limit > 0 && l.i >= l.limit && !l.stopped {
		log.Warningf("Iterations exceeded (%d)", l.limit)
		l.stopped = true
		l.status = "iteration limit"
	}
}

func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if l.interrupted() || !l.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}

	l.parameters.SetValues(x)
	return l.evaluate(l.Optimizable, l.parameters)
}

// EvaluateGradient computes the central difference gradient. Near a
// bound a one-sided difference is used.
func (l *LBFGSB) EvaluateGradient(x []float64) (grad []float64) {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	grad = l.grad
	if l.interrupted() {
		for i := range grad {
			grad[i] = 0
		}
		return
	}
	for i := range x {
		lo := math.Max(x[i]-l.dH, l.parameters[i].GetMin())
		hi := math.Min(x[i]+l.dH, l.parameters[i].GetMax())
		if hi <= lo {
			grad[i] = 0
			continue
		}

		no := l.Optimizable.Copy()
		par := no.GetFloatParameters()
		par.SetValues(x)
		par[i].Set(lo)
		l1 := no.Loss()
		par[i].Set(hi)
		l2 := no.Loss()
		l.calls += 2

		grad[i] = (l2 - l1) / (hi - lo)
	}
	return
}

// Run minimizes the loss for at most iterations iterations (no limit if
// iterations <= 0). A run stopped by the limit is not converged.
func (l *LBFGSB) Run(iterations int) {
	l.init()
	l.limit = iterations
	if len(l.parameters) == 0 {
		l.status = ErrNoParameters.Error()
		return
	}
	l.PrintHeader(l.parameters)
	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-12)
	opt.SetGTolerance(1e-9)

	opt.SetBounds(l.parameters.Bounds())
	opt.SetLogger(l.Logger)

	_, exitStatus := opt.Minimize(l, l.parameters.Values(nil))

	log.Info("Exit status: ", exitStatus)
	l.converged = !l.stopped && exitStatus.Code == lbfgsb.SUCCESS
	if l.status == "" {
		l.status = fmt.Sprint(exitStatus)
	}

	l.restoreBest()
	log.Info("Finished LBFGSB")
	log.Infof("Loss function calls: %v", l.calls)
	l.PrintFinal()
}
