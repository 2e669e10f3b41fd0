package optimize

import (
	"math"
	"testing"

	"github.com/op/go-logging"
)

const smallDiff = 1e-4

func init() {
	logging.SetLevel(logging.WARNING, "optimize")
}

// quadratic has the minimum at (1, -2) when unconstrained.
type quadratic struct {
	x, y float64
	pars FloatParameters
	xmin float64
}

func newQuadratic(x, y, xmin float64) *quadratic {
	q := &quadratic{x: x, y: y, xmin: xmin}
	q.pars.Append(NewBoundedFloatParameter(&q.x, "x", xmin, 5))
	q.pars.Append(NewBoundedFloatParameter(&q.y, "y", -5, 5))
	return q
}

func (q *quadratic) GetFloatParameters() FloatParameters {
	return q.pars
}

func (q *quadratic) Loss() float64 {
	return (q.x-1)*(q.x-1) + 10*(q.y+2)*(q.y+2)
}

func (q *quadratic) Copy() Optimizable {
	return newQuadratic(q.x, q.y, q.xmin)
}

func checkOptimizer(tst *testing.T, o Optimizer, xmin, ex, ey float64) {
	q := newQuadratic(3, 3, xmin)
	o.SetOptimizable(q)
	o.Run(5000)
	s := o.Summary()
	if !s.Converged {
		tst.Error("Optimizer did not converge:", s.Method, s.Status)
	}
	if math.Abs(q.x-ex) > smallDiff || math.Abs(q.y-ey) > smallDiff {
		tst.Error("Results missmatch:", s.Method, q.x, q.y, "expected", ex, ey)
	}
	if math.Abs(s.Parameters["x"]-q.x) > 1e-12 {
		tst.Error("Summary does not match the optimizable:", s.Parameters, q.x)
	}
	if len(o.Trace()) == 0 || s.Evaluations == 0 {
		tst.Error("No evaluations recorded")
	}
}

func TestLBFGSB(tst *testing.T) {
	checkOptimizer(tst, NewLBFGSB(), -5, 1, -2)
	checkOptimizer(tst, NewLBFGSB(), 2, 2, -2)
}

func TestBFGS(tst *testing.T) {
	checkOptimizer(tst, NewBFGS(), -5, 1, -2)
}

func TestSimplex(tst *testing.T) {
	checkOptimizer(tst, NewDS(), -5, 1, -2)
}

func TestNone(tst *testing.T) {
	q := newQuadratic(1, -2, -5)
	n := NewNone()
	n.SetOptimizable(q)
	n.Run(100)
	s := n.Summary()
	if s.Converged {
		tst.Error("Evaluation only run must not be marked as converged")
	}
	if s.MinLoss != 0 || s.Evaluations != 1 {
		tst.Error("Results missmatch:", s.MinLoss, s.Evaluations)
	}
}

func TestNoParameters(tst *testing.T) {
	q := newQuadratic(1, 1, -5)
	q.pars = nil
	ds := NewDS()
	ds.SetOptimizable(q)
	ds.Run(10)
	if s := ds.Summary(); s.Converged || s.Status != ErrNoParameters.Error() {
		tst.Error("Expected failure without parameters:", s)
	}
}

func TestIterationLimit(tst *testing.T) {
	for _, o := range []Optimizer{NewLBFGSB(), NewBFGS(), NewDS()} {
		q := newQuadratic(3, 3, -5)
		o.SetOptimizable(q)
		o.Run(1)
		s := o.Summary()
		if s.Converged {
			tst.Error("Run stopped by the iteration limit marked as converged:", s.Method, s.Status)
		}
		if s.Iterations > 2 {
			tst.Error("Iteration limit ignored:", s.Method, s.Iterations)
		}
		if !q.pars.InRange() || s.MinLoss > q.Loss()+1e-12 {
			tst.Error("Best point not restored:", s.Method, q.x, q.y, s.MinLoss)
		}
	}
}

func TestSetDelta(tst *testing.T) {
	q := newQuadratic(3, 3, -5)
	ds := NewDS()
	ds.SetDelta(1)
	ds.SetOptimizable(q)
	ds.Run(3)
	tr := ds.Trace()
	if len(tr) < 3 || math.Abs(tr[1].Values[0]-4) > 1e-12 || math.Abs(tr[2].Values[1]-4) > 1e-12 {
		tst.Error("Initial simplex does not use delta:", tr)
	}
}
