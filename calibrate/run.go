package calibrate

import (
	"fmt"
	"io"
	"math"
	"os"
	"syscall"

	"bitbucket.org/Davydov/lhon/checkpoint"
	"bitbucket.org/Davydov/lhon/optimize"
)

// Settings control the optimizer.
type Settings struct {
	// Method is one of lbfgsb, bfgs, simplex or none.
	Method       string
	Iterations   int
	ReportPeriod int
	// Delta is the initial simplex size of the simplex method; zero
	// keeps the optimizer default.
	Delta float64
	// Trajectory receives one line per iteration, if set.
	Trajectory io.Writer
	// Checkpoint stores the best point found so far and the final
	// result; nil disables checkpointing.
	Checkpoint *checkpoint.Calibration
	// WatchSignals stops the optimizer on SIGINT/SIGTERM.
	WatchSignals bool
}

// DefaultSettings uses L-BFGS-B.
func DefaultSettings() Settings {
	return Settings{Method: "lbfgsb", Iterations: 1000, ReportPeriod: 10}
}

// Methods lists the supported optimizers.
var Methods = []string{"lbfgsb", "bfgs", "simplex", "none"}

// NewOptimizer creates an optimizer by name.
func NewOptimizer(method string) (optimize.Optimizer, error) {
	switch method {
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "bfgs":
		return optimize.NewBFGS(), nil
	case "simplex":
		return optimize.NewDS(), nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("unknown optimizer: %q", method)
}

// Result is the outcome of a calibration. A failed calibration still
// reports the best point found and the evaluated trace.
type Result struct {
	Success    bool               `json:"success"`
	Method     string             `json:"method"`
	Status     string             `json:"status"`
	Threshold  float64            `json:"threshold"`
	Sigma      float64            `json:"sigma"`
	Parameters map[string]float64 `json:"parameters"`
	// Loss is the final objective value.
	Loss        float64          `json:"error"`
	Penetrance  float64          `json:"penetrance"`
	Prevalence  float64          `json:"prevalence"`
	Iterations  int              `json:"iterations"`
	Evaluations int              `json:"evaluations"`
	Trace       []optimize.Point `json:"-"`
}

// best keeps the lowest loss seen by any copy of the problem and saves
// it to the checkpoint from time to time.
type best struct {
	cp     *checkpoint.Calibration
	loss   float64
	values map[string]float64
	evals  int
}

func (b *best) observe(pars optimize.FloatParameters, l float64) {
	b.evals++
	if l < b.loss {
		b.loss = l
		b.values = pars.Map()
	}
	if b.cp != nil && b.values != nil && b.cp.Due() {
		b.save(false)
	}
}

func (b *best) save(final bool) {
	if b.cp == nil {
		return
	}
	// errors are logged by the checkpoint
	_ = b.cp.Save(&checkpoint.State{
		Parameters:  b.values,
		Loss:        b.loss,
		Evaluations: b.evals,
		Final:       final,
	})
}

type tracked struct {
	*Problem
	b *best
}

func (t tracked) Loss() float64 {
	l := t.Problem.Loss()
	t.b.observe(t.pars, l)
	return l
}

func (t tracked) Copy() optimize.Optimizable {
	return tracked{t.Problem.Copy().(*Problem), t.b}
}

// restore moves the starting point to a checkpointed one.
func (pr *Problem) restore(cp *checkpoint.Calibration) error {
	if cp == nil {
		return nil
	}
	data, err := cp.Load()
	if err != nil || data == nil {
		return err
	}
	for _, par := range pr.pars {
		if v, ok := data.Parameters[par.Name()]; ok && par.ValueInRange(v) {
			par.Set(v)
		}
	}
	log.Noticef("Starting from checkpoint: %v", pr.pars.Map())
	return nil
}

// Calibrate minimizes the loss of pr. The parameters of pr are left at
// the best values found.
func Calibrate(pr *Problem, s Settings) (*Result, error) {
	o, err := NewOptimizer(s.Method)
	if err != nil {
		return nil, err
	}
	if err := pr.restore(s.Checkpoint); err != nil {
		return nil, fmt.Errorf("read calibration checkpoint: %w", err)
	}

	b := &best{cp: s.Checkpoint, loss: math.Inf(+1)}
	o.SetOptimizable(tracked{pr, b})
	o.SetReportPeriod(s.ReportPeriod)
	if ds, ok := o.(*optimize.DS); ok && s.Delta > 0 {
		ds.SetDelta(s.Delta)
	}
	if s.Trajectory != nil {
		o.SetTrajectoryOutput(s.Trajectory)
	}
	if s.WatchSignals {
		o.WatchSignals(os.Interrupt, syscall.SIGTERM)
	}
	o.Run(s.Iterations)

	sum := o.Summary()
	res := &Result{
		Success:     sum.Converged,
		Method:      sum.Method,
		Status:      sum.Status,
		Threshold:   pr.Params.Threshold,
		Sigma:       pr.Params.Sigma,
		Parameters:  pr.pars.Map(),
		Loss:        pr.Loss(),
		Penetrance:  pr.Penetrance(),
		Prevalence:  pr.Prevalence(),
		Iterations:  sum.Iterations,
		Evaluations: sum.Evaluations,
		Trace:       o.Trace(),
	}
	b.values, b.loss = res.Parameters, res.Loss
	b.save(res.Success)

	if res.Success {
		log.Noticef("Calibration converged: threshold=%.3f, sigma=%.3f, loss=%g", res.Threshold, res.Sigma, res.Loss)
	} else {
		log.Warningf("Calibration did not converge (%s): loss=%g at %v", res.Status, res.Loss, res.Parameters)
	}
	return res, nil
}
