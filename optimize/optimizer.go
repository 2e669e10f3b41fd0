// Package optimize implements bounded minimizers over named float
// parameters.
package optimize

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("optimize")

// maxTrace limits the number of stored evaluated points.
const maxTrace = 10000

// Optimizable is a loss function of its float parameters.
type Optimizable interface {
	GetFloatParameters() FloatParameters
	Loss() float64
	Copy() Optimizable
}

type Optimizer interface {
	SetOptimizable(Optimizable)
	WatchSignals(...os.Signal)
	SetReportPeriod(period int)
	SetTrajectoryOutput(io.Writer)
	Run(iterations int)
	Summary() Summary
	Trace() []Point
}

// Point is one evaluated parameter vector.
type Point struct {
	Values []float64 `json:"values"`
	Loss   float64   `json:"loss"`
}

// Summary is the outcome of an optimizer run.
type Summary struct {
	Method         string             `json:"method"`
	MinLoss        float64            `json:"minLoss"`
	Parameters     map[string]float64 `json:"parameters"`
	ParameterNames []string           `json:"parameterNames"`
	Iterations     int                `json:"iterations"`
	Evaluations    int                `json:"evaluations"`
	Converged      bool               `json:"converged"`
	Status         string             `json:"status"`
}

type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	method     string
	i          int
	calls      int
	minLoss    float64
	minLossPar []float64
	converged  bool
	status     string
	trace      []Point
	repPeriod  int
	sig        chan os.Signal
	stopped    bool
	out        io.Writer
	Quiet      bool
}

func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// SetTrajectoryOutput sets writer for the optimization trajectory.
func (o *BaseOptimizer) SetTrajectoryOutput(w io.Writer) {
	o.out = w
}

func (o *BaseOptimizer) init() {
	o.minLoss = math.Inf(+1)
	o.minLossPar = nil
	o.trace = nil
	o.calls = 0
	o.converged = false
	o.status = ""
	o.stopped = false
	if o.repPeriod <= 0 {
		o.repPeriod = 10
	}
}

// evaluate computes the loss for the current parameter values and
// remembers the best point.
func (o *BaseOptimizer) evaluate(opt Optimizable, par FloatParameters) float64 {
	l := opt.Loss()
	o.calls++
	o.record(par, l)
	return l
}

func (o *BaseOptimizer) record(par FloatParameters, l float64) {
	if len(o.trace) < maxTrace {
		o.trace = append(o.trace, Point{Values: par.Values(nil), Loss: l})
	}
	if l < o.minLoss {
		o.minLoss = l
		o.minLossPar = par.Values(o.minLossPar)
	}
}

// interrupted checks for a pending signal.
func (o *BaseOptimizer) interrupted() bool {
	if o.stopped {
		return true
	}
	select {
	case s := <-o.sig:
		log.Warningf("Received signal %v, stopping.", s)
		o.stopped = true
		o.status = "interrupted"
	default:
	}
	return o.stopped
}

func (o *BaseOptimizer) PrintHeader(par FloatParameters) {
	if !o.Quiet && o.out != nil {
		fmt.Fprintf(o.out, "iteration\tloss\t%s\n", par.NamesString())
	}
}

func (o *BaseOptimizer) PrintLine(par FloatParameters, l float64) {
	if !o.Quiet && o.out != nil {
		fmt.Fprintf(o.out, "%d\t%g\t%s\n", o.i, l, par.ValuesString())
	}
}

// PrintFinal logs the best parameter values.
func (o *BaseOptimizer) PrintFinal() {
	if o.Quiet {
		return
	}
	log.Noticef("Minimum loss: %v", o.minLoss)
	for i, name := range o.parameters.Names(nil) {
		if i < len(o.minLossPar) {
			log.Infof("%s=%v", name, o.minLossPar[i])
		}
	}
}

// Summary returns the run outcome. The Optimizable is left at the best
// parameter values found.
func (o *BaseOptimizer) Summary() Summary {
	s := Summary{
		Method:         o.method,
		MinLoss:        o.minLoss,
		ParameterNames: o.parameters.Names(nil),
		Parameters:     make(map[string]float64, len(o.parameters)),
		Iterations:     o.i,
		Evaluations:    o.calls,
		Converged:      o.converged,
		Status:         o.status,
	}
	for i, name := range s.ParameterNames {
		if i < len(o.minLossPar) {
			s.Parameters[name] = o.minLossPar[i]
		}
	}
	return s
}

// Trace returns evaluated points in evaluation order.
func (o *BaseOptimizer) Trace() []Point {
	return o.trace
}

// restoreBest sets parameters to the best values found.
func (o *BaseOptimizer) restoreBest() {
	if o.minLossPar != nil {
		o.parameters.SetValues(o.minLossPar)
	}
}
