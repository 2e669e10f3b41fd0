package optimize

// None is an optimizer which computes initial value and exits.
type None struct {
	BaseOptimizer
}

// NewNone creates an optimizer which computes the initial loss only.
func NewNone() *None {
	return &None{BaseOptimizer: BaseOptimizer{method: "none"}}
}

// Run evaluates the starting point. The result is never marked as
// converged.
func (n *None) Run(iterations int) {
	n.init()
	n.PrintHeader(n.parameters)
	l := n.evaluate(n.Optimizable, n.parameters)
	n.PrintLine(n.parameters, l)
	n.status = "evaluation only"
}
