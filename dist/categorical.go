package dist

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Normalize scales non-negative weights to sum to one. Negative
// weights count as zero. If nothing is left, the uniform distribution
// is returned and uniform is true.
func Normalize(w []float64) (p []float64, uniform bool) {
	p = make([]float64, len(w))
	sum := 0.0
	for _, v := range w {
		if v > 0 {
			sum += v
		}
	}
	if sum == 0 {
		for i := range p {
			p[i] = 1 / float64(len(p))
		}
		return p, true
	}
	for i, v := range w {
		if v > 0 {
			p[i] = v / sum
		}
	}
	return p, false
}

// Categorical is a labelled discrete distribution. Weights are
// normalized on creation.
type Categorical struct {
	Labels []string
	// Uniform is set if the weights summed to zero.
	Uniform bool
	p       []float64
}

// NewCategorical creates a distribution drawing labels[i] with
// probability proportional to weights[i]. Negative weights count as
// zero and zero-sum weights give the uniform distribution.
// NewCategorical panics if there are no labels or the lengths differ.
func NewCategorical(labels []string, weights []float64) *Categorical {
	if len(labels) == 0 {
		panic("dist: no states to choose from")
	}
	if len(labels) != len(weights) {
		panic("dist: number of labels and weights differ")
	}
	p, uniform := Normalize(weights)
	return &Categorical{Labels: labels, Uniform: uniform, p: p}
}

// Len returns the number of labels.
func (c *Categorical) Len() int {
	return len(c.p)
}

// Choose returns the index of a drawn label.
func (c *Categorical) Choose(rng *rand.Rand) int {
	if len(c.p) == 1 {
		return 0
	}
	return int(distuv.NewCategorical(c.p, rng).Rand())
}

// Draw returns a label drawn proportionally to its weight.
func (c *Categorical) Draw(rng *rand.Rand) string {
	return c.Labels[c.Choose(rng)]
}

// Probabilities returns a copy of the normalized weights.
func (c *Categorical) Probabilities() []float64 {
	return append([]float64(nil), c.p...)
}
