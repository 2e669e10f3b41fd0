package dist

import (
	"math"
	"testing"
)

const smallDiff = 1e-6

/*** Tests if a and b are approximately equal ***/
func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

/*** Tests that arrays have approximately same values ***/
func cmp(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !appreq(a[i], b[i]) {
			return false
		}
	}
	return true
}

/*** Tests that all values are equal and sum to 1 ***/
func alleq(r []float64) bool {
	if len(r) < 1 {
		return false
	}
	v := r[0]
	sum := v
	for i := 1; i < len(r); i++ {
		if !appreq(v, r[i]) {
			return false
		}
		sum += r[i]
	}
	return appreq(sum, 1)
}

func TestNormalize(tst *testing.T) {
	p, uniform := Normalize([]float64{2, 1, 1})
	if uniform || !cmp(p, []float64{0.5, 0.25, 0.25}) {
		tst.Error("Results missmatch:", p, uniform)
	}

	p, uniform = Normalize([]float64{0, 0, 0, 0})
	if !uniform || !alleq(p) {
		tst.Error("Zero weights should become uniform:", p)
	}

	p, _ = Normalize([]float64{-1, 3})
	if !cmp(p, []float64{0, 1}) {
		tst.Error("Negative weights should count as zero:", p)
	}
}

func TestChoose(tst *testing.T) {
	rng := New(1, 1)
	choose := func(w []float64) int {
		return NewCategorical(make([]string, len(w)), w).Choose(rng)
	}
	for i := 0; i < 1000; i++ {
		if k := choose([]float64{0, 5, 0}); k != 1 {
			tst.Fatal("Drawn a zero-weight state:", k)
		}
	}

	counts := make([]int, 3)
	n := 30000
	for i := 0; i < n; i++ {
		counts[choose([]float64{0.2, 0.3, 0.5})]++
	}
	for i, e := range []float64{0.2, 0.3, 0.5} {
		if f := float64(counts[i]) / float64(n); math.Abs(f-e) > 0.02 {
			tst.Error("Frequency missmatch:", i, f, e)
		}
	}

	counts = make([]int, 4)
	for i := 0; i < n; i++ {
		counts[choose([]float64{0, 0, 0, 0})]++
	}
	for i, c := range counts {
		if math.Abs(float64(c)/float64(n)-0.25) > 0.02 {
			tst.Error("Uniform fallback frequency missmatch:", i, c)
		}
	}
}

func TestCategorical(tst *testing.T) {
	w := []float64{1, 3}
	c := NewCategorical([]string{"a", "b"}, w)
	if c.Uniform || c.Len() != 2 || !cmp(c.Probabilities(), []float64{0.25, 0.75}) {
		tst.Error("Results missmatch:", c.Uniform, c.Probabilities())
	}
	c.Probabilities()[0] = 1
	if !cmp(c.Probabilities(), []float64{0.25, 0.75}) {
		tst.Error("Probabilities must be a copy")
	}
	if z := NewCategorical([]string{"a", "b"}, []float64{0, 0}); !z.Uniform || !alleq(z.Probabilities()) {
		tst.Error("Zero weights should become uniform:", z.Probabilities())
	}
	if l := NewCategorical([]string{"only"}, []float64{0}).Draw(New(1, 1)); l != "only" {
		tst.Error("Single label:", l)
	}
}

func TestReproducible(tst *testing.T) {
	c := NewCategorical([]string{"a", "b", "c"}, []float64{1, 1, 1})
	r1, r2 := Stream(42, 7), Stream(42, 7)
	for i := 0; i < 100; i++ {
		if a, b := c.Draw(r1), c.Draw(r2); a != b {
			tst.Fatal("Same stream gave different draws:", i, a, b)
		}
	}
}

func TestNormalCDF(tst *testing.T) {
	if !appreq(NormalCDF(0), 0.5) {
		tst.Error("Results missmatch:", NormalCDF(0))
	}
	if v := NormalCDF(1e6); v != 1 {
		tst.Error("Expected 1, got", v)
	}
	if v := NormalCDF(-1e6); v != 0 {
		tst.Error("Expected 0, got", v)
	}
	if !appreq(NormalCDF(1.959963984540054), 0.975) {
		tst.Error("Results missmatch:", NormalCDF(1.959963984540054))
	}
}

func TestDegenerate(tst *testing.T) {
	rng := New(3, 0)
	if Bernoulli(rng, 0) || !Bernoulli(rng, 1) {
		tst.Error("Bernoulli boundaries")
	}
	if v := Normal(rng, 25, 0); v != 25 {
		tst.Error("Zero sd normal:", v)
	}
	if v := Uniform(rng, 2, 2); v != 2 {
		tst.Error("Empty range uniform:", v)
	}
	if v := Gaussian(25, 25, 10); v != 1 {
		tst.Error("Gaussian at mean:", v)
	}
}
