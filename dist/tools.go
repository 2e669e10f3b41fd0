// Package dist implements the random draws and distribution functions
// used by the models.
//
// Every draw takes an explicit *rand.Rand, so a fixed seed reproduces a
// run exactly. Parallel workers obtain independent streams with Stream.
package dist

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// New creates a generator for a given seed and stream number.
func New(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// Stream creates a generator for the i-th independent unit of work
// (sample chunk, simulation run, sensitivity trial). The result does not
// depend on which worker processes the unit.
func Stream(seed uint64, i int) *rand.Rand {
	return New(seed, uint64(i)+1)
}

// Seed converts a command-line seed into a generator seed; negative
// values produce a time-based seed.
func Seed(seed int64) int64 {
	if seed < 0 {
		return time.Now().UnixNano()
	}
	return seed
}

// NormalCDF returns standard normal cumulative probability clamped to
// [0, 1].
func NormalCDF(x float64) float64 {
	return Clamp01(distuv.UnitNormal.CDF(x))
}

// Clamp01 clamps p into [0, 1]. NaN is returned unchanged.
func Clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Gaussian returns the unnormalized gaussian bump exp(-(x-mu)^2/(2 sd^2)).
func Gaussian(x, mu, sd float64) float64 {
	if sd <= 0 {
		if x == mu {
			return 1
		}
		return 0
	}
	d := x - mu
	return math.Exp(-d * d / (2 * sd * sd))
}

// Bernoulli returns true with probability p.
func Bernoulli(rng *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return distuv.Bernoulli{P: p, Src: rng}.Rand() == 1
}

// Normal draws from N(mu, sd^2).
func Normal(rng *rand.Rand, mu, sd float64) float64 {
	if sd <= 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sd, Src: rng}.Rand()
}

// Uniform draws from U(lo, hi).
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return distuv.Uniform{Min: lo, Max: hi, Src: rng}.Rand()
}

// Beta draws from Beta(a, b).
func Beta(rng *rand.Rand, a, b float64) float64 {
	return distuv.Beta{Alpha: a, Beta: b, Src: rng}.Rand()
}

// LogNormal draws exp(N(mu, sd^2)).
func LogNormal(rng *rand.Rand, mu, sd float64) float64 {
	if sd <= 0 {
		return math.Exp(mu)
	}
	return distuv.LogNormal{Mu: mu, Sigma: sd, Src: rng}.Rand()
}
