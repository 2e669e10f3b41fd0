package network

import (
	"math"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/lhon/dist"
)

func init() {
	logging.SetLevel(logging.WARNING, "network")
}

// sprinkler is a small network with a table node, a rule node and a
// deliberately incomplete table.
func sprinkler(tb testing.TB) *Network {
	n, err := NewBuilder().
		Root("Cloudy", []string{"No", "Yes"}, []float64{0.5, 0.5}).
		Node("Rain", []string{"No", "Yes"}, "Cloudy").
		Entry("Rain", []string{"No"}, []float64{0.8, 0.2}).
		Entry("Rain", []string{"Yes"}, []float64{2, 8}).
		Node("Sprinkler", []string{"Off", "On"}, "Cloudy").
		Entry("Sprinkler", []string{"No"}, []float64{0.5, 0.5}).
		Node("Wet", []string{"No", "Yes"}, "Sprinkler", "Rain").
		Rule("Wet", func(p []string) []float64 {
			if p[0] == "On" || p[1] == "Yes" {
				return []float64{0, 1}
			}
			return []float64{1, 0}
		}).
		Node("Mood", []string{"Bad", "Fine", "Good"}, "Wet").
		Entry("Mood", []string{"No"}, []float64{0, 0, 0}).
		Build()
	require.NoError(tb, err)
	return n
}

func TestBuildErrors(t *testing.T) {
	_, err := NewBuilder().
		Node("A", []string{"x"}, "B").
		Node("B", []string{"x"}, "A").
		Build()
	assert.ErrorIs(t, err, ErrCycle)

	_, err = NewBuilder().Node("A", []string{"x"}, "A").Build()
	assert.ErrorIs(t, err, ErrCycle)

	_, err = NewBuilder().Node("A", []string{"x"}, "Missing").Build()
	assert.ErrorIs(t, err, ErrUnknownNode)

	_, err = NewBuilder().
		Root("A", []string{"x", "y"}, []float64{1, 1}).
		Root("A", []string{"x"}, []float64{1}).
		Build()
	assert.ErrorIs(t, err, ErrDuplicateNode)

	_, err = NewBuilder().Root("A", []string{"x", "y"}, []float64{1}).Build()
	assert.ErrorIs(t, err, ErrBadProbability)

	_, err = NewBuilder().Root("A", []string{"x", "y"}, []float64{1, -1}).Build()
	assert.ErrorIs(t, err, ErrBadProbability)

	_, err = NewBuilder().
		Root("A", []string{"x", "y"}, []float64{1, 1}).
		Node("B", []string{"u"}, "A").
		Entry("B", []string{"z"}, []float64{1}).
		Build()
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestOrder(t *testing.T) {
	n, err := NewBuilder().
		Node("C", []string{"x"}, "B").
		Node("B", []string{"x"}, "A").
		Root("A", []string{"x"}, []float64{1}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, n.Order())
	assert.Equal(t, []string{"C", "B", "A"}, n.Names())
}

func TestConditional(t *testing.T) {
	n := sprinkler(t)

	p, src, err := n.Conditional("Rain", "Yes")
	require.NoError(t, err)
	assert.Equal(t, FromTable, src)
	assert.InDeltaSlice(t, []float64{0.2, 0.8}, p, 1e-12)

	// missing key without a node default
	p, src, err = n.Conditional("Sprinkler", "Yes")
	require.NoError(t, err)
	assert.Equal(t, FromUniform, src)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, p, 1e-12)

	// all-zero entry becomes uniform
	p, src, err = n.Conditional("Mood", "No")
	require.NoError(t, err)
	assert.Equal(t, FromTable, src)
	assert.InDeltaSlice(t, []float64{1. / 3, 1. / 3, 1. / 3}, p, 1e-12)

	_, _, err = n.Conditional("Rain", "Maybe")
	assert.ErrorIs(t, err, ErrUnknownState)
	_, _, err = n.Conditional("Snow")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestFallback(t *testing.T) {
	n, err := NewBuilder().
		Root("A", []string{"x", "y"}, []float64{1, 1}).
		Node("B", []string{"u", "v"}, "A").
		Entry("B", []string{"x"}, []float64{1, 0}).
		Fallback("B", []float64{1, 3}).
		Build()
	require.NoError(t, err)

	p, src, err := n.Conditional("B", "y")
	require.NoError(t, err)
	assert.Equal(t, FromFallback, src)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, p, 1e-12)

	gaps := n.Coverage()
	require.Len(t, gaps, 1)
	assert.Equal(t, "B", gaps[0].Node)
	assert.Equal(t, []string{"y"}, gaps[0].Parents)
	assert.Equal(t, FromFallback, gaps[0].Lookup)
}

func TestCoverage(t *testing.T) {
	n := sprinkler(t)
	gaps := n.Coverage()
	// Sprinkler|Yes, Mood|Yes
	assert.Len(t, gaps, 2)
	for _, g := range gaps {
		assert.Equal(t, FromUniform, g.Lookup, g.String())
	}
}

func TestSampleValid(t *testing.T) {
	n := sprinkler(t)
	rng := dist.New(1, 0)
	for i := 0; i < 1000; i++ {
		s := n.Sample(rng)
		require.Len(t, s, n.Len())
		for col, v := range s {
			vr, err := n.Variable(n.Names()[col])
			require.NoError(t, err)
			assert.Less(t, int(v), len(vr.States))
		}
		if n.Label(s, 2) == "On" {
			assert.Equal(t, "Yes", n.Label(s, 3))
		}
	}
}

func TestSampleDataset(t *testing.T) {
	n := sprinkler(t)

	ds, err := n.SampleDataset(0, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())

	ds, err = n.SampleDataset(1, 1, 4)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Len(t, ds.Row(0), n.Len())

	_, err = n.SampleDataset(-1, 1, 4)
	assert.Error(t, err)
}

func TestReproducible(t *testing.T) {
	n := sprinkler(t)
	size := 3*ChunkSize + 17
	a, err := n.SampleDataset(size, 42, 1)
	require.NoError(t, err)
	b, err := n.SampleDataset(size, 42, 8)
	require.NoError(t, err)
	assert.Equal(t, a.Samples, b.Samples)

	c, err := n.SampleDataset(size, 43, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.Samples, c.Samples)
}

func TestRate(t *testing.T) {
	n := sprinkler(t)
	ds, err := n.SampleDataset(20000, 7, 0)
	require.NoError(t, err)

	r := ds.Rate(n.Eq("Cloudy", "Yes"), n.Eq("Rain", "Yes"))
	require.True(t, r.Valid)
	assert.InDelta(t, 0.8, r.Value, 0.02)

	r = ds.Rate(All, n.Eq("Cloudy", "Yes", "No"))
	assert.Equal(t, 1.0, r.Value)

	// Wet=No never happens together with Sprinkler=On
	empty := And(n.Eq("Sprinkler", "On"), n.Eq("Wet", "No"))
	assert.Equal(t, 0, ds.Count(empty))
	r = ds.Rate(empty, n.Eq("Rain", "Yes"))
	assert.False(t, r.Valid)
	assert.False(t, math.IsNaN(r.Value))

	assert.Equal(t, ds.Count(n.Ne("Cloudy", "Yes")), ds.Count(n.Eq("Cloudy", "No")))
	assert.Panics(t, func() { n.Eq("Snow", "Yes") })
}
