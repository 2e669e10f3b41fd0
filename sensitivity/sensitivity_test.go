package sensitivity

import (
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/lhon/liability"
	"bitbucket.org/Davydov/lhon/params"
	"bitbucket.org/Davydov/lhon/tally"
)

func init() {
	logging.SetLevel(logging.WARNING, "sensitivity")
}

func TestGrid(t *testing.T) {
	r := params.Range{Name: "threshold", Min: 1, Max: 4}
	assert.Equal(t, []float64{1, 2, 3, 4}, grid(r, 4))
	assert.Equal(t, []float64{1}, grid(r, 1))
	assert.Empty(t, grid(r, 0))
}

func TestFlatRange(t *testing.T) {
	base := params.Sensitivity()
	curves, err := OneAtATime(base, []params.Range{{Name: "threshold", Min: 2, Max: 2}}, 5)
	require.NoError(t, err)
	require.Len(t, curves, 1)
	c := curves[0]
	require.Len(t, c.Prevalence, 5)
	for _, v := range c.Prevalence {
		assert.Equal(t, c.Prevalence[0], v)
	}

	idx := Indices(base, curves)
	require.Len(t, idx, 1)
	assert.Equal(t, tally.Of(0), idx[0].Index)
	assert.Equal(t, tally.Of(0), idx[0].CV)
	assert.InDelta(t, liability.PopulationPrevalence(base), idx[0].Min, 1e-12)
}

func TestOneAtATime(t *testing.T) {
	base := params.Sensitivity()
	curves, err := OneAtATime(base, params.DefaultRanges(), DefaultPoints)
	require.NoError(t, err)
	require.Len(t, curves, len(params.DefaultRanges()))

	for _, c := range curves {
		require.Len(t, c.Values, DefaultPoints)
		assert.Equal(t, c.Range.Min, c.Values[0])
		assert.InDelta(t, c.Range.Max, c.Values[DefaultPoints-1], 1e-12)
		for i := range c.Values {
			assert.True(t, c.PenetranceMale[i] >= c.PenetranceFemale[i], c.Range.Name)
			assert.True(t, c.PenetranceMale[i] <= 100 && c.PenetranceFemale[i] >= 0)
		}
		if c.Range.Name == "threshold" {
			for i := 1; i < len(c.Prevalence); i++ {
				assert.Less(t, c.Prevalence[i], c.Prevalence[i-1])
			}
		}
	}
	// the base set is not modified
	assert.Equal(t, params.Sensitivity(), base)

	for _, in := range Indices(base, curves) {
		assert.True(t, in.Index.Valid)
		assert.GreaterOrEqual(t, in.Index.Value, 0.)
		assert.LessOrEqual(t, in.Min, in.Max)
	}
}

func TestEmptyRange(t *testing.T) {
	_, err := OneAtATime(params.Sensitivity(), []params.Range{{Name: "sigma", Min: 2, Max: 1}}, 3)
	assert.Error(t, err)
	_, err = OneAtATime(params.Sensitivity(), []params.Range{{Name: "nonsense", Min: 1, Max: 2}}, 3)
	assert.ErrorIs(t, err, params.ErrUnknownParameter)
}

// Without carriers the base prevalence is zero.
func TestZeroBase(t *testing.T) {
	base := params.Sensitivity()
	base.CarrierFrequency = params.PerMutation{}
	curves, err := OneAtATime(base, []params.Range{{Name: "carrier_frequency_11778", Min: 0, Max: 100}}, 3)
	require.NoError(t, err)
	idx := Indices(base, curves)
	assert.False(t, idx[0].Index.Valid)
	assert.True(t, idx[0].CV.Valid)
}

func TestRandom(t *testing.T) {
	base := params.Sensitivity()
	ranges := append(params.DefaultRanges(), params.Range{Name: "age_peak_effect", Min: 0.1, Max: 0.1})

	a, err := Random(base, ranges, 300, 7, 1)
	require.NoError(t, err)
	b, err := Random(base, ranges, 300, 7, 4)
	require.NoError(t, err)
	assert.Equal(t, a.Samples, b.Samples)
	assert.Equal(t, a.Values, b.Values)

	for i, r := range ranges {
		for _, v := range a.Samples[i] {
			assert.True(t, v >= r.Min && v <= r.Max)
		}
	}

	thr := a.Correlation("threshold", "prevalence")
	require.True(t, thr.Valid)
	assert.Less(t, thr.Value, 0.)
	base11778 := a.Correlation("base_liability_11778", "penetrance_male_11778")
	require.True(t, base11778.Valid)
	assert.Greater(t, base11778.Value, 0.)

	// a fixed parameter does not vary
	assert.False(t, a.Correlation("age_peak_effect", "prevalence").Valid)
	assert.False(t, a.Correlation("threshold", "nonsense").Valid)
}

func TestRandomEmpty(t *testing.T) {
	mc, err := Random(params.Sensitivity(), params.DefaultRanges(), 0, 1, 2)
	require.NoError(t, err)
	assert.False(t, mc.Correlations[0][0].Valid)
	_, err = Random(params.Sensitivity(), params.DefaultRanges(), -1, 1, 2)
	assert.Error(t, err)
}

func TestScenarios(t *testing.T) {
	res, err := Evaluate(params.Sensitivity(), Scenarios())
	require.NoError(t, err)
	require.Len(t, res, 3)
	byName := make(map[string]ScenarioResult)
	for _, r := range res {
		require.Len(t, r.Penetrance, len(KeyScenarios))
		byName[r.Name] = r
	}
	opt, pes, bc := byName["optimistic"], byName["pessimistic"], byName[BaseCase]
	assert.Greater(t, pes.Prevalence, bc.Prevalence)
	assert.Greater(t, bc.Prevalence, opt.Prevalence)
	assert.Equal(t, tally.Of(1), bc.Ratio)
	assert.InDelta(t, liability.PopulationPrevalence(params.Sensitivity()), bc.Prevalence, 1e-12)

	// heavy smokers above non-smokers, males above females
	assert.Greater(t, bc.Penetrance[2], bc.Penetrance[0])
	assert.Greater(t, bc.Penetrance[0], bc.Penetrance[1])

	_, err = Evaluate(params.Sensitivity(), []Scenario{{"bad", map[string]float64{"nonsense": 1}}})
	assert.ErrorIs(t, err, params.ErrUnknownParameter)
}
