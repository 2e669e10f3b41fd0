package params

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/lhon/risk"
)

func TestRegistryCoversNames(t *testing.T) {
	s := Default()
	names := Names()
	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate name %s", n)
		seen[n] = true
		_, err := s.Get(n)
		assert.NoError(t, err, n)
	}
	assert.Len(t, s.Values(), len(names))
}

func TestUnknownParameter(t *testing.T) {
	s := Default()
	err := s.SetValue("no_such_parameter", 1)
	assert.True(t, errors.Is(err, ErrUnknownParameter))
	_, err = s.With(map[string]float64{"threshold": 3, "bogus": 1})
	assert.ErrorIs(t, err, ErrUnknownParameter)
}

func TestCloneIsIndependent(t *testing.T) {
	s := Literature()
	c, err := s.With(map[string]float64{"threshold": 3.5, "base_liability_3460": 0})
	require.NoError(t, err)
	c.HaplogroupEffects[0].LogOR = 100

	assert.Equal(t, 2.0, s.Threshold)
	assert.Equal(t, 1.8, s.BaseLiability.M3460)
	assert.Equal(t, 3.5, c.Threshold)
	assert.Equal(t, 0.0, c.BaseLiability.Get(risk.M3460))
	assert.InDelta(t, math.Log(1.31), s.HaplogroupEffects[0].LogOR, 1e-12)
}

func TestPresets(t *testing.T) {
	c := Calibrated()
	assert.Equal(t, 5.0, c.Threshold)
	assert.Equal(t, 1.33, c.Sigma)
	assert.InDelta(t, math.Log(1.8), c.HaplogroupJ14484Effect, 1e-12)
	assert.InDelta(t, 109.89, c.TotalCarrierFrequency(), 1e-9)

	s := Sensitivity()
	assert.Equal(t, -0.5, s.BaseLiability.M14484)

	e, ok := c.HaplogroupEffect(risk.M14484, risk.HaploNonJ)
	assert.True(t, ok)
	assert.InDelta(t, math.Log(0.037), e, 1e-12)
	_, ok = c.HaplogroupEffect(risk.M3460, risk.HaploJ)
	assert.False(t, ok)
}

func TestFloatParameters(t *testing.T) {
	s := Sensitivity()
	pars, err := s.FloatParameters(DefaultRanges())
	require.NoError(t, err)
	require.Len(t, pars, 10)

	pars[5].Set(3.0)
	assert.Equal(t, "threshold", pars[5].Name())
	assert.Equal(t, 3.0, s.Threshold)
	assert.Equal(t, 1.0, pars[5].GetMin())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`preset: literature
overrides:
  threshold: 2.5
  carrier_frequency_3460: 2
ranges:
  - {name: sigma, min: 0.5, max: 1.5}
`), 0644))

	s, ranges, err := Load(fn, Default())
	require.NoError(t, err)
	assert.Equal(t, "literature", s.Name)
	assert.Equal(t, 2.5, s.Threshold)
	assert.Equal(t, 2.0, s.CarrierFrequency.M3460)
	assert.Equal(t, []Range{{"sigma", 0.5, 1.5}}, ranges)

	s, ranges, err = Load(filepath.Join(dir, "absent.yaml"), Default())
	require.NoError(t, err)
	assert.Nil(t, ranges)
	assert.Equal(t, 5.0, s.Threshold)

	require.NoError(t, os.WriteFile(fn, []byte("overrides: {thresh: 1}\n"), 0644))
	_, _, err = Load(fn, Default())
	assert.ErrorIs(t, err, ErrUnknownParameter)
}
