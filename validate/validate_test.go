package validate

import (
	"math"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/lhon/tally"
)

func init() {
	logging.SetLevel(logging.WARNING, "validate")
}

func byName(r *Report) map[string]Check {
	m := make(map[string]Check)
	for _, c := range r.Checks {
		m[c.Name] = c
	}
	return m
}

func TestStatus(t *testing.T) {
	assert.Equal(t, Pass, RatioCheck("x", tally.Of(11), 10, 0.8, 1.2).Status)
	assert.Equal(t, Pass, RatioCheck("x", tally.Of(12), 10, 0.8, 1.2).Status)
	assert.Equal(t, Fail, RatioCheck("x", tally.Of(13), 10, 0.8, 1.2).Status)
	assert.Equal(t, NoData, RatioCheck("x", tally.NoData, 10, 0.8, 1.2).Status)
	assert.Equal(t, NoData, RatioCheck("x", tally.Of(1), 0, 0.8, 1.2).Status)

	c := RangeCheck("x", tally.Of(0.5), 1.87, 0.79, 3.23)
	assert.Equal(t, Fail, c.Status)
	assert.InDelta(t, 0.5/1.87, c.Ratio.Value, 1e-12)
	assert.Equal(t, Pass, RangeCheck("x", tally.Of(3.23), 1.87, 0.79, 3.23).Status)

	yes, no := true, false
	assert.Equal(t, Pass, FlagCheck("x", &yes).Status)
	assert.Equal(t, Fail, FlagCheck("x", &no).Status)
	assert.Equal(t, NoData, FlagCheck("x", nil).Status)
}

func TestNothingToValidate(t *testing.T) {
	e := DefaultEmpirical()
	r := Validate(&e, Inputs{})
	require.Len(t, r.Checks, 5)
	assert.Equal(t, 5, r.Count(NoData))
	// independent of model outputs
	assert.Len(t, r.Discrepancies, 3)
	assert.Len(t, r.Revised, 3)
	assert.InDelta(t, 109.89*0.011, r.Theoretical.Theoretical, 1e-9)
}

func TestValidate(t *testing.T) {
	e := DefaultEmpirical()
	ok := false
	r := Validate(&e, Inputs{
		CarrierFrequency: tally.Of(110),
		Prevalence:       tally.Of(5),
		Overall:          tally.Of(0.02),
		Male:             tally.Of(0.07),
		Female:           tally.Of(0.01),
		Calibrated:       &ok,
	})
	c := byName(r)
	assert.Equal(t, Pass, c["Carrier Frequencies"].Status)
	assert.InDelta(t, 110/109.89, c["Carrier Frequencies"].Ratio.Value, 1e-9)
	assert.Equal(t, Fail, c["Population Prevalence"].Status)
	assert.Equal(t, Pass, c["Overall Penetrance"].Status)
	assert.Equal(t, Pass, c["Sex Ratio"].Status)
	assert.InDelta(t, 7/7.11, c["Sex Ratio"].Ratio.Value, 1e-9)
	assert.Equal(t, Fail, c["Model Calibration"].Status)
	assert.Equal(t, 3, r.Count(Pass))
	assert.Equal(t, 2, r.Count(Fail))
}

func TestNoFemales(t *testing.T) {
	e := DefaultEmpirical()
	r := Validate(&e, Inputs{Male: tally.Of(0.1), Female: tally.Of(0)})
	assert.Equal(t, NoData, byName(r)["Sex Ratio"].Status)
}

func TestDiscrepancies(t *testing.T) {
	e := DefaultEmpirical()
	d := Discrepancies(&e)
	require.Len(t, d, 3)
	assert.Equal(t, "gnomAD_prevalence_mismatch", d[0].Type)
	assert.InDelta(t, 109.89*0.4/1.87, d[0].Ratio.Value, 1e-9)
	assert.False(t, d[1].Ratio.Valid)
	assert.Equal(t, 7.11, d[2].Observed.Value)
}

func TestRevisedEstimates(t *testing.T) {
	e := DefaultEmpirical()
	r := RevisedEstimates(&e)
	require.Len(t, r, 3)
	avg := (0.79 + 1.46 + 2.0 + 3.23) / 4
	assert.InDelta(t, avg*0.65, r[0].Prevalence, 1e-12)
	assert.InDelta(t, avg*0.65/42.54*100, r[0].Penetrance.Value, 1e-9)
	assert.Equal(t, 43., r[0].Literature)
	assert.InDelta(t, 43/r[0].Penetrance.Value, r[0].Ratio.Value, 1e-9)

	e.CarrierFrequencies.M3460 = 0
	r = RevisedEstimates(&e)
	assert.False(t, r[2].Penetrance.Valid)
	assert.False(t, r[2].Ratio.Valid)
	assert.False(t, math.IsInf(r[2].Prevalence, 0))

	e.Studies = nil
	r = RevisedEstimates(&e)
	assert.False(t, r[0].Penetrance.Valid)
}
