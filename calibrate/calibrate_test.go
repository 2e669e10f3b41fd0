package calibrate

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/lhon/checkpoint"
	"bitbucket.org/Davydov/lhon/params"
)

func init() {
	logging.SetLevel(logging.ERROR, "calibrate")
	logging.SetLevel(logging.WARNING, "optimize")
	logging.SetLevel(logging.WARNING, "checkpoint")
}

// synthetic returns targets reproduced exactly at threshold=3, sigma=1.
func synthetic(t *testing.T) Targets {
	p := params.Literature()
	p.Threshold, p.Sigma = 3, 1
	truth, err := NewProblem(p, Targets{}, DefaultFree())
	require.NoError(t, err)
	return Targets{Penetrance: truth.Penetrance(), Prevalence: truth.Prevalence()}
}

func TestLoss(t *testing.T) {
	pr, err := NewProblem(params.Literature(), DefaultTargets(), DefaultFree())
	require.NoError(t, err)
	pen := pr.Penetrance()
	assert.True(t, pen > 0 && pen < 1)
	assert.InDelta(t, 109.89*pen, pr.Prevalence(), 1e-9)
	want := (pen-0.011)*(pen-0.011) + (109.89*pen-1.87)*(109.89*pen-1.87)
	assert.InDelta(t, want, pr.Loss(), 1e-9)

	// the copy is independent
	c := pr.Copy().(*Problem)
	c.GetFloatParameters()[0].Set(4)
	assert.Equal(t, 2., pr.Params.Threshold)
	assert.Equal(t, 4., c.Params.Threshold)
}

func TestNewProblem(t *testing.T) {
	p := params.Literature()
	p.Threshold = 10
	pr, err := NewProblem(p, DefaultTargets(), DefaultFree())
	require.NoError(t, err)
	assert.Equal(t, 5., pr.Params.Threshold)
	assert.Equal(t, 10., p.Threshold)

	_, err = NewProblem(params.Literature(), DefaultTargets(), []params.Range{{Name: "nonsense"}})
	assert.ErrorIs(t, err, params.ErrUnknownParameter)

	p = params.Literature()
	p.CarrierFrequency = params.PerMutation{}
	_, err = NewProblem(p, DefaultTargets(), DefaultFree())
	assert.ErrorIs(t, err, ErrNoCarriers)
}

// With sigma fixed the optimum is unique.
func TestSyntheticThreshold(t *testing.T) {
	pr, err := NewProblem(params.Literature(), synthetic(t), DefaultFree()[:1])
	require.NoError(t, err)
	res, err := Calibrate(pr, DefaultSettings())
	require.NoError(t, err)
	assert.True(t, res.Success, res.Status)
	assert.InDelta(t, 3, res.Threshold, 1e-3)
	assert.Equal(t, 1., res.Sigma)
	assert.Less(t, res.Loss, 1e-6)
	assert.NotEmpty(t, res.Trace)
	assert.Equal(t, res.Threshold, res.Parameters["threshold"])
}

// Threshold and sigma together fit the two targets along a curve; any
// point on it has zero loss.
func TestSyntheticBoth(t *testing.T) {
	for _, method := range []string{"lbfgsb", "simplex"} {
		pr, err := NewProblem(params.Literature(), synthetic(t), DefaultFree())
		require.NoError(t, err)
		s := DefaultSettings()
		s.Method = method
		s.Iterations = 5000
		res, err := Calibrate(pr, s)
		require.NoError(t, err)
		assert.Less(t, res.Loss, 1e-6, method)
		assert.True(t, res.Threshold >= 0.5 && res.Threshold <= 5, method)
		assert.True(t, res.Sigma >= 0.1 && res.Sigma <= 3, method)
	}
}

func TestObservedTargets(t *testing.T) {
	pr, err := NewProblem(params.Literature(), DefaultTargets(), DefaultFree())
	require.NoError(t, err)
	start := pr.Loss()
	var traj bytes.Buffer
	s := DefaultSettings()
	s.Trajectory = &traj
	res, err := Calibrate(pr, s)
	require.NoError(t, err)
	assert.Less(t, res.Loss, start)
	assert.NotZero(t, traj.Len())
	t.Log("success=", res.Success, " threshold=", res.Threshold, " sigma=", res.Sigma, " loss=", res.Loss)
}

func TestEvaluationOnly(t *testing.T) {
	pr, err := NewProblem(params.Literature(), DefaultTargets(), DefaultFree())
	require.NoError(t, err)
	start := pr.Loss()
	s := DefaultSettings()
	s.Method = "none"
	res, err := Calibrate(pr, s)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "evaluation only", res.Status)
	assert.Equal(t, start, res.Loss)
	assert.Equal(t, 2., res.Threshold)
	assert.Len(t, res.Trace, 1)

	s.Method = "newton"
	_, err = Calibrate(pr, s)
	assert.Error(t, err)
}

func TestCheckpoint(t *testing.T) {
	db, err := checkpoint.Open(filepath.Join(t.TempDir(), "cal.db"))
	require.NoError(t, err)
	defer db.Close()

	targets := synthetic(t)
	pr, err := NewProblem(params.Literature(), targets, DefaultFree()[:1])
	require.NoError(t, err)
	s := DefaultSettings()
	key, err := checkpoint.Fingerprint("calibration")
	require.NoError(t, err)
	s.Checkpoint = checkpoint.NewCalibration(db, key, 0)
	res, err := Calibrate(pr, s)
	require.NoError(t, err)

	data, err := s.Checkpoint.Load()
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, res.Success, data.Final)
	assert.InDelta(t, res.Threshold, data.Parameters["threshold"], 1e-12)

	// a new run starts from the stored point
	pr, err = NewProblem(params.Literature(), targets, DefaultFree()[:1])
	require.NoError(t, err)
	s.Method = "none"
	again, err := Calibrate(pr, s)
	require.NoError(t, err)
	assert.InDelta(t, res.Threshold, again.Threshold, 1e-12)
	assert.InDelta(t, res.Loss, again.Loss, 1e-12)
}

func TestIterationLimit(t *testing.T) {
	for _, method := range []string{"lbfgsb", "bfgs", "simplex"} {
		pr, err := NewProblem(params.Literature(), DefaultTargets(), DefaultFree())
		require.NoError(t, err)
		s := DefaultSettings()
		s.Method = method
		s.Iterations = 1
		res, err := Calibrate(pr, s)
		require.NoError(t, err)
		assert.False(t, res.Success, method)
		assert.NotEmpty(t, res.Status, method)
		assert.True(t, res.Threshold >= 0.5 && res.Threshold <= 5, method)
		assert.True(t, res.Sigma >= 0.1 && res.Sigma <= 3, method)
	}
}

func TestSimplexDelta(t *testing.T) {
	pr, err := NewProblem(params.Literature(), DefaultTargets(), DefaultFree())
	require.NoError(t, err)
	s := DefaultSettings()
	s.Method = "simplex"
	s.Delta = 0.5
	s.Iterations = 5
	res, err := Calibrate(pr, s)
	require.NoError(t, err)
	require.True(t, len(res.Trace) >= 3)
	// the first simplex is the start and one step along each parameter
	assert.Equal(t, []float64{2, 1}, res.Trace[0].Values)
	assert.InDeltaSlice(t, []float64{2.5, 1}, res.Trace[1].Values, 1e-12)
	assert.InDeltaSlice(t, []float64{2, 1.5}, res.Trace[2].Values, 1e-12)
}
