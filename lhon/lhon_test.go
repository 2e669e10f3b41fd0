package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/lhon/checkpoint"
	"bitbucket.org/Davydov/lhon/report"
	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/simulate"
	"bitbucket.org/Davydov/lhon/validate"
)

func init() {
	for _, m := range modules {
		logging.SetLevel(logging.ERROR, m)
	}
}

func small(dir string) *analysisSettings {
	return &analysisSettings{
		seed:    7,
		threads: 2,
		outDir:  dir,

		samples:     3000,
		draws:       200,
		population:  5000,
		runs:        4,
		individuals: true,
		points:      3,
		trials:      30,

		method:     "lbfgsb",
		iterations: 200,
		report:     10,
	}
}

func TestAll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full run in short mode")
	}
	dir := t.TempDir()
	s := small(dir)
	s.xlsx = "results.xlsx"
	sum := &CallSummary{}
	require.NoError(t, run(allCmd.FullCommand(), s, sum))

	for _, name := range []string{
		samplesTable, penetranceTable, recoveryTable, parametersTable, liabilityTable,
		hierarchicalTable, revisedTable, runsTable, individualsTable, indicesTable,
		correlationsTable, scenariosTable, traceTable, checksTable,
		"real_carrier_prevalence", "real_sex_specific_analysis",
	} {
		assert.FileExists(t, filepath.Join(dir, name+".csv"))
	}
	assert.FileExists(t, filepath.Join(dir, "results.xlsx"))
	assert.FileExists(t, filepath.Join(dir, validationJSON+".json"))
	assert.FileExists(t, filepath.Join(dir, calibrationJSON+".json"))

	require.NotNil(t, sum.Network)
	require.NotNil(t, sum.Simulation)
	require.NotNil(t, sum.Calibration)
	require.NotNil(t, sum.Prevalence)
	require.NotNil(t, sum.Validation)
	assert.Len(t, sum.Validation.Checks, 5)
	assert.Equal(t, 4, sum.Simulation.Runs)

	runs, err := report.ReadCSV(filepath.Join(dir, runsTable+".csv"))
	require.NoError(t, err)
	assert.Len(t, runs.Rows, 4)

	// validation from saved tables agrees with the one in memory
	again := &CallSummary{}
	require.NoError(t, run(validateCmd.FullCommand(), small(dir), again))
	require.NotNil(t, again.Validation)
	for i, c := range sum.Validation.Checks {
		assert.Equal(t, c.Status, again.Validation.Checks[i].Status, c.Name)
	}
}

func TestValidateMissingInput(t *testing.T) {
	err := run(validateCmd.FullCommand(), small(t.TempDir()), &CallSummary{})
	assert.ErrorIs(t, err, report.ErrMissingInput)
}

func TestSubgroupRate(t *testing.T) {
	pen := report.NewTable(penetranceTable, "Subgroup", "Penetrance", "N")
	pen.Add("Overall", 0.02, 100)
	pen.Add("Male", 0.05, 50)

	r, err := subgroupRate(pen, "Male")
	require.NoError(t, err)
	assert.Equal(t, 0.05, r.Value)
	r, err = subgroupRate(pen, "Female")
	require.NoError(t, err)
	assert.False(t, r.Valid)

	in := validate.Inputs{Male: r}
	e := validate.DefaultEmpirical()
	assert.Equal(t, validate.NoData, validate.Validate(&e, in).Checks[3].Status)
}

func TestResumeSimulation(t *testing.T) {
	dir := t.TempDir()
	s := small(dir)
	s.checkpointF = filepath.Join(dir, "lhon.db")
	s.individuals = false

	first := &CallSummary{}
	require.NoError(t, run(simulateCmd.FullCommand(), s, first))
	require.FileExists(t, s.checkpointF)
	before, err := os.ReadFile(filepath.Join(dir, runsTable+".csv"))
	require.NoError(t, err)

	second := &CallSummary{}
	require.NoError(t, run(simulateCmd.FullCommand(), s, second))
	after, err := os.ReadFile(filepath.Join(dir, runsTable+".csv"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, first.Simulation.Fingerprint, second.Simulation.Fingerprint)
	assert.NotEmpty(t, first.Simulation.Fingerprint)
}

// alterRun changes a stored run so that a resumed simulation differs.
func alterRun(t *testing.T, path, fingerprint string) {
	db, err := checkpoint.Open(path)
	require.NoError(t, err)
	defer db.Close()
	r := checkpoint.NewRuns(db, uuid.MustParse(fingerprint))
	var run simulate.Run
	found, err := r.Load(1, func(int) any { return &run })
	require.NoError(t, err)
	require.Equal(t, []int{0}, found)
	run.Carriers++
	require.NoError(t, r.Put(0, run))
}

func TestRestartSimulation(t *testing.T) {
	dir := t.TempDir()
	s := small(dir)
	s.checkpointF = filepath.Join(dir, "lhon.db")
	s.individuals = false
	runs := filepath.Join(dir, runsTable+".csv")

	first := &CallSummary{}
	require.NoError(t, run(simulateCmd.FullCommand(), s, first))
	fresh, err := os.ReadFile(runs)
	require.NoError(t, err)

	alterRun(t, s.checkpointF, first.Simulation.Fingerprint)
	require.NoError(t, run(simulateCmd.FullCommand(), s, &CallSummary{}))
	resumed, err := os.ReadFile(runs)
	require.NoError(t, err)
	assert.NotEqual(t, string(fresh), string(resumed))

	s.restart = true
	require.NoError(t, run(simulateCmd.FullCommand(), s, &CallSummary{}))
	again, err := os.ReadFile(runs)
	require.NoError(t, err)
	assert.Equal(t, string(fresh), string(again))
}

func TestParameters(t *testing.T) {
	s := small(t.TempDir())
	p, ranges, err := s.parameters(calibratedPreset)
	require.NoError(t, err)
	assert.Equal(t, calibratedPreset, p.Name)
	assert.Nil(t, ranges)

	s.preset = literaturePreset
	p, _, err = s.parameters(calibratedPreset)
	require.NoError(t, err)
	assert.Equal(t, literaturePreset, p.Name)

	f := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(f, []byte("overrides:\n  threshold: 4.5\nranges:\n  - {name: sigma, min: 0.5, max: 2}\n"), 0644))
	s.paramsF = f
	p, ranges, err = s.parameters(calibratedPreset)
	require.NoError(t, err)
	assert.Equal(t, 4.5, p.Threshold)
	require.Len(t, ranges, 1)
	assert.Equal(t, "sigma", ranges[0].Name)

	s.paramsF = ""
	s.preset = "nonsense"
	_, _, err = s.parameters(calibratedPreset)
	assert.Error(t, err)
}

func TestIndividualsTable(t *testing.T) {
	tb := individualsTableOf([]simulate.Individual{
		{ID: 1, Mutation: risk.M11778, Sex: risk.Male, Haplogroup: risk.HaploOther},
		{ID: 2, Mutation: risk.M14484, Sex: risk.Female, Haplogroup: risk.HaploNonJ},
		{ID: 3, Mutation: risk.M11778, Sex: risk.Male, Haplogroup: risk.HaploJ},
	})
	sex, hap := tb.Column("sex"), tb.Column("haplogroup")
	require.True(t, sex >= 0 && hap >= 0)
	var got [][2]string
	for _, row := range tb.Rows {
		got = append(got, [2]string{row[sex], row[hap]})
	}
	assert.Equal(t, [][2]string{{"male", "other"}, {"female", "non_J"}, {"male", "J"}}, got)
}
