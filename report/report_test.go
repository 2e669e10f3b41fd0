package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/Davydov/lhon/risk"
	"bitbucket.org/Davydov/lhon/tally"
)

func init() {
	logging.SetLevel(logging.WARNING, "report")
}

func sample() *Table {
	t := NewTable("penetrance", "Subgroup", "Penetrance", "N")
	t.Add(risk.M11778, tally.Of(0.25), 120)
	t.Add("Female_3460G>A", tally.NoData, 0)
	return t
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.5", Format(0.5))
	assert.Equal(t, "NA", Format(tally.NoData))
	assert.Equal(t, "11778G>A", Format(risk.M11778))
	assert.Equal(t, "true", Format(true))
	assert.Equal(t, "[1 2]", Format([]int{1, 2}))
}

func TestCSV(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.NoError(t, w.Save(sample()))

	got, err := ReadCSV(w.Path("penetrance.csv"))
	require.NoError(t, err)
	assert.Equal(t, sample(), got)

	r, err := got.Rate(0, "Penetrance")
	require.NoError(t, err)
	assert.Equal(t, tally.Of(0.25), r)
	r, err = got.Rate(1, "Penetrance")
	require.NoError(t, err)
	assert.False(t, r.Valid)
	_, err = got.Rate(0, "Missing")
	assert.Error(t, err)
}

func TestMissingInput(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "lhon_monte_carlo_results.csv"))
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestWorkbook(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Save(sample()))
	other := NewTable("a_rather_long_table_name_for_a_sheet", "x")
	other.Add(1.5)
	require.NoError(t, w.Save(other))
	require.NoError(t, w.Workbook("results.xlsx"))

	f, err := excelize.OpenFile(w.Path("results.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"penetrance", "a_rather_long_table_name_for_a_"}, f.GetSheetList())
	rows, err := f.GetRows("penetrance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Subgroup", "Penetrance", "N"}, rows[0])
	assert.Equal(t, "NA", rows[2][1])
	typ, err := f.GetCellType("penetrance", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}

func TestJSON(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.SaveJSON("summary", map[string]tally.Rate{"penetrance": tally.NoData}))
	b, err := os.ReadFile(w.Path("summary.json"))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "penetrance")
	assert.Nil(t, m["penetrance"])
}
