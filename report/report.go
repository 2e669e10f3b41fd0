// Package report writes result tables as CSV, XLSX workbooks and JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/op/go-logging"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/Davydov/lhon/tally"
)

var log = logging.MustGetLogger("report")

// ErrMissingInput is returned when a required input file does not
// exist.
var ErrMissingInput = errors.New("missing input file")

// Table is a named table of formatted cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// NewTable creates an empty table.
func NewTable(name string, header ...string) *Table {
	return &Table{Name: name, Header: header}
}

// Format converts a cell value to text. Undefined rates become NA.
func Format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case tally.Rate:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Add appends a row.
func (t *Table) Add(cells ...any) {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = Format(c)
	}
	t.Rows = append(t.Rows, row)
}

// Column returns the index of a column or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Rate parses a cell as a rate.
func (t *Table) Rate(row int, column string) (tally.Rate, error) {
	c := t.Column(column)
	if c < 0 || row >= len(t.Rows) || c >= len(t.Rows[row]) {
		return tally.NoData, fmt.Errorf("table %s: no cell %s in row %d", t.Name, column, row)
	}
	return tally.ParseRate(t.Rows[row][c])
}

// WriteCSV writes the header and all rows.
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}
	return f.Close()
}

// ReadCSV reads a table written by WriteCSV. The table is named after
// the file.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	t := &Table{Name: name[:len(name)-len(filepath.Ext(name))]}
	if len(records) > 0 {
		t.Header, t.Rows = records[0], records[1:]
	}
	return t, nil
}

// sheetName shortens a table name to the workbook limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

// WriteXLSX writes every table to its own sheet. Numeric cells are
// stored as numbers.
func WriteXLSX(path string, tables []*Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		for c, h := range t.Header {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return err
			}
		}
		for r, row := range t.Rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				var val any = v
				if x, err := strconv.ParseFloat(v, 64); err == nil {
					val = x
				}
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					return err
				}
			}
		}
	}
	return f.SaveAs(path)
}

// WriteJSON writes v indented.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0644)
}

// Writer saves tables into a directory and remembers them for a final
// workbook.
type Writer struct {
	Dir    string
	tables []*Table
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Writer{Dir: dir}, nil
}

// Path returns the path of a file in the output directory.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Save writes t as <Dir>/<Name>.csv.
func (w *Writer) Save(t *Table) error {
	path := w.Path(t.Name + ".csv")
	if err := WriteCSV(path, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Infof("Saved %s (%d rows)", path, len(t.Rows))
	w.tables = append(w.tables, t)
	return nil
}

// SaveJSON writes v as <Dir>/<name>.json.
func (w *Writer) SaveJSON(name string, v any) error {
	path := w.Path(name + ".json")
	if err := WriteJSON(path, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Infof("Saved %s", path)
	return nil
}

// Tables returns all saved tables.
func (w *Writer) Tables() []*Table {
	return w.tables
}

// Workbook writes all saved tables to one XLSX file.
func (w *Writer) Workbook(name string) error {
	path := w.Path(name)
	if err := WriteXLSX(path, w.tables); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Noticef("Saved workbook %s (%d sheets)", path, len(w.tables))
	return nil
}
