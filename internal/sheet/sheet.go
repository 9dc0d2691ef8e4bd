// Package sheet wraps the excelize primitives shared by every stage:
// tabular sheet writing with sized columns, tolerant row reading and
// the 31 character tab name limit.
package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxNameLen is the hard Excel limit on sheet tab names.
const MaxNameLen = 31

// Table is an in-memory sheet: a header row plus data rows. Row cells
// may be nil to leave the cell empty.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Append adds one data row.
func (t *Table) Append(row ...any) {
	t.Rows = append(t.Rows, row)
}

// SafeName builds a tab name of the form prefix+base+suffix, replacing
// characters Excel rejects and truncating base so the result fits in
// MaxNameLen while keeping prefix and suffix intact.
func SafeName(prefix, base, suffix string) string {
	base = strings.NewReplacer("/", "-", "\\", "-", "*", "-", "?", "-", "[", "(", "]", ")", ":", "-").Replace(base)
	max := MaxNameLen - len([]rune(prefix)) - len([]rune(suffix))
	if max < 0 {
		max = 0
	}
	if r := []rune(base); len(r) > max {
		base = string(r[:max])
	}
	return prefix + base + suffix
}

// Write adds the table to the workbook as a new sheet and sizes the
// columns to fit the longest value.
func Write(f *excelize.File, t Table) error {
	if _, err := f.NewSheet(t.Name); err != nil {
		return fmt.Errorf("creating sheet %q: %w", t.Name, err)
	}
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(t.Name, cell, h); err != nil {
			return err
		}
		widths[i] = len([]rune(h))
	}
	for r, row := range t.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(t.Name, cell, v); err != nil {
				return err
			}
			if c < len(widths) {
				if l := len([]rune(fmt.Sprint(v))); l > widths[c] {
					widths[c] = l
				}
			}
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(w + 2)
		if width > 100 {
			width = 100
		}
		if err := f.SetColWidth(t.Name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// ReadRows returns the header row and data rows of a sheet. Data rows
// are padded to the header length because excelize trims trailing
// empty cells.
func ReadRows(f *excelize.File, name string) ([]string, [][]string, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	headers := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < len(headers) {
			row = append(row, "")
		}
		data = append(data, row)
	}
	return headers, data, nil
}

// RowMap zips a data row with the header row.
func RowMap(headers []string, row []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			m[h] = row[i]
		} else {
			m[h] = ""
		}
	}
	return m
}

// SaveAtomic writes the workbook to a temporary file in the target
// directory and renames it into place, so readers never see a partial
// file.
func SaveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
