// Package table reads source extracts into raw rows and writes canonical
// tables as delimited files.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gamecat/pkg/cell"
)

// ErrMissingColumn is returned when a canonical table lacks a required column
var ErrMissingColumn = errors.New("missing column")

// Table is a parsed delimited file
type Table struct {
	Columns []string
	Rows    []cell.Row
}

// ReadFile opens and parses a CSV file. A missing file surfaces as an error
// matching fs.ErrNotExist.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV with a header row. Header names are trimmed, empty cells
// become Absent and short rows are padded with Absent. Invalid UTF-8 is
// replaced with U+FFFD so every written table is valid text.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(strings.ToValidUTF8(h, "\uFFFD"))
	}

	t := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.Rows)+1, err)
		}

		row := make(cell.Row, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i >= len(record) || record[i] == "" {
				row[col] = cell.Absent()
				continue
			}
			row[col] = cell.Text(strings.ToValidUTF8(record[i], "\uFFFD"))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Require checks that every named column is present in the header
func (t *Table) Require(columns ...string) error {
	have := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		have[c] = struct{}{}
	}
	var missing []string
	for _, c := range columns {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// WriteFile writes a header and rows, creating parent directories. The file
// is written to a temporary name and renamed into place.
func WriteFile(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := Write(f, header, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Write encodes a header and rows as CSV
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
