package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/animerec/internal/models"
)

var (
	// ErrMissingColumn is returned when the dataset header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedFormat is returned for dataset files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	// ErrEmptyDataset is returned when the dataset has no header row.
	ErrEmptyDataset = errors.New("dataset has no header row")
)

// ReadOptions configures dataset reading.
type ReadOptions struct {
	// Sheet selects the worksheet for .xlsx files; empty means the first sheet.
	Sheet string
}

// ReadFile reads raw rows from a .csv or .xlsx dataset.
func ReadFile(path string, opts ReadOptions) ([]models.RawRow, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		if ext == ".tsv" {
			return readDelimited(f, '\t')
		}
		return ReadCSV(f)
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open Excel: %w", err)
		}
		defer f.Close()
		return readWorkbook(f, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV reads raw rows from comma-separated data with a header row.
func ReadCSV(r io.Reader) ([]models.RawRow, error) {
	return readDelimited(r, ',')
}

// ReadXLSX reads raw rows from an Excel workbook held in r.
func ReadXLSX(r io.Reader, sheet string) ([]models.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, sheet)
}

func readDelimited(r io.Reader, comma rune) ([]models.RawRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []models.RawRow
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rows = append(rows, toRawRow(columns, record, line))
	}
	return rows, nil
}

func readWorkbook(f *excelize.File, sheet string) ([]models.RawRow, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyDataset
		}
		sheet = sheets[0]
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	columns, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}
	rows := make([]models.RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		rows = append(rows, toRawRow(columns, record, i+2))
	}
	return rows, nil
}

// headerIndex maps normalized column names to positions and checks the schema.
func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[h]; !dup && h != "" {
			columns[h] = i
		}
	}
	var missing []string
	for _, c := range models.RequiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, nil
}

func toRawRow(columns map[string]int, record []string, line int) models.RawRow {
	fields := make(map[string]string, len(columns))
	for name, i := range columns {
		if i < len(record) {
			fields[name] = record[i]
		}
	}
	return models.RawRow{Line: line, Fields: fields}
}
