package series

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "bmorphcli/internal/errors"
)

// DateLayout is the timestamp format used in all text artifacts.
const DateLayout = "2006-01-02"

// xlsxDateLayouts are the formats accepted from spreadsheet cells, which
// render dates differently depending on the workbook's locale.
var xlsxDateLayouts = []string{DateLayout, "01/02/2006", "1/2/2006", "01-02-06"}

// Metadata is the opaque block of leading "#"-prefixed lines carried from an
// input artifact. It is append-only: provenance lines are added before output
// but existing lines are never rewritten.
type Metadata []string

// Append returns the metadata extended with a new "#"-prefixed line.
func (m Metadata) Append(line string) Metadata {
	if !strings.HasPrefix(line, "#") {
		line = "# " + line
	}
	out := make(Metadata, 0, len(m)+1)
	out = append(out, m...)
	return append(out, line)
}

// ReadFile loads a raw-model artifact: leading "#" metadata lines, an
// optional "date,streamflow" header, then comma-separated date/value rows.
func ReadFile(path string) (*TimeSeries, Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("series file %s", path), err)
		}
		return nil, nil, apperrors.NewStorageError(fmt.Sprintf("open series file %s", path), err)
	}
	defer f.Close()

	slog.Debug("reading series file", slog.String("path", path))

	var (
		meta   Metadata
		times  []time.Time
		values []float64
	)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			meta = append(meta, line)
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "date") {
			continue
		}
		t, v, err := parseRow(line)
		if err != nil {
			return nil, nil, apperrors.NewParsingError(fmt.Sprintf("%s line %d", path, lineNo), err)
		}
		times = append(times, t)
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, apperrors.NewStorageError(fmt.Sprintf("read series file %s", path), err)
	}

	ts, err := New(times, values)
	if err != nil {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("series file %s", path), err)
	}
	return ts, meta, nil
}

// ReadReference loads a reference ("true") record. CSV artifacts use the
// same format as raw-model files; .xlsx workbooks are read from their first
// sheet with a date column and a value column.
func ReadReference(path string) (*TimeSeries, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readWorkbook(path)
	}
	ts, _, err := ReadFile(path)
	return ts, err
}

func parseRow(line string) (time.Time, float64, error) {
	fields := strings.SplitN(line, ",", 3)
	if len(fields) < 2 {
		return time.Time{}, 0, fmt.Errorf("expected date,value row, got %q", line)
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(fields[0]))
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("bad date %q: %w", fields[0], err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("bad value %q: %w", fields[1], err)
	}
	return t, v, nil
}

func readWorkbook(path string) (*TimeSeries, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open workbook %s", path), err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read sheet %q of %s", sheet, path), err)
	}

	slog.Debug("reading reference workbook",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	var (
		times  []time.Time
		values []float64
	)
	for i, row := range rows {
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		t, ok := parseCellDate(row[0])
		if !ok {
			if i == 0 {
				continue // header row
			}
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("%s row %d", path, i+1), fmt.Errorf("bad date cell %q", row[0]))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("%s row %d", path, i+1), fmt.Errorf("bad value cell %q", row[1]))
		}
		times = append(times, t)
		values = append(values, v)
	}

	ts, err := New(times, values)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s", path), err)
	}
	return ts, nil
}

func parseCellDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	for _, layout := range xlsxDateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
