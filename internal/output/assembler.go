// Package output assembles and persists the corrected-series artifact:
// the original metadata block, correction provenance, a header row and the
// corrected values in date,streamflow form.
package output

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "bmorphcli/internal/errors"
	"bmorphcli/internal/series"
)

// Assembler writes output artifacts with a configured float format.
type Assembler struct {
	floatFormat string
}

// NewAssembler builds an assembler from a printf float spec without its
// leading "%" (e.g. ".3f").
func NewAssembler(floatSpec string) *Assembler {
	return &Assembler{floatFormat: "%" + floatSpec}
}

// Write persists the corrected series to path. The artifact consists of, in
// order: the original metadata lines, the provenance lines ("#"-prefixed),
// the date,streamflow header and one comma-separated row per timestamp. The
// destination directory is created if absent and an existing file at path is
// overwritten. This is the sole filesystem side effect of an orchestration
// pass.
func (a *Assembler) Write(path string, meta series.Metadata, corrected *series.TimeSeries, provenance []string) error {
	for _, line := range provenance {
		meta = meta.Append(line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create output directory for %s", path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create output file %s", path), err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range meta {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, "date,streamflow")
	rowFormat := "%s," + a.floatFormat + "\n"
	for i := 0; i < corrected.Len(); i++ {
		fmt.Fprintf(w, rowFormat, corrected.Time(i).Format(series.DateLayout), corrected.Value(i))
	}
	if err := w.Flush(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("write output file %s", path), err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("close output file %s", path), err)
	}

	slog.Debug("wrote corrected series",
		slog.String("path", path),
		slog.Int("rows", corrected.Len()))
	return nil
}
