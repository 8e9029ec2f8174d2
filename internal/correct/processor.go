// Package correct orchestrates one bias-correction pass per grid selection:
// loading the raw and reference series, planning per-year windows, invoking
// the correction kernel year by year and applying the long-term mean rescale
// before the artifact is written.
package correct

import (
	"context"
	"fmt"
	"log/slog"

	"bmorphcli/internal/config"
	apperrors "bmorphcli/internal/errors"
	"bmorphcli/internal/grid"
	"bmorphcli/internal/output"
	"bmorphcli/internal/series"
	"bmorphcli/internal/window"
)

// Kernel is the statistical correction step. The orchestrator treats it as
// opaque: windows are planned here, the distributional transform happens
// behind this interface.
type Kernel interface {
	CorrectSegment(raw *series.TimeSeries, cdfWin, targetWin series.TimeWindow,
		ref, train *series.TimeSeries, trainWin series.TimeWindow, nSmooth int) (*series.TimeSeries, error)
	MeanRescale(raw, corrected *series.TimeSeries, fullWin series.TimeWindow,
		refMean, trainMean float64, nSmooth int) (*series.TimeSeries, error)
}

// Outcome reports how a selection was handled.
type Outcome int

const (
	// OutcomeCorrected means the corrected artifact was written.
	OutcomeCorrected Outcome = iota
	// OutcomeSkipped means the selection had no raw input file. Absent
	// inputs for unused grid combinations are expected, not exceptional.
	OutcomeSkipped
	// OutcomeFailed means the selection aborted with an error.
	OutcomeFailed
)

// Processor runs the correction for single selections. It is stateless
// across selections; every pass owns its series exclusively.
type Processor struct {
	settings *config.Settings
	kernel   Kernel
	writer   *output.Assembler
	logger   *slog.Logger
}

// NewProcessor wires a processor from the run settings and a kernel.
func NewProcessor(settings *config.Settings, kernel Kernel, logger *slog.Logger) *Processor {
	return &Processor{
		settings: settings,
		kernel:   kernel,
		writer:   output.NewAssembler(settings.IO.FloatFormat),
		logger:   logger,
	}
}

// Process corrects one grid selection. A missing raw input file completes as
// OutcomeSkipped with no filesystem writes; every other failure propagates
// and aborts the batch.
func (p *Processor) Process(ctx context.Context, sel grid.Selection) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}

	rawPath := sel.Resolve(p.settings.IO.RawTemplate)
	p.logger.DebugContext(ctx, "reading raw series", slog.String("path", rawPath))
	raw, meta, err := series.ReadFile(rawPath)
	if apperrors.IsNotFound(err) {
		p.logger.InfoContext(ctx, "raw input absent, skipping selection",
			slog.Any("selection", sel),
			slog.String("path", rawPath))
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load raw series: %w", err)
	}

	refPath := sel.Resolve(p.settings.IO.ReferenceTemplate)
	p.logger.DebugContext(ctx, "reading reference series", slog.String("path", refPath))
	ref, err := series.ReadReference(refPath)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load reference series: %w", err)
	}

	corrected, err := p.correct(raw, ref)
	if err != nil {
		return OutcomeFailed, err
	}

	outPath := sel.Resolve(p.settings.IO.OutputTemplate)
	provenance := []string{
		fmt.Sprintf("bias corrected with %s %s", config.AppName, config.AppVersion),
		fmt.Sprintf("correction configuration: %s", p.settings.ConfigPath),
	}
	if err := p.writer.Write(outPath, meta, corrected, provenance); err != nil {
		return OutcomeFailed, fmt.Errorf("write corrected series: %w", err)
	}

	p.logger.InfoContext(ctx, "corrected selection",
		slog.Any("selection", sel),
		slog.String("output", outPath),
		slog.Int("rows", corrected.Len()))
	return OutcomeCorrected, nil
}

// correct runs the per-year quantile mapping and the long-term mean rescale.
func (p *Processor) correct(raw, ref *series.TimeSeries) (*series.TimeSeries, error) {
	cfg := p.settings.Bmorph
	bounds := raw.Bounds()
	train := raw.Clone()

	plans := window.Yearly(cfg.BmorphWindow, cfg.CDFHalfPeriod, bounds)
	segments := make([]*series.TimeSeries, 0, len(plans))
	for _, plan := range plans {
		seg, err := p.kernel.CorrectSegment(raw, plan.CDF, plan.Target,
			ref, train, cfg.TrainingWindow, cfg.NSmoothShort)
		if err != nil {
			return nil, fmt.Errorf("correct year %d: %w", plan.Year, err)
		}
		segments = append(segments, seg)
	}

	corrected, err := series.Concat(segments...)
	if err != nil {
		return nil, apperrors.NewProcessingError("concatenate yearly segments", err)
	}

	refMean, err := ref.Mean(cfg.ReferenceWindow)
	if err != nil {
		return nil, apperrors.NewProcessingError("reference window mean", err)
	}
	trainMean, err := train.Mean(cfg.ReferenceWindow)
	if err != nil {
		return nil, apperrors.NewProcessingError("training window mean", err)
	}

	final, err := p.kernel.MeanRescale(raw, corrected, bounds, refMean, trainMean, cfg.NSmoothLong)
	if err != nil {
		return nil, fmt.Errorf("mean rescale: %w", err)
	}
	return final, nil
}
