// Package bias implements the statistical correction kernel: an
// equal-quantile multiplicative mapping estimated over a historical CDF
// window, and a long-term mean-ratio rescale calibrated on a reference
// record.
package bias

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "bmorphcli/internal/errors"
	"bmorphcli/internal/series"
)

// minFlow floors quantile denominators so dry-season zeros cannot blow up
// the multiplier.
const minFlow = 1e-12

// QuantileMapper is the production correction kernel.
type QuantileMapper struct{}

// CorrectSegment bias-corrects the slice of raw inside targetWin. The raw
// values inside cdfWin characterize the simulated distribution for the
// target year; ref and train sliced to trainWin give the observed and
// modeled training distributions. Each target value x at probability u under
// the simulated CDF is mapped to x * Qobs(u)/Qsim(u). The sorted samples are
// smoothed with an nSmooth-wide centered rolling mean before quantile
// lookup. Windows wider than the available observations are clipped to the
// series bounds here, not by the caller.
func (QuantileMapper) CorrectSegment(raw *series.TimeSeries, cdfWin, targetWin series.TimeWindow,
	ref, train *series.TimeSeries, trainWin series.TimeWindow, nSmooth int) (*series.TimeSeries, error) {

	if nSmooth <= 0 {
		return nil, apperrors.NewProcessingError(fmt.Sprintf("invalid smoothing width %d", nSmooth), nil)
	}
	hist, err := sortedSample(raw, cdfWin, nSmooth)
	if err != nil {
		return nil, apperrors.NewProcessingError("cdf window sample", err)
	}
	obs, err := sortedSample(ref, trainWin, nSmooth)
	if err != nil {
		return nil, apperrors.NewProcessingError("reference training sample", err)
	}
	sim, err := sortedSample(train, trainWin, nSmooth)
	if err != nil {
		return nil, apperrors.NewProcessingError("training sample", err)
	}

	target, err := raw.Slice(targetWin)
	if err != nil {
		return nil, apperrors.NewProcessingError("target window", err)
	}

	out := make([]float64, target.Len())
	for i := range out {
		x := target.Value(i)
		u := stat.CDF(x, stat.Empirical, hist, nil)
		qobs := stat.Quantile(u, stat.Empirical, obs, nil)
		qsim := stat.Quantile(u, stat.Empirical, sim, nil)
		if qsim < minFlow {
			qsim = minFlow
		}
		out[i] = x * qobs / qsim
	}
	return series.New(target.Times(), out)
}

// MeanRescale applies the long-term adjustment over the corrected series.
// Each corrected value is scaled by refMean/trainMean modulated by the ratio
// of nSmooth-wide rolling means of the raw and corrected series, so the
// low-frequency signal follows the raw record while the corrected series
// keeps the day-to-day structure produced by the quantile mapping. fullWin
// is the span of the raw series; the rolling raw means are computed over it
// and matched to the corrected series by timestamp.
func (QuantileMapper) MeanRescale(raw, corrected *series.TimeSeries, fullWin series.TimeWindow,
	refMean, trainMean float64, nSmooth int) (*series.TimeSeries, error) {

	if nSmooth <= 0 {
		return nil, apperrors.NewProcessingError(fmt.Sprintf("invalid smoothing width %d", nSmooth), nil)
	}
	if trainMean < minFlow {
		return nil, apperrors.NewProcessingError(
			fmt.Sprintf("training mean %g too small for mean rescale", trainMean), nil)
	}

	rawSub, err := raw.Slice(fullWin)
	if err != nil {
		return nil, apperrors.NewProcessingError("full raw window", err)
	}

	ratio := refMean / trainMean
	rollRaw := rollingMean(rawSub.Values(), nSmooth)
	rollCorr := rollingMean(corrected.Values(), nSmooth)

	out := make([]float64, corrected.Len())
	for i := range out {
		j, ok := rawSub.IndexOf(corrected.Time(i))
		if !ok {
			return nil, apperrors.NewProcessingError(
				fmt.Sprintf("corrected timestamp %s missing from raw series",
					corrected.Time(i).Format(series.DateLayout)), nil)
		}
		rc := rollCorr[i]
		if rc < minFlow {
			rc = minFlow
		}
		out[i] = corrected.Value(i) * ratio * rollRaw[j] / rc
	}
	return series.New(corrected.Times(), out)
}

// sortedSample extracts the values of s inside w, sorts them and smooths the
// sorted sample with a centered rolling mean. The result is non-decreasing,
// as the empirical CDF and quantile lookups require.
func sortedSample(s *series.TimeSeries, w series.TimeWindow, nSmooth int) ([]float64, error) {
	sub, err := s.Slice(w)
	if err != nil {
		return nil, err
	}
	vals := sub.Values()
	sort.Float64s(vals)
	return rollingMean(vals, nSmooth), nil
}

// rollingMean returns the centered rolling mean of vals with window width n.
// The window is clipped at the edges. n=1 returns a copy.
func rollingMean(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	h := n / 2
	for i := range vals {
		lo, hi := i-h, i+h
		if lo < 0 {
			lo = 0
		}
		if hi > len(vals)-1 {
			hi = len(vals) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
