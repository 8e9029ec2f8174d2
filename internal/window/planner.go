// Package window derives, for each calendar year of a correction period, the
// target window to be corrected and the historical window used to estimate
// the correction distribution (the CDF window), clamped to the bounds of the
// available raw series.
package window

import (
	"time"

	"bmorphcli/internal/series"
)

// Plan holds the windows planned for one calendar year.
type Plan struct {
	Year   int
	Target series.TimeWindow
	CDF    series.TimeWindow
}

// Yearly plans one entry per calendar year in the correction period, in
// ascending year order. The correction period spans the calendar years of
// the correction window's endpoints, inclusive. halfPeriod is the CDF
// half-period in years and bounds the first/last timestamps of the raw
// series.
//
// The CDF window for year y starts at Jan 1 of y-halfPeriod and stops at
// Dec 31 of y+halfPeriod, then is clamped to bounds by Clamp. Downstream
// concatenation relies on consecutive target windows partitioning the period
// with no overlap and no gap, so plans must be consumed in the order
// returned.
func Yearly(correction series.TimeWindow, halfPeriod int, bounds series.TimeWindow) []Plan {
	y0, y1 := correction.Start.Year(), correction.Stop.Year()
	plans := make([]Plan, 0, y1-y0+1)
	for y := y0; y <= y1; y++ {
		cdf := series.NewWindow(yearStart(y-halfPeriod), yearStop(y+halfPeriod))
		plans = append(plans, Plan{
			Year:   y,
			Target: series.NewWindow(yearStart(y), yearStop(y)),
			CDF:    Clamp(cdf, bounds),
		})
	}
	return plans
}

// Clamp fits w inside bounds by rigid shifts, preserving the window's span.
// If w starts before the bounds, the whole window is shifted forward so its
// start lands on the lower bound. Then, if the (possibly shifted) window
// stops after the bounds, the whole window is shifted backward so its stop
// lands on the upper bound. The two steps are applied in exactly that order.
// When the available span is shorter than the window both shifts apply in
// sequence and the result still extends outside the bounds; it is returned
// as-is and the correction kernel clips it to the available observations.
func Clamp(w, bounds series.TimeWindow) series.TimeWindow {
	if w.Start.Before(bounds.Start) {
		w = w.Shift(bounds.Start.Sub(w.Start))
	}
	if w.Stop.After(bounds.Stop) {
		w = w.Shift(-w.Stop.Sub(bounds.Stop))
	}
	return w
}

func yearStart(y int) time.Time {
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func yearStop(y int) time.Time {
	return time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
}
