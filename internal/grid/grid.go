// Package grid enumerates the site grid: the Cartesian product of site,
// hydrologic model, parameter set, climate scenario, downscaling method and
// GCM identifiers configured for a batch run.
package grid

import (
	"iter"
	"log/slog"
	"strings"
)

// Selection identifies a single correction run: one value per grid
// dimension. Selections are immutable; a fresh value is yielded for every
// combination.
type Selection struct {
	Site         string
	HydroModel   string
	ParameterSet string
	Scenario     string
	Downscaling  string
	GCM          string
}

// LogValue implements slog.LogValuer so a selection logs as one group.
func (s Selection) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("site", s.Site),
		slog.String("hydro_model", s.HydroModel),
		slog.String("parameter_set", s.ParameterSet),
		slog.String("scenario", s.Scenario),
		slog.String("downscaling", s.Downscaling),
		slog.String("gcm", s.GCM),
	)
}

// Resolve substitutes the selection's values into a path template. The
// template placeholders are {site}, {model}, {params}, {scenario},
// {downscaling} and {gcm}; a template need not use all of them (reference
// paths typically depend on the site alone).
func (s Selection) Resolve(template string) string {
	return strings.NewReplacer(
		"{site}", s.Site,
		"{model}", s.HydroModel,
		"{params}", s.ParameterSet,
		"{scenario}", s.Scenario,
		"{downscaling}", s.Downscaling,
		"{gcm}", s.GCM,
	).Replace(template)
}

// Grid holds the ordered values of the six site dimensions.
type Grid struct {
	Sites         []string
	HydroModels   []string
	ParameterSets []string
	Scenarios     []string
	Downscalings  []string
	GCMs          []string
}

// Size returns the number of combinations the grid enumerates.
func (g Grid) Size() int {
	return len(g.Sites) * len(g.HydroModels) * len(g.ParameterSets) *
		len(g.Scenarios) * len(g.Downscalings) * len(g.GCMs)
}

// All yields every combination in the declared dimension order: site
// outermost, GCM innermost. The sequence is restartable and has no side
// effects. Duplicate configured values yield duplicate combinations;
// the grid reflects the configuration verbatim.
func (g Grid) All() iter.Seq[Selection] {
	return func(yield func(Selection) bool) {
		for _, site := range g.Sites {
			for _, model := range g.HydroModels {
				for _, params := range g.ParameterSets {
					for _, scenario := range g.Scenarios {
						for _, downscaling := range g.Downscalings {
							for _, gcm := range g.GCMs {
								sel := Selection{
									Site:         site,
									HydroModel:   model,
									ParameterSet: params,
									Scenario:     scenario,
									Downscaling:  downscaling,
									GCM:          gcm,
								}
								if !yield(sel) {
									return
								}
							}
						}
					}
				}
			}
		}
	}
}
