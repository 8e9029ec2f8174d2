// Package config builds the typed, validated Settings record the batch run
// shares read-only across all grid selections. The configuration file is
// ini-style with case-sensitive keys; the optional [logging] section can be
// overridden from BMORPH_LOG_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/ini.v1"

	apperrors "bmorphcli/internal/errors"
	"bmorphcli/internal/series"
)

// Settings is the complete run configuration, built once at startup and
// never mutated afterwards.
type Settings struct {
	SiteInfo SiteInfo
	Bmorph   BmorphConfig
	IO       IOConfig
	Logging  LoggingConfig

	// ConfigPath is the absolute path of the loaded configuration file,
	// recorded in every output artifact's provenance block.
	ConfigPath string
}

// SiteInfo holds the six ordered site-grid dimensions. Order is preserved
// from the configuration file and determines enumeration order.
type SiteInfo struct {
	Sites         []string `validate:"required,min=1"`
	HydroModels   []string `validate:"required,min=1"`
	ParameterSets []string `validate:"required,min=1"`
	Scenarios     []string `validate:"required,min=1"`
	Downscalings  []string `validate:"required,min=1"`
	GCMs          []string `validate:"required,min=1"`
}

// BmorphConfig holds the correction parameters: the three named time
// windows, the two smoothing widths and the CDF half-period in years.
type BmorphConfig struct {
	TrainingWindow  series.TimeWindow
	BmorphWindow    series.TimeWindow
	ReferenceWindow series.TimeWindow
	NSmoothShort    int `validate:"gt=0"`
	NSmoothLong     int `validate:"gt=0"`
	CDFHalfPeriod   int `validate:"gte=0"`
}

// IOConfig holds the path templates and the output number format.
type IOConfig struct {
	RawTemplate       string `validate:"required"`
	ReferenceTemplate string `validate:"required"`
	OutputTemplate    string `validate:"required"`

	// FloatFormat is a printf floating-point spec without the leading "%",
	// e.g. ".3f".
	FloatFormat string `validate:"required"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level   string `envconfig:"LEVEL" default:"info"`
	Format  string `envconfig:"FORMAT" default:"text"`
	Output  string `envconfig:"OUTPUT" default:"console"`
	LogFile string `envconfig:"FILE"`
}

// Load reads, parses and validates the configuration file at path. Any
// failure is a fatal configuration error: nothing has been processed yet and
// the run must not start.
func Load(path string) (*Settings, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("resolve config path %s", path), err)
	}

	file, err := ini.Load(abs)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("load config file %s", abs), err)
	}

	s := &Settings{ConfigPath: abs}
	if err := s.loadSiteInfo(file); err != nil {
		return nil, err
	}
	if err := s.loadBmorph(file); err != nil {
		return nil, err
	}
	if err := s.loadIO(file); err != nil {
		return nil, err
	}
	if err := s.loadLogging(file); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Grid dimension keys in the [siteinfo] section, in declared order.
var siteInfoKeys = []string{"sites", "hydro_models", "parameter_sets", "scenarios", "downscalings", "gcms"}

func (s *Settings) loadSiteInfo(file *ini.File) error {
	sec, err := section(file, SectionSiteInfo)
	if err != nil {
		return err
	}
	dims := make([][]string, len(siteInfoKeys))
	for i, key := range siteInfoKeys {
		dims[i] = splitList(sec.Key(key).String())
	}
	s.SiteInfo = SiteInfo{
		Sites:         dims[0],
		HydroModels:   dims[1],
		ParameterSets: dims[2],
		Scenarios:     dims[3],
		Downscalings:  dims[4],
		GCMs:          dims[5],
	}
	return nil
}

func (s *Settings) loadBmorph(file *ini.File) error {
	sec, err := section(file, SectionBmorph)
	if err != nil {
		return err
	}

	for _, w := range []struct {
		key string
		dst *series.TimeWindow
	}{
		{"training_window", &s.Bmorph.TrainingWindow},
		{"bmorph_window", &s.Bmorph.BmorphWindow},
		{"reference_window", &s.Bmorph.ReferenceWindow},
	} {
		win, err := parseWindow(w.key, sec.Key(w.key).String())
		if err != nil {
			return err
		}
		*w.dst = win
	}

	for _, n := range []struct {
		key string
		dst *int
	}{
		{"n_smooth_short", &s.Bmorph.NSmoothShort},
		{"n_smooth_long", &s.Bmorph.NSmoothLong},
		{"cdf_half_period", &s.Bmorph.CDFHalfPeriod},
	} {
		v, err := sec.Key(n.key).Int()
		if err != nil {
			return apperrors.NewConfigError(fmt.Sprintf("%s must be an integer", n.key), err)
		}
		*n.dst = v
	}
	return nil
}

func (s *Settings) loadIO(file *ini.File) error {
	sec, err := section(file, SectionIO)
	if err != nil {
		return err
	}
	s.IO = IOConfig{
		RawTemplate:       sec.Key("raw_template").String(),
		ReferenceTemplate: sec.Key("reference_template").String(),
		OutputTemplate:    sec.Key("output_template").String(),
		FloatFormat:       sec.Key("float_format").String(),
	}
	return nil
}

func (s *Settings) loadLogging(file *ini.File) error {
	// Defaults and environment first, then the optional [logging] section.
	if err := envconfig.Process(EnvPrefix, &s.Logging); err != nil {
		return apperrors.NewConfigError("logging environment overrides", err)
	}
	if sec, err := file.GetSection(SectionLogging); err == nil {
		if v := sec.Key("level").String(); v != "" {
			s.Logging.Level = v
		}
		if v := sec.Key("format").String(); v != "" {
			s.Logging.Format = v
		}
		if v := sec.Key("output").String(); v != "" {
			s.Logging.Output = v
		}
		if v := sec.Key("file").String(); v != "" {
			s.Logging.LogFile = v
		}
	}
	return nil
}

func (s *Settings) validate() error {
	v := validator.New()
	if err := v.Struct(s); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
		}
		return apperrors.NewConfigError(
			fmt.Sprintf("invalid settings: %s", strings.Join(fields, ", ")), err)
	}

	for _, w := range []struct {
		name string
		win  series.TimeWindow
	}{
		{"training_window", s.Bmorph.TrainingWindow},
		{"bmorph_window", s.Bmorph.BmorphWindow},
		{"reference_window", s.Bmorph.ReferenceWindow},
	} {
		if !w.win.Valid() {
			return apperrors.NewConfigError(
				fmt.Sprintf("%s start %s must be earlier than stop %s",
					w.name, w.win.Start.Format(series.DateLayout), w.win.Stop.Format(series.DateLayout)), nil)
		}
	}
	return nil
}

func section(file *ini.File, name string) (*ini.Section, error) {
	sec, err := file.GetSection(name)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("missing [%s] section", name), err)
	}
	return sec, nil
}

// parseWindow parses a window field, which must be a list of exactly two
// comma-separated dates. A scalar or a longer list aborts the run before any
// processing begins.
func parseWindow(key, raw string) (series.TimeWindow, error) {
	parts := splitList(raw)
	if len(parts) != 2 {
		return series.TimeWindow{}, apperrors.NewConfigError(
			fmt.Sprintf("%s must be a list of exactly two dates, got %d value(s)", key, len(parts)), nil)
	}
	start, err := time.Parse(series.DateLayout, parts[0])
	if err != nil {
		return series.TimeWindow{}, apperrors.NewConfigError(fmt.Sprintf("%s start date %q", key, parts[0]), err)
	}
	stop, err := time.Parse(series.DateLayout, parts[1])
	if err != nil {
		return series.TimeWindow{}, apperrors.NewConfigError(fmt.Sprintf("%s stop date %q", key, parts[1]), err)
	}
	return series.NewWindow(start, stop), nil
}

// splitList splits a scalar or comma-separated value, trimming whitespace
// and dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
