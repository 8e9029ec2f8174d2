package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bmorphcli/internal/errors"
)

const validConfig = `[siteinfo]
sites = KEEFC, TDA
hydro_models = PRMS
parameter_sets = P1, P2
scenarios = rcp45, rcp85
downscalings = bcsd
gcms = CanESM2, CCSM4

[bmorph]
training_window = 1980-01-01, 1999-12-31
bmorph_window = 2000-01-01, 2009-12-31
reference_window = 1980-01-01, 1999-12-31
n_smooth_short = 5
n_smooth_long = 31
cdf_half_period = 2

[io]
raw_template = raw/{site}/{model}_{params}_{scenario}_{downscaling}_{gcm}.csv
reference_template = reference/{site}.csv
output_template = out/{site}/{model}_{params}_{scenario}_{downscaling}_{gcm}.csv
float_format = .3f
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bmorph.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"KEEFC", "TDA"}, s.SiteInfo.Sites)
	assert.Equal(t, []string{"PRMS"}, s.SiteInfo.HydroModels)
	assert.Equal(t, []string{"P1", "P2"}, s.SiteInfo.ParameterSets)
	assert.Equal(t, []string{"rcp45", "rcp85"}, s.SiteInfo.Scenarios)
	assert.Equal(t, []string{"bcsd"}, s.SiteInfo.Downscalings)
	assert.Equal(t, []string{"CanESM2", "CCSM4"}, s.SiteInfo.GCMs)

	assert.Equal(t, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), s.Bmorph.BmorphWindow.Start)
	assert.Equal(t, time.Date(2009, time.December, 31, 0, 0, 0, 0, time.UTC), s.Bmorph.BmorphWindow.Stop)
	assert.Equal(t, 5, s.Bmorph.NSmoothShort)
	assert.Equal(t, 31, s.Bmorph.NSmoothLong)
	assert.Equal(t, 2, s.Bmorph.CDFHalfPeriod)

	assert.Equal(t, ".3f", s.IO.FloatFormat)
	assert.True(t, filepath.IsAbs(s.ConfigPath))

	// Logging defaults apply when neither section nor environment set them.
	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, "text", s.Logging.Format)
	assert.Equal(t, "console", s.Logging.Output)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cfg"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoadWindowNotAList(t *testing.T) {
	// A scalar window field is the fatal configuration error: the run must
	// abort before any processing.
	broken := `[siteinfo]
sites = KEEFC
hydro_models = PRMS
parameter_sets = P1
scenarios = rcp45
downscalings = bcsd
gcms = CanESM2

[bmorph]
training_window = 1980-01-01
bmorph_window = 2000-01-01, 2009-12-31
reference_window = 1980-01-01, 1999-12-31
n_smooth_short = 5
n_smooth_long = 31
cdf_half_period = 2

[io]
raw_template = raw.csv
reference_template = ref.csv
output_template = out.csv
float_format = .3f
`
	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "training_window")
}

func TestLoadWindowTooManyDates(t *testing.T) {
	_, err := parseWindow("bmorph_window", "2000-01-01, 2005-01-01, 2009-12-31")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly two dates")
}

func TestLoadWindowStartAfterStop(t *testing.T) {
	broken := validConfig
	broken = replaceLine(t, broken,
		"reference_window = 1980-01-01, 1999-12-31",
		"reference_window = 1999-12-31, 1980-01-01")

	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "reference_window")
}

func TestLoadEmptyDimension(t *testing.T) {
	broken := replaceLine(t, validConfig, "gcms = CanESM2, CCSM4", "gcms =")

	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "GCMs")
}

func TestLoadBadSmoothing(t *testing.T) {
	broken := replaceLine(t, validConfig, "n_smooth_short = 5", "n_smooth_short = 0")

	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoadNonIntegerHalfPeriod(t *testing.T) {
	broken := replaceLine(t, validConfig, "cdf_half_period = 2", "cdf_half_period = two")

	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cdf_half_period")
}

func TestLoadMissingSection(t *testing.T) {
	broken := "[siteinfo]\nsites = KEEFC\n"

	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoggingEnvOverride(t *testing.T) {
	t.Setenv("BMORPH_LOG_LEVEL", "debug")
	t.Setenv("BMORPH_LOG_FORMAT", "json")

	s, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "debug", s.Logging.Level)
	assert.Equal(t, "json", s.Logging.Format)
}

func TestLoggingSectionOverridesEnvDefaults(t *testing.T) {
	cfg := validConfig + `
[logging]
level = warn
output = file
file = run.log
`
	s, err := Load(writeConfig(t, cfg))
	require.NoError(t, err)
	assert.Equal(t, "warn", s.Logging.Level)
	assert.Equal(t, "file", s.Logging.Output)
	assert.Equal(t, "run.log", s.Logging.LogFile)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"scalar", "KEEFC", []string{"KEEFC"}},
		{"list", "a, b ,c", []string{"a", "b", "c"}},
		{"trailing comma", "a,b,", []string{"a", "b"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.in))
		})
	}
}

func replaceLine(t *testing.T, content, old, new string) string {
	t.Helper()
	require.Contains(t, content, old)
	return strings.Replace(content, old, new, 1)
}
