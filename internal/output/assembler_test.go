package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmorphcli/internal/series"
)

func sampleSeries(t *testing.T) *series.TimeSeries {
	t.Helper()
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)}
	ts, err := series.New(times, []float64{1.5, 2.25, 3.125})
	require.NoError(t, err)
	return ts
}

func TestWriteArtifactLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "KEEFC", "corrected.csv")

	meta := series.Metadata{"# site: KEEFC", "# units: m3 s-1"}
	provenance := []string{
		"bias corrected with bmorphcli 1.2.0",
		"correction configuration: /etc/bmorph.cfg",
	}

	a := NewAssembler(".3f")
	require.NoError(t, a.Write(path, meta, sampleSeries(t), provenance))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `# site: KEEFC
# units: m3 s-1
# bias corrected with bmorphcli 1.2.0
# correction configuration: /etc/bmorph.cfg
date,streamflow
2000-01-01,1.500
2000-01-02,2.250
2000-01-03,3.125
`
	assert.Equal(t, want, string(got))
}

func TestWriteCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c", "out.csv")

	a := NewAssembler(".2f")
	require.NoError(t, a.Write(path, nil, sampleSeries(t), nil))
	assert.FileExists(t, path)
}

func TestWriteOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is much longer than the new artifact\n"), 0644))

	a := NewAssembler(".1f")
	require.NoError(t, a.Write(path, nil, sampleSeries(t), nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,streamflow\n2000-01-01,1.5\n2000-01-02,2.2\n2000-01-03,3.1\n", string(got))
}

func TestWriteFloatFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	a := NewAssembler("0.5f")
	require.NoError(t, a.Write(path, nil, sampleSeries(t), nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "2000-01-01,1.50000\n")
}
