package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid() Grid {
	return Grid{
		Sites:         []string{"KEEFC", "TDA"},
		HydroModels:   []string{"PRMS"},
		ParameterSets: []string{"P1", "P2"},
		Scenarios:     []string{"rcp45", "rcp85"},
		Downscalings:  []string{"bcsd"},
		GCMs:          []string{"CanESM2", "CCSM4"},
	}
}

func TestGridSize(t *testing.T) {
	assert.Equal(t, 16, testGrid().Size())
}

func TestAllNestingOrder(t *testing.T) {
	g := testGrid()

	var got []Selection
	for sel := range g.All() {
		got = append(got, sel)
	}
	require.Len(t, got, g.Size())

	// Site is the outermost dimension, GCM the innermost.
	assert.Equal(t, Selection{"KEEFC", "PRMS", "P1", "rcp45", "bcsd", "CanESM2"}, got[0])
	assert.Equal(t, Selection{"KEEFC", "PRMS", "P1", "rcp45", "bcsd", "CCSM4"}, got[1])
	assert.Equal(t, Selection{"KEEFC", "PRMS", "P1", "rcp85", "bcsd", "CanESM2"}, got[2])
	assert.Equal(t, Selection{"TDA", "PRMS", "P1", "rcp45", "bcsd", "CanESM2"}, got[8])
	assert.Equal(t, Selection{"TDA", "PRMS", "P2", "rcp85", "bcsd", "CCSM4"}, got[15])
}

func TestAllIsRestartable(t *testing.T) {
	g := testGrid()

	var first, second []Selection
	for sel := range g.All() {
		first = append(first, sel)
	}
	for sel := range g.All() {
		second = append(second, sel)
	}
	assert.Equal(t, first, second)
}

func TestAllEarlyBreak(t *testing.T) {
	g := testGrid()

	n := 0
	for range g.All() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestAllKeepsDuplicates(t *testing.T) {
	g := Grid{
		Sites:         []string{"KEEFC", "KEEFC"},
		HydroModels:   []string{"PRMS"},
		ParameterSets: []string{"P1"},
		Scenarios:     []string{"rcp45"},
		Downscalings:  []string{"bcsd"},
		GCMs:          []string{"CanESM2"},
	}

	n := 0
	for range g.All() {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestResolve(t *testing.T) {
	sel := Selection{
		Site:         "KEEFC",
		HydroModel:   "PRMS",
		ParameterSet: "P1",
		Scenario:     "rcp85",
		Downscaling:  "bcsd",
		GCM:          "CanESM2",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			"all placeholders",
			"raw/{site}/{model}_{params}_{scenario}_{downscaling}_{gcm}.csv",
			"raw/KEEFC/PRMS_P1_rcp85_bcsd_CanESM2.csv",
		},
		{
			"site only",
			"reference/{site}.csv",
			"reference/KEEFC.csv",
		},
		{
			"no placeholders",
			"static/path.csv",
			"static/path.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sel.Resolve(tt.template))
		})
	}
}
