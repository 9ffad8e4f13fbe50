package cmd

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/idebridge/internal/app"
	"github.com/corey/idebridge/internal/ports"
)

func TestParsePosition(t *testing.T) {
	row, col, err := parsePosition("12", "0")
	require.NoError(t, err)
	assert.Equal(t, 12, row)
	assert.Equal(t, 0, col)

	for _, args := range [][2]string{{"0", "1"}, {"x", "1"}, {"1", "-1"}, {"1", "y"}} {
		_, _, err := parsePosition(args[0], args[1])
		assert.Error(t, err, "row %q col %q", args[0], args[1])
	}
}

func TestIsDBLockError(t *testing.T) {
	assert.False(t, isDBLockError(nil))
	assert.False(t, isDBLockError(errors.New("permission denied")))
	assert.True(t, isDBLockError(fmt.Errorf("open store: %w", errors.New("timeout"))))
}

func TestFormatLocations(t *testing.T) {
	file := ports.NewTokenLocationFile("src/main.cpp", 12, 12, []ports.LocationRecord{
		{ID: 40, StartLine: 12, StartColumn: 1, EndLine: 14, EndColumn: 1, Scope: true},
		{ID: 41, StartLine: 12, StartColumn: 5, EndLine: 12, EndColumn: 9},
	})

	out := formatLocations(file, []uint64{41})
	assert.Contains(t, out, "1 locations")
	assert.Contains(t, out, "#41")
	assert.Contains(t, out, "12:5-12:9")
	assert.NotContains(t, out, "#40")

	assert.Contains(t, formatLocations(file, nil), "no symbol at src/main.cpp:12")
}

func TestFormatSolution(t *testing.T) {
	out := formatSolution(&ports.Solution{
		Name:         "app",
		RootPath:     "/w/",
		ProjectItems: []string{"/w/a.cpp", "/w/a.h"},
		IncludePaths: []string{"/w/include"},
	})
	assert.Contains(t, out, "app")
	assert.Contains(t, out, "Items (2)")
	assert.Contains(t, out, "/w/a.h")
	assert.Contains(t, out, "Include paths (1)")
}

func TestFormatIndexResult(t *testing.T) {
	assert.NotContains(t, formatIndexResult(&app.IndexResult{FileCount: 2, RecordCount: 9}), "skipped")
	out := formatIndexResult(&app.IndexResult{FileCount: 2, RecordCount: 9, Skipped: 1})
	assert.Contains(t, out, "indexed 2 files")
	assert.Contains(t, out, "9 locations")
	assert.Contains(t, out, "1 skipped")
}

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "jump", "locate", "import", "index", "send", "config"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("root"))
}

func TestFormatSummary(t *testing.T) {
	out := formatSummary(app.StoreSummary{Backend: "bbolt", Files: 3, Records: 42})
	assert.Contains(t, out, "bbolt")
	assert.Contains(t, out, "3 files")
	assert.Contains(t, out, "42 locations")
	assert.NotContains(t, out, "loaded")

	out = formatSummary(app.StoreSummary{Backend: "scip", LoadedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})
	assert.Contains(t, out, "loaded 2026-01-02T03:04:05Z")
}

func TestFormatGrammars(t *testing.T) {
	assert.Equal(t, "c, cpp, rust", formatGrammars([]string{"c", "cpp", "rust"}))
	assert.Contains(t, formatGrammars(nil), "none")
}
