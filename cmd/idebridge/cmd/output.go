package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/corey/idebridge/internal/app"
	"github.com/corey/idebridge/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// formatLocations renders the selected locations of a lookup.
//
//	⚡ 2 locations │ src/main.cpp:12
//	  #41  12:5-12:9
//	  #40  12:1-14:1  scope
func formatLocations(file *ports.TokenLocationFile, ids []uint64) string {
	if len(ids) == 0 {
		return fmt.Sprintf("%s⚡ no symbol at %s:%d%s\n", colorYellow, file.Path, file.StartLine, colorReset)
	}
	selected := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d locations%s │ %s%s%s:%d\n",
		colorBold, len(ids), colorReset, colorCyan, file.Path, colorReset, file.StartLine))
	file.ForEachStartLocation(func(l *ports.TokenLocation) {
		if !selected[l.ID] {
			return
		}
		end := l.EndLocation()
		sb.WriteString(fmt.Sprintf("  %s#%d%s  %d:%d-%d:%d", colorGreen, l.ID, colorReset, l.Line, l.Column, end.Line, end.Column))
		if l.IsScope() {
			sb.WriteString(fmt.Sprintf("  %sscope%s", colorGray, colorReset))
		}
		sb.WriteString("\n")
	})
	return sb.String()
}

// formatSolution renders an imported solution.
func formatSolution(sln *ports.Solution) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %s%s │ %s\n", colorBold, sln.Name, colorReset, sln.RootPath))
	sb.WriteString(fmt.Sprintf("  Items (%d):\n", len(sln.ProjectItems)))
	for _, item := range sln.ProjectItems {
		sb.WriteString(fmt.Sprintf("    %s%s%s\n", colorCyan, item, colorReset))
	}
	sb.WriteString(fmt.Sprintf("  Include paths (%d):\n", len(sln.IncludePaths)))
	for _, inc := range sln.IncludePaths {
		sb.WriteString(fmt.Sprintf("    %s%s%s\n", colorGray, inc, colorReset))
	}
	return sb.String()
}

// formatIndexResult renders indexing statistics.
func formatIndexResult(res *app.IndexResult) string {
	s := fmt.Sprintf("%s⚡ indexed %d files%s │ %d locations", colorBold, res.FileCount, colorReset, res.RecordCount)
	if res.Skipped > 0 {
		s += fmt.Sprintf(" │ %s%d skipped%s", colorYellow, res.Skipped, colorReset)
	}
	return s + "\n"
}

func formatSummary(sum app.StoreSummary) string {
	s := fmt.Sprintf("%s │ %d files │ %d locations", sum.Backend, sum.Files, sum.Records)
	if !sum.LoadedAt.IsZero() {
		s += " │ loaded " + sum.LoadedAt.Format(time.RFC3339)
	}
	return s
}

func formatGrammars(langs []string) string {
	if len(langs) == 0 {
		return colorGray + "none (pure Go build)" + colorReset
	}
	return strings.Join(langs, ", ")
}
