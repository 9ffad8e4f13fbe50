package app

import (
	"path/filepath"
	"strings"

	"github.com/corey/idebridge/internal/domain/protocol"
)

// onSolutionChanged re-imports the watched solution. It is dispatched as a
// wire message through the server, so it is validated like an IDE request
// and never overlaps one.
func (a *App) onSolutionChanged(path string) {
	ide := solutionIDE(path)
	a.Logger.Info("solution changed, re-importing", "solution", path, "ide", ide)
	a.Server.Dispatch(protocol.BuildCreateProject(path, ide))
}

// solutionIDE picks the IDE a solution file belongs to from its extension.
func solutionIDE(path string) protocol.IDEKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sln":
		return protocol.IDEVisualStudio
	default:
		return protocol.IDEUnknown
	}
}
