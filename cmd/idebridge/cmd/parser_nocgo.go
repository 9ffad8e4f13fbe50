//go:build !cgo

package cmd

import (
	"github.com/corey/idebridge/internal/config"
	"github.com/corey/idebridge/internal/ports"
)

// newIndexer returns nil when CGo is unavailable (pure Go build). The bridge
// still serves lookups from an existing bbolt or SCIP index.
func newIndexer(_ string, _ *config.Config) ports.SourceIndexer {
	return nil
}

func grammarLanguages(_ string, _ *config.Config) []string {
	return nil
}
