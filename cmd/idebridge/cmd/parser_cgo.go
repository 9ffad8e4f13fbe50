//go:build cgo

package cmd

import (
	"github.com/corey/idebridge/internal/adapters/treesitter"
	"github.com/corey/idebridge/internal/config"
	"github.com/corey/idebridge/internal/ports"
)

// newIndexer returns a tree-sitter source indexer when CGo is available.
func newIndexer(root string, cfg *config.Config) ports.SourceIndexer {
	return newTreeSitter(root, cfg)
}

// grammarLanguages lists the grammars the indexer can parse.
func grammarLanguages(root string, cfg *config.Config) []string {
	return newTreeSitter(root, cfg).Languages()
}

// Configured grammar paths are searched before the project-local and
// global grammar directories.
func newTreeSitter(root string, cfg *config.Config) *treesitter.Indexer {
	paths := append([]string(nil), cfg.Indexer.GrammarPaths...)
	paths = append(paths, treesitter.DefaultGrammarPaths(root)...)
	return treesitter.NewIndexer(paths)
}
