//go:build !lean

package treesitter

// C and C++ grammars compile into the binary via CGo; other languages load
// from shared libraries. Build with -tags lean to skip the compiled-in set.

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	ts_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	ts_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

func builtinLanguages() map[string]*tree_sitter.Language {
	return map[string]*tree_sitter.Language{
		"c":   tree_sitter.NewLanguage(ts_c.Language()),
		"cpp": tree_sitter.NewLanguage(ts_cpp.Language()),
	}
}
