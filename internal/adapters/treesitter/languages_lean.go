//go:build lean

package treesitter

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// builtinLanguages is empty in lean builds; every grammar comes from the
// GrammarLoader.
func builtinLanguages() map[string]*tree_sitter.Language {
	return nil
}
