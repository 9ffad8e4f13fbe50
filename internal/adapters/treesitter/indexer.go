// Package treesitter turns source files into token location records using
// tree-sitter grammars. Identifiers become selectable tokens and
// brace-delimited blocks become scopes.
//
// C and C++ grammars are compiled in via CGo unless built with -tags lean;
// any other grammar is loaded at runtime from a .so/.dylib through purego.
package treesitter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/corey/idebridge/internal/ports"
)

// ErrNoGrammar is returned when a file's language is known but no grammar is
// compiled in or installed for it.
var ErrNoGrammar = errors.New("no grammar available")

// Indexer implements ports.SourceIndexer.
type Indexer struct {
	loader *GrammarLoader

	mu        sync.Mutex
	languages map[string]*tree_sitter.Language // lang name -> language
	missing   map[string]bool                  // lang names that failed to load
}

// NewIndexer creates an indexer with the compiled-in grammars, loading others
// from grammarPaths on first use.
func NewIndexer(grammarPaths []string) *Indexer {
	ix := &Indexer{
		loader:    NewGrammarLoader(grammarPaths),
		languages: make(map[string]*tree_sitter.Language),
		missing:   make(map[string]bool),
	}
	for name, lang := range builtinLanguages() {
		ix.languages[name] = lang
	}
	return ix
}

// Languages lists the compiled-in grammars and those installed as shared
// libraries, sorted.
func (ix *Indexer) Languages() []string {
	seen := make(map[string]bool)
	ix.mu.Lock()
	for name := range ix.languages {
		seen[name] = true
	}
	ix.mu.Unlock()
	for _, name := range ix.loader.Available() {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasLanguage reports whether a grammar (or its fallback) is available.
func (ix *Indexer) HasLanguage(lang string) bool {
	return ix.language(lang) != nil
}

// SupportsExtension returns true if files with ext can be indexed.
func (ix *Indexer) SupportsExtension(ext string) bool {
	lang := languageFor("x" + ext)
	return lang != "" && ix.HasLanguage(lang)
}

// IndexFile parses source and returns its token and scope records in
// document order, without IDs. Files of unknown type yield no records.
func (ix *Indexer) IndexFile(path string, source []byte) ([]ports.LocationRecord, error) {
	langName := languageFor(path)
	if langName == "" {
		return nil, nil
	}
	lang := ix.language(langName)
	if lang == nil {
		return nil, fmt.Errorf("index %s: %w for %s", path, ErrNoGrammar, langName)
	}
	if len(source) == 0 {
		return nil, nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("index %s: parse failed", path)
	}
	defer tree.Close()

	return collectRecords(tree.RootNode()), nil
}

// language resolves a grammar by name: compiled-in, then shared library,
// then the fallback grammar.
func (ix *Indexer) language(name string) *tree_sitter.Language {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if lang := ix.lookupLocked(name); lang != nil {
		return lang
	}
	if fb, ok := fallbacks[name]; ok {
		return ix.lookupLocked(fb)
	}
	return nil
}

func (ix *Indexer) lookupLocked(name string) *tree_sitter.Language {
	if lang, ok := ix.languages[name]; ok {
		return lang
	}
	// A failed load is remembered for the life of the indexer; a grammar
	// installed afterwards needs a new indexer (a restarted daemon).
	if ix.missing[name] {
		return nil
	}
	lang, err := ix.loader.Load(name)
	if err != nil {
		ix.missing[name] = true
		return nil
	}
	ix.languages[name] = lang
	return lang
}

// collectRecords walks the tree in pre-order with a cursor, so deeply nested
// sources don't grow the goroutine stack.
func collectRecords(root *tree_sitter.Node) []ports.LocationRecord {
	var recs []ports.LocationRecord
	cursor := root.Walk()
	defer cursor.Close()

	for {
		if rec, ok := recordFor(cursor.Node()); ok {
			recs = append(recs, rec)
		}
		if cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return recs
			}
		}
	}
}

func recordFor(n *tree_sitter.Node) (ports.LocationRecord, bool) {
	if n == nil || n.IsMissing() || !n.IsNamed() {
		return ports.LocationRecord{}, false
	}
	kind := n.Kind()
	scope := scopeKinds[kind]
	if !scope && !isTokenKind(kind) {
		return ports.LocationRecord{}, false
	}
	start, end := n.StartPosition(), n.EndPosition()
	if start == end {
		return ports.LocationRecord{}, false
	}
	// tree-sitter points are 0-based with an exclusive end; records are
	// 1-based with an inclusive end, so the end column carries over as is.
	return ports.LocationRecord{
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column) + 1,
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column),
		Scope:       scope,
	}, true
}
