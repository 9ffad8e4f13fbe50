package ports

// SourceIndexer extracts token locations from source files. The concrete
// implementation (tree-sitter) lives in internal/adapters/treesitter and is
// only built with cgo. When nil, the index can still be filled from a SCIP file.
type SourceIndexer interface {
	// IndexFile returns the occurrences found in source, in positional order.
	// Returns nil, nil for unsupported languages (not an error).
	IndexFile(path string, source []byte) ([]LocationRecord, error)

	// SupportsExtension returns true if the indexer can handle files with this
	// extension (e.g., ".cpp", ".h"). Extension includes the leading dot.
	SupportsExtension(ext string) bool
}
