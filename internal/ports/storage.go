// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. The protocol core
// depends only on these interfaces, never on concrete implementations.
package ports

// LocationStore answers token location queries for indexed source files.
// Implementations own the returned TokenLocationFile; callers only read it.
// Concurrent reads must be safe; the core adds no locking of its own.
type LocationStore interface {
	// LocationsForLines returns the token locations of filePath whose start
	// location lies on a line in [startLine, endLine] (1-based, inclusive).
	// An unknown file yields an empty TokenLocationFile, not an error.
	LocationsForLines(filePath string, startLine, endLine int) (*TokenLocationFile, error)
}

// LocationWriter is implemented by stores that accept indexer output.
// PutFile replaces every record of filePath. IDs in records are ignored and
// reassigned by the store so they stay unique across the whole index.
type LocationWriter interface {
	PutFile(filePath string, records []LocationRecord) ([]uint64, error)
	DeleteFile(filePath string) error
}

// LocationRecord is the storage form of one symbol occurrence: a start and an
// end position plus the scope flag. Lines and columns are 1-based; the end
// column is inclusive (the column of the last character).
type LocationRecord struct {
	ID          uint64
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Scope       bool // containing construct (e.g. a { } block), not a selectable symbol
}

// wellFormed reports whether the end position does not precede the start.
func (r LocationRecord) wellFormed() bool {
	if r.StartLine < 1 || r.EndLine < r.StartLine {
		return false
	}
	if r.EndLine == r.StartLine && r.EndColumn < r.StartColumn {
		return false
	}
	return true
}

// TokenLocation is one end of an indexed symbol occurrence. Start locations
// point to their paired end location and vice versa.
type TokenLocation struct {
	ID     uint64
	Line   int
	Column int
	Scope  bool

	start bool
	other *TokenLocation
}

// IsStart reports whether l is the start of its occurrence.
func (l *TokenLocation) IsStart() bool { return l.start }

// IsScope reports whether l belongs to a scope occurrence.
func (l *TokenLocation) IsScope() bool { return l.Scope }

// EndLocation returns the paired end location, or nil when l is an end location.
func (l *TokenLocation) EndLocation() *TokenLocation {
	if !l.start {
		return nil
	}
	return l.other
}

// StartLocation returns the paired start location, or nil when l is a start location.
func (l *TokenLocation) StartLocation() *TokenLocation {
	if l.start {
		return nil
	}
	return l.other
}

// TokenLocationFile is an ordered, read-only view of the token locations of
// one file restricted to a line range. It is built per query and discarded.
type TokenLocationFile struct {
	Path      string
	StartLine int
	EndLine   int

	starts []*TokenLocation
}

// NewTokenLocationFile builds a file view from storage records, keeping the
// records whose start line lies within [startLine, endLine] in the order given.
// Records whose end precedes their start are dropped, so every start location
// in the result has exactly one end location at or after it.
func NewTokenLocationFile(path string, startLine, endLine int, records []LocationRecord) *TokenLocationFile {
	f := &TokenLocationFile{Path: path, StartLine: startLine, EndLine: endLine}
	for _, r := range records {
		if r.StartLine < startLine || r.StartLine > endLine || !r.wellFormed() {
			continue
		}
		start := &TokenLocation{ID: r.ID, Line: r.StartLine, Column: r.StartColumn, Scope: r.Scope, start: true}
		end := &TokenLocation{ID: r.ID, Line: r.EndLine, Column: r.EndColumn, Scope: r.Scope}
		start.other = end
		end.other = start
		f.starts = append(f.starts, start)
	}
	return f
}

// ForEachStartLocation calls fn for every start location in storage order.
func (f *TokenLocationFile) ForEachStartLocation(fn func(*TokenLocation)) {
	if f == nil {
		return
	}
	for _, l := range f.starts {
		fn(l)
	}
}

// Len returns the number of occurrences in the view.
func (f *TokenLocationFile) Len() int {
	if f == nil {
		return 0
	}
	return len(f.starts)
}
