// Package scip implements a read-only ports.LocationStore over a SCIP index
// (https://github.com/sourcegraph/scip). Occurrences become selectable token
// locations; enclosing ranges become scope locations.
package scip

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"github.com/corey/idebridge/internal/ports"
)

// Store serves token locations from an in-memory copy of a SCIP index.
// It is immutable after Load, so concurrent reads are safe.
type Store struct {
	// ProjectRoot is the index's project root as a local path.
	ProjectRoot string
	// LoadedAt is when the index was loaded.
	LoadedAt time.Time

	files map[string][]ports.LocationRecord // relative slash path -> records
	count int
}

// Load reads and decodes a SCIP index file.
func Load(indexPath string) (*Store, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("read scip index: %w", err)
	}
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse scip index %s: %w", indexPath, err)
	}
	return FromIndex(&index), nil
}

// FromIndex converts a decoded SCIP index. Location IDs are assigned in
// document and occurrence order, starting at 1.
func FromIndex(index *scippb.Index) *Store {
	s := &Store{
		files:    make(map[string][]ports.LocationRecord, len(index.Documents)),
		LoadedAt: time.Now(),
	}
	if index.Metadata != nil {
		s.ProjectRoot = rootPath(index.Metadata.ProjectRoot)
	}

	var next uint64
	for _, doc := range index.Documents {
		rel := normalize(doc.RelativePath)
		recs := s.files[rel]
		for _, occ := range doc.Occurrences {
			if r, ok := convertRange(occ.Range); ok {
				next++
				r.ID = next
				recs = append(recs, r)
			}
			if r, ok := convertRange(occ.EnclosingRange); ok {
				next++
				r.ID = next
				r.Scope = true
				recs = append(recs, r)
			}
		}
		s.files[rel] = recs
	}
	s.count = int(next)
	return s
}

// LocationsForLines returns the occurrences of filePath starting on a line in
// [startLine, endLine]. Absolute paths are resolved against ProjectRoot.
func (s *Store) LocationsForLines(filePath string, startLine, endLine int) (*ports.TokenLocationFile, error) {
	return ports.NewTokenLocationFile(filePath, startLine, endLine, s.files[s.relPath(filePath)]), nil
}

// Files returns the indexed relative paths, sorted.
func (s *Store) Files() []string {
	files := make([]string, 0, len(s.files))
	for f := range s.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// RecordCount returns the number of locations loaded.
func (s *Store) RecordCount() int {
	return s.count
}

// relPath maps a request path onto the index's relative path keys.
func (s *Store) relPath(p string) string {
	p = normalize(p)
	if s.ProjectRoot == "" {
		return p
	}
	root := strings.TrimSuffix(normalize(s.ProjectRoot), "/") + "/"
	if strings.HasPrefix(p, root) {
		return strings.TrimPrefix(p, root)
	}
	return p
}

// convertRange turns a SCIP range (0-based, end-exclusive, 3 or 4 elements)
// into 1-based positions with an inclusive end column.
func convertRange(r []int32) (ports.LocationRecord, bool) {
	var sl, sc, el, ec int32
	switch len(r) {
	case 3:
		sl, sc, el, ec = r[0], r[1], r[0], r[2]
	case 4:
		sl, sc, el, ec = r[0], r[1], r[2], r[3]
	default:
		return ports.LocationRecord{}, false
	}
	if sl < 0 || sc < 0 || el < sl || ec < 0 {
		return ports.LocationRecord{}, false
	}
	rec := ports.LocationRecord{
		StartLine:   int(sl) + 1,
		StartColumn: int(sc) + 1,
		EndLine:     int(el) + 1,
		EndColumn:   int(ec),
	}
	if el == sl && rec.EndColumn < rec.StartColumn {
		rec.EndColumn = rec.StartColumn // empty range: keep it selectable at its start
	}
	return rec, true
}

// rootPath converts a "file://" project root URI to a local path.
func rootPath(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	// file:///C:/work/app parses to "/C:/work/app".
	if len(u.Path) >= 3 && u.Path[0] == '/' && u.Path[2] == ':' && isLetter(u.Path[1]) {
		return u.Path[1:]
	}
	return u.Path
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return p
	}
	return path.Clean(p)
}
