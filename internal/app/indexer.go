package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corey/idebridge/internal/ports"
)

// IndexResult holds statistics from an IndexTree operation.
type IndexResult struct {
	FileCount   int
	RecordCount int
	Skipped     int // too large, unreadable or rejected by the indexer
}

// DefaultMaxFileSize bounds the size of an indexed source file.
const DefaultMaxFileSize int64 = 4 << 20

// skipDirs lists directories never descended into during indexing.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	".vs":          true,
	".vscode":      true,
	".idea":        true,
	".idebridge":   true,
	"node_modules": true,
	"build":        true,
	"out":          true,
	"bin":          true,
	"obj":          true,
	"x64":          true,
	"Debug":        true,
	"Release":      true,
}

// StoreKey is the key a source file is indexed under: its absolute,
// slash-separated path. IDE paths with backslashes map to the same key.
func StoreKey(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	if abs, err := filepath.Abs(filepath.FromSlash(path)); err == nil && !isDrivePath(path) {
		path = abs
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// isDrivePath reports whether p is a Windows drive-letter path such as C:/x.
func isDrivePath(p string) bool {
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// IndexTree walks the given roots, runs every supported source file through
// indexer and replaces its records in writer. Files are processed in sorted
// order so location IDs are reproducible for identical trees.
func IndexTree(roots []string, indexer ports.SourceIndexer, writer ports.LocationWriter, maxFileSize int64, logger *slog.Logger) (*IndexResult, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	files, err := collectSources(roots, indexer)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{}
	for _, path := range files {
		n, err := indexFile(path, indexer, writer, maxFileSize)
		if err != nil {
			logger.Warn("skipping file", "file", path, "error", err)
			result.Skipped++
			continue
		}
		result.FileCount++
		result.RecordCount += n
	}
	return result, nil
}

// collectSources returns the sorted, de-duplicated absolute paths of every
// file under roots whose extension the indexer supports. A root may also be
// a single file.
func collectSources(roots []string, indexer ports.SourceIndexer) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if seen[path] {
			return
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" || !indexer.SupportsExtension(ext) {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			return nil, fmt.Errorf("index root: %w", err)
		}
		if !info.IsDir() {
			add(absRoot)
			continue
		}
		err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable
			}
			if info.IsDir() {
				if path != absRoot && skipDirs[info.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func indexFile(path string, indexer ports.SourceIndexer, writer ports.LocationWriter, maxFileSize int64) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.Size() > maxFileSize {
		return 0, fmt.Errorf("file size %d exceeds %d", info.Size(), maxFileSize)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	records, err := indexer.IndexFile(path, source)
	if err != nil {
		return 0, err
	}
	ids, err := writer.PutFile(StoreKey(path), records)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
