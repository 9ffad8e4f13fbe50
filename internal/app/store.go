package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/corey/idebridge/internal/adapters/bbolt"
	"github.com/corey/idebridge/internal/adapters/scip"
	"github.com/corey/idebridge/internal/config"
	"github.com/corey/idebridge/internal/ports"
)

// Stores bundles the opened location backend. Writer is nil for read-only
// backends.
type Stores struct {
	Reader ports.LocationStore
	Writer ports.LocationWriter
	Bolt   *bbolt.Store // set for the bbolt backend
	SCIP   *scip.Store  // set for the scip backend
}

// Close releases the backend.
func (s *Stores) Close() error {
	if s.Bolt != nil {
		return s.Bolt.Close()
	}
	return nil
}

// StoreSummary describes the contents of the opened backend.
type StoreSummary struct {
	Backend  string
	Files    int
	Records  int
	LoadedAt time.Time // scip only: when the index was read
}

// Summary counts the indexed files and locations.
func (s *Stores) Summary() (StoreSummary, error) {
	switch {
	case s.Bolt != nil:
		st, err := s.Bolt.Stats()
		if err != nil {
			return StoreSummary{}, fmt.Errorf("store stats: %w", err)
		}
		return StoreSummary{Backend: config.BackendBbolt, Files: st.Files, Records: st.Records}, nil
	case s.SCIP != nil:
		return StoreSummary{
			Backend:  config.BackendSCIP,
			Files:    len(s.SCIP.Files()),
			Records:  s.SCIP.RecordCount(),
			LoadedAt: s.SCIP.LoadedAt,
		}, nil
	}
	return StoreSummary{}, nil
}

// Files lists the indexed file keys, sorted.
func (s *Stores) Files() ([]string, error) {
	switch {
	case s.Bolt != nil:
		return s.Bolt.Files()
	case s.SCIP != nil:
		return s.SCIP.Files(), nil
	}
	return nil, nil
}

// OpenStores opens the backend selected by cfg. Relative paths resolve
// against projectRoot.
func OpenStores(projectRoot string, cfg config.Storage) (*Stores, error) {
	switch cfg.Backend {
	case config.BackendSCIP:
		st, err := scip.Load(resolvePath(projectRoot, cfg.SCIPPath))
		if err != nil {
			return nil, fmt.Errorf("open scip index: %w", err)
		}
		return &Stores{Reader: st, SCIP: st}, nil

	case config.BackendBbolt, "":
		path := BoltPath(projectRoot, cfg)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		st, err := bbolt.NewStore(path, cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return &Stores{Reader: keyedStore{st}, Writer: st, Bolt: st}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// BoltPath is the bbolt database file cfg selects for projectRoot.
func BoltPath(projectRoot string, cfg config.Storage) string {
	if cfg.Path == "" {
		return NewPaths(projectRoot).DB
	}
	return resolvePath(projectRoot, cfg.Path)
}

// keyedStore maps IDE file paths onto the keys IndexTree writes.
type keyedStore struct {
	ports.LocationStore
}

func (s keyedStore) LocationsForLines(filePath string, startLine, endLine int) (*ports.TokenLocationFile, error) {
	return s.LocationStore.LocationsForLines(StoreKey(filePath), startLine, endLine)
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
