// Package bbolt implements the ports.LocationStore interface using bbolt
// (embedded B+ tree). Each indexed file gets its own sub-bucket under "files";
// records inside are keyed by their big-endian location ID, so a cursor walk
// returns them in insertion order. Writes are transactional: a crash mid-write
// cannot corrupt previously committed data.
package bbolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/corey/idebridge/internal/ports"
)

// Bucket keys
var (
	bucketMeta  = []byte("meta")
	bucketFiles = []byte("files")
	keySchema   = []byte("schema")
)

// DefaultCacheSize is the number of decoded files kept in memory.
const DefaultCacheSize = 256

// ErrSchemaTooNew is returned when the database was written by a newer build.
var ErrSchemaTooNew = errors.New("bbolt: index schema is newer than this build")

// Store implements ports.LocationStore and ports.LocationWriter backed by bbolt.
type Store struct {
	db    *bolt.DB
	cache *lru.Cache[string, []ports.LocationRecord]
}

// Stats summarizes the index contents.
type Stats struct {
	Files   int
	Records int
}

// NewStore opens (or creates) a bbolt database at the given path. cacheSize
// bounds the decoded-file cache; values <= 0 use DefaultCacheSize.
func NewStore(path string, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []ports.LocationRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("location cache: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketFiles); err != nil {
			return err
		}
		if v := meta.Get(keySchema); v != nil {
			if len(v) != 4 {
				return fmt.Errorf("corrupt schema key: %d bytes", len(v))
			}
			if got := binary.LittleEndian.Uint32(v); got > schemaVersion {
				return fmt.Errorf("%w: %d > %d", ErrSchemaTooNew, got, schemaVersion)
			}
			return nil
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, schemaVersion)
		return meta.Put(keySchema, buf)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: cache}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutFile replaces all records of filePath. Every record gets a fresh ID from
// the global sequence; the assigned IDs are returned in record order.
func (s *Store) PutFile(filePath string, records []ports.LocationRecord) ([]uint64, error) {
	if filePath == "" {
		return nil, fmt.Errorf("empty file path")
	}
	values := make([][]byte, len(records))
	for i, r := range records {
		v, err := encodeRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		values[i] = v
	}

	ids := make([]uint64, len(records))
	err := s.db.Update(func(tx *bolt.Tx) error {
		files := tx.Bucket(bucketFiles)
		if err := files.DeleteBucket([]byte(filePath)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		fb, err := files.CreateBucket([]byte(filePath))
		if err != nil {
			return err
		}
		for i, v := range values {
			id, err := files.NextSequence()
			if err != nil {
				return err
			}
			if err := fb.Put(idKey(id), v); err != nil {
				return err
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", filePath, err)
	}
	s.cache.Remove(filePath)
	return ids, nil
}

// DeleteFile removes all records of filePath.
// Idempotent: deleting an unknown file is not an error.
func (s *Store) DeleteFile(filePath string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketFiles).DeleteBucket([]byte(filePath)); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil // idempotent
		} else {
			return err
		}
	})
	s.cache.Remove(filePath)
	return err
}

// LocationsForLines returns the occurrences of filePath starting on a line in
// [startLine, endLine], in ID order.
func (s *Store) LocationsForLines(filePath string, startLine, endLine int) (*ports.TokenLocationFile, error) {
	records, err := s.fileRecords(filePath)
	if err != nil {
		return nil, err
	}
	return ports.NewTokenLocationFile(filePath, startLine, endLine, records), nil
}

// fileRecords returns every record of a file, decoding through the cache.
func (s *Store) fileRecords(filePath string) ([]ports.LocationRecord, error) {
	if recs, ok := s.cache.Get(filePath); ok {
		return recs, nil
	}

	var records []ports.LocationRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		fb := tx.Bucket(bucketFiles).Bucket([]byte(filePath))
		if fb == nil {
			return nil
		}
		found = true
		return fb.ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return fmt.Errorf("bad record key length %d", len(k))
			}
			// decodeRecord copies out of v; bbolt slices die with the tx.
			r, err := decodeRecord(v)
			if err != nil {
				return fmt.Errorf("record %x: %w", k, err)
			}
			r.ID = binary.BigEndian.Uint64(k)
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	if found {
		s.cache.Add(filePath, records)
	}
	return records, nil
}

// Files returns the indexed file paths, sorted.
func (s *Store) Files() ([]string, error) {
	var files []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			if v == nil { // sub-bucket
				files = append(files, string(k))
			}
			return nil
		})
	})
	sort.Strings(files)
	return files, err
}

// Stats counts indexed files and records.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		files := tx.Bucket(bucketFiles)
		return files.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			st.Files++
			st.Records += files.Bucket(k).Stats().KeyN
			return nil
		})
	})
	return st, err
}

func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}
