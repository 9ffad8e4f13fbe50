// Package config provides hierarchical configuration loading for idebridge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the bridge.
type Config struct {
	IDE     IDE     `yaml:"ide"`
	Storage Storage `yaml:"storage"`
	NATS    NATS    `yaml:"nats"`
	Logging Logging `yaml:"logging"`
	Indexer Indexer `yaml:"indexer"`
	Watch   Watch   `yaml:"watch"`
}

// IDE holds the two socket endpoints of the IDE link. The bridge listens on
// Listen*; the IDE plugin listens on Client*.
type IDE struct {
	ListenNetwork string        `yaml:"listen_network"` // "tcp" | "unix"
	ListenAddress string        `yaml:"listen_address"`
	ClientNetwork string        `yaml:"client_network"`
	ClientAddress string        `yaml:"client_address"` // empty disables outbound messages
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	EventQueue    int           `yaml:"event_queue"` // in-process event buffer
}

// Storage selects the token location backend.
type Storage struct {
	Backend   string `yaml:"backend"`    // "bbolt" | "scip"
	Path      string `yaml:"path"`       // bbolt file; empty means .idebridge/index.db
	SCIPPath  string `yaml:"scip_path"`  // index.scip for the scip backend
	CacheSize int    `yaml:"cache_size"` // decoded files kept in memory
}

// NATS holds the optional event mirror configuration.
type NATS struct {
	URL    string `yaml:"url"` // empty disables NATS
	Prefix string `yaml:"prefix"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // "text" | "json"
	Service string `yaml:"service"`
}

// Indexer holds source indexing configuration.
type Indexer struct {
	GrammarPaths []string `yaml:"grammar_paths"` // searched before the defaults
	MaxFileSize  int64    `yaml:"max_file_size"` // bytes; larger files are skipped
}

// Watch holds solution file watching configuration.
type Watch struct {
	Solution string        `yaml:"solution"` // empty disables watching
	Debounce time.Duration `yaml:"debounce"`
}

// Storage backends.
const (
	BackendBbolt = "bbolt"
	BackendSCIP  = "scip"
)

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		IDE: IDE{
			ListenNetwork: "tcp",
			ListenAddress: "127.0.0.1:6667",
			ClientNetwork: "tcp",
			ClientAddress: "127.0.0.1:6666",
			DialTimeout:   2 * time.Second,
			WriteTimeout:  5 * time.Second,
			EventQueue:    256,
		},
		Storage: Storage{
			Backend:   BackendBbolt,
			CacheSize: 256,
		},
		NATS: NATS{
			Prefix: "idebridge",
		},
		Logging: Logging{
			Level:   "info",
			Format:  "text",
			Service: "idebridge",
		},
		Indexer: Indexer{
			MaxFileSize: 4 << 20,
		},
		Watch: Watch{
			Debounce: 250 * time.Millisecond,
		},
	}
}
