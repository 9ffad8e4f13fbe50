package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File names looked up in the project root.
const (
	DefaultConfigFile = "idebridge.yaml"
	DefaultEnvFile    = ".env"
)

// Load returns a Config for projectRoot using the hierarchy:
// defaults < <root>/idebridge.yaml < ENV. Both files are optional. Variables
// from <root>/.env fill in the environment but never replace a variable
// that is already set.
func Load(projectRoot string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(projectRoot, DefaultEnvFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config env file: %w", err)
	}
	return LoadFrom(filepath.Join(projectRoot, DefaultConfigFile))
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. An empty or missing path skips YAML.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if yamlPath != "" {
		if err := loadYAML(&cfg, yamlPath); err != nil {
			return nil, fmt.Errorf("config yaml: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.IDE.ListenNetwork, "IDEBRIDGE_LISTEN_NETWORK")
	setString(&cfg.IDE.ListenAddress, "IDEBRIDGE_LISTEN_ADDRESS")
	setString(&cfg.IDE.ClientNetwork, "IDEBRIDGE_CLIENT_NETWORK")
	setString(&cfg.IDE.ClientAddress, "IDEBRIDGE_CLIENT_ADDRESS")
	setDuration(&cfg.IDE.DialTimeout, "IDEBRIDGE_DIAL_TIMEOUT")
	setDuration(&cfg.IDE.WriteTimeout, "IDEBRIDGE_WRITE_TIMEOUT")
	setInt(&cfg.IDE.EventQueue, "IDEBRIDGE_EVENT_QUEUE")

	setString(&cfg.Storage.Backend, "IDEBRIDGE_STORAGE_BACKEND")
	setString(&cfg.Storage.Path, "IDEBRIDGE_STORAGE_PATH")
	setString(&cfg.Storage.SCIPPath, "IDEBRIDGE_SCIP_PATH")
	setInt(&cfg.Storage.CacheSize, "IDEBRIDGE_CACHE_SIZE")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Prefix, "IDEBRIDGE_NATS_PREFIX")

	setString(&cfg.Logging.Level, "IDEBRIDGE_LOG_LEVEL")
	setString(&cfg.Logging.Format, "IDEBRIDGE_LOG_FORMAT")
	setString(&cfg.Logging.Service, "IDEBRIDGE_LOG_SERVICE")

	setList(&cfg.Indexer.GrammarPaths, "IDEBRIDGE_GRAMMAR_PATHS")
	setInt64(&cfg.Indexer.MaxFileSize, "IDEBRIDGE_MAX_FILE_SIZE")

	setString(&cfg.Watch.Solution, "IDEBRIDGE_WATCH_SOLUTION")
	setDuration(&cfg.Watch.Debounce, "IDEBRIDGE_WATCH_DEBOUNCE")
}

// validate checks that the configuration is usable.
func validate(cfg *Config) error {
	if !validNetwork(cfg.IDE.ListenNetwork) {
		return fmt.Errorf("ide.listen_network %q must be tcp or unix", cfg.IDE.ListenNetwork)
	}
	if cfg.IDE.ListenAddress == "" {
		return errors.New("ide.listen_address is required")
	}
	if cfg.IDE.ClientAddress != "" && !validNetwork(cfg.IDE.ClientNetwork) {
		return fmt.Errorf("ide.client_network %q must be tcp or unix", cfg.IDE.ClientNetwork)
	}
	if cfg.IDE.DialTimeout <= 0 || cfg.IDE.WriteTimeout <= 0 {
		return errors.New("ide timeouts must be positive")
	}
	switch cfg.Storage.Backend {
	case BackendBbolt:
	case BackendSCIP:
		if cfg.Storage.SCIPPath == "" {
			return errors.New("storage.scip_path is required for the scip backend")
		}
	default:
		return fmt.Errorf("storage.backend %q must be bbolt or scip", cfg.Storage.Backend)
	}
	if cfg.Storage.CacheSize < 1 {
		return errors.New("storage.cache_size must be >= 1")
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", cfg.Logging.Format)
	}
	if cfg.Indexer.MaxFileSize < 1 {
		return errors.New("indexer.max_file_size must be >= 1")
	}
	return nil
}

func validNetwork(n string) bool {
	switch n {
	case "tcp", "tcp4", "tcp6", "unix":
		return true
	}
	return false
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setList splits an OS path-list value (":" on unix, ";" on windows).
func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = filepath.SplitList(v)
	}
}
