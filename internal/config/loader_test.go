package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "tcp", cfg.IDE.ListenNetwork)
	assert.Equal(t, "127.0.0.1:6667", cfg.IDE.ListenAddress)
	assert.Equal(t, "127.0.0.1:6666", cfg.IDE.ClientAddress)
	assert.Equal(t, BackendBbolt, cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.NoError(t, validate(&cfg))
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, DefaultConfigFile)
	content := `
ide:
  listen_network: unix
  listen_address: /tmp/bridge.sock
  dial_timeout: 500ms
storage:
  cache_size: 16
indexer:
  grammar_paths: [/opt/grammars, /usr/local/grammars]
watch:
  solution: C:/work/app.sln
`
	require.NoError(t, os.WriteFile(yamlPath, []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "unix", cfg.IDE.ListenNetwork)
	assert.Equal(t, "/tmp/bridge.sock", cfg.IDE.ListenAddress)
	assert.Equal(t, 500*time.Millisecond, cfg.IDE.DialTimeout)
	assert.Equal(t, 16, cfg.Storage.CacheSize)
	assert.Equal(t, []string{"/opt/grammars", "/usr/local/grammars"}, cfg.Indexer.GrammarPaths)
	assert.Equal(t, "C:/work/app.sln", cfg.Watch.Solution)
	// Unchanged fields keep defaults
	assert.Equal(t, "127.0.0.1:6666", cfg.IDE.ClientAddress)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("NATS_URL", "")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)

	cfg, err = LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ide: [unterminated"), 0o644))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config yaml")
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("logging:\n  level: warn\n"), 0o644))

	t.Setenv("IDEBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("IDEBRIDGE_CLIENT_ADDRESS", "10.0.0.5:7000")
	t.Setenv("IDEBRIDGE_CACHE_SIZE", "8")
	t.Setenv("IDEBRIDGE_WATCH_DEBOUNCE", "1s")
	t.Setenv("IDEBRIDGE_GRAMMAR_PATHS", "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv("NATS_URL", "nats://example:4222")

	cfg, err := LoadFrom(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level, "env beats yaml")
	assert.Equal(t, "10.0.0.5:7000", cfg.IDE.ClientAddress)
	assert.Equal(t, 8, cfg.Storage.CacheSize)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Indexer.GrammarPaths)
	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
}

func TestLoadEnv_IgnoresUnparsable(t *testing.T) {
	t.Setenv("IDEBRIDGE_CACHE_SIZE", "lots")
	t.Setenv("IDEBRIDGE_DIAL_TIMEOUT", "soon")

	cfg := Defaults()
	loadEnv(&cfg)
	assert.Equal(t, 256, cfg.Storage.CacheSize)
	assert.Equal(t, 2*time.Second, cfg.IDE.DialTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad listen network", func(c *Config) { c.IDE.ListenNetwork = "udp" }, "ide.listen_network"},
		{"missing listen address", func(c *Config) { c.IDE.ListenAddress = "" }, "ide.listen_address"},
		{"bad client network", func(c *Config) { c.IDE.ClientNetwork = "pipe" }, "ide.client_network"},
		{"zero timeout", func(c *Config) { c.IDE.DialTimeout = 0 }, "timeouts"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, "storage.backend"},
		{"scip without path", func(c *Config) { c.Storage.Backend = BackendSCIP }, "storage.scip_path"},
		{"zero cache", func(c *Config) { c.Storage.CacheSize = 0 }, "storage.cache_size"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero file size", func(c *Config) { c.Indexer.MaxFileSize = 0 }, "indexer.max_file_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := validate(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_ClientNetworkIgnoredWithoutAddress(t *testing.T) {
	cfg := Defaults()
	cfg.IDE.ClientAddress = ""
	cfg.IDE.ClientNetwork = "pipe"
	assert.NoError(t, validate(&cfg))

	cfg = Defaults()
	cfg.Storage.Backend = BackendSCIP
	cfg.Storage.SCIPPath = "index.scip"
	assert.NoError(t, validate(&cfg))
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultEnvFile),
		[]byte("IDEBRIDGE_CACHE_SIZE=32\nIDEBRIDGE_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("NATS_URL", "")
	t.Setenv("IDEBRIDGE_LOG_LEVEL", "warn")
	os.Unsetenv("IDEBRIDGE_CACHE_SIZE")
	t.Cleanup(func() { os.Unsetenv("IDEBRIDGE_CACHE_SIZE") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Storage.CacheSize, ".env fills unset variables")
	assert.Equal(t, "warn", cfg.Logging.Level, "process environment wins over .env")
}

func TestLoad_WithoutFiles(t *testing.T) {
	t.Setenv("NATS_URL", "")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Defaults().Storage, cfg.Storage)
}
