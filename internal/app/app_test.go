package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/idebridge/internal/adapters/socket"
	"github.com/corey/idebridge/internal/config"
	"github.com/corey/idebridge/internal/domain/ide"
	"github.com/corey/idebridge/internal/domain/protocol"
	"github.com/corey/idebridge/internal/logger"
	"github.com/corey/idebridge/internal/ports"
)

// recorder collects published events and wire messages.
type recorder struct {
	mu     sync.Mutex
	events []ports.Event
	msgs   []string
}

func (r *recorder) Publish(ev ports.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) HandleIncomingMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) eventsOf(kind ports.EventKind) []ports.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ports.Event
	for _, ev := range r.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// testConfig points both IDE endpoints at unix sockets under dir.
func testConfig(dir string) *config.Config {
	cfg := config.Defaults()
	cfg.IDE.ListenNetwork = "unix"
	cfg.IDE.ListenAddress = filepath.Join(dir, "bridge.sock")
	cfg.IDE.ClientNetwork = "unix"
	cfg.IDE.ClientAddress = filepath.Join(dir, "ide.sock")
	cfg.Watch.Debounce = 20 * time.Millisecond
	return &cfg
}

func newTestApp(t *testing.T, cfg *config.Config, root string, rec *recorder) *App {
	t.Helper()
	a, err := New(Options{
		ProjectRoot: root,
		Config:      cfg,
		Logger:      logger.Discard(),
		Indexer:     newLineIndexer(".cpp", ".h"),
		Events:      []ports.Publisher{rec},
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Stop() })
	return a
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Storage.Backend = "sqlite"
	_, err := New(Options{ProjectRoot: t.TempDir(), Config: cfg, Logger: logger.Discard()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestNew_MissingSCIPIndex(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Storage.Backend = config.BackendSCIP
	cfg.Storage.SCIPPath = "index.scip"
	_, err := New(Options{ProjectRoot: t.TempDir(), Config: cfg, Logger: logger.Discard()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open scip index")
}

func TestApp_SetActiveTokenOverSocket(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src", "main.cpp")
	writeFile(t, src, "int main;\n    return 0;\n")

	rec := &recorder{}
	a := newTestApp(t, testConfig(t.TempDir()), root, rec)
	res, err := a.Reindex()
	require.NoError(t, err)
	require.Equal(t, 1, res.FileCount)
	require.NoError(t, a.Start())

	client := socket.NewClient("unix", a.Config.IDE.ListenAddress)
	require.NoError(t, client.Send(protocol.BuildSetActiveToken(src, 2, 5)))

	require.Eventually(t, func() bool {
		return len(rec.eventsOf(ports.EventActivateWindow)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	activations := rec.eventsOf(ports.EventActivateTokenLocations)
	require.Len(t, activations, 1)
	assert.Equal(t, []uint64{2}, activations[0].(ports.ActivateTokenLocationsEvent).LocationIDs)

	statuses := rec.eventsOf(ports.EventStatus)
	require.Len(t, statuses, 1)
	assert.Equal(t, ide.StatusActivateSucceeded, statuses[0].(ports.StatusEvent).Text)
}

func TestApp_BackslashPathsResolve(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.cpp")
	writeFile(t, src, "int a;\n")

	rec := &recorder{}
	a := newTestApp(t, testConfig(t.TempDir()), root, rec)
	_, err := a.Reindex()
	require.NoError(t, err)

	a.Controller.HandleIncomingMessage(protocol.BuildSetActiveToken(strings.ReplaceAll(src, "/", `\`), 1, 1))
	assert.Len(t, rec.eventsOf(ports.EventActivateTokenLocations), 1)
}

func TestApp_NoSymbolPublishesFailure(t *testing.T) {
	rec := &recorder{}
	a := newTestApp(t, testConfig(t.TempDir()), t.TempDir(), rec)

	a.Controller.HandleIncomingMessage(protocol.BuildSetActiveToken("/nowhere.cpp", 1, 1))

	statuses := rec.eventsOf(ports.EventStatus)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].(ports.StatusEvent).Error)
	assert.Empty(t, rec.eventsOf(ports.EventActivateWindow))
}

func TestApp_MoveCursorReachesIDE(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	fakeIDE := &recorder{}
	ideServer := socket.NewServer("unix", cfg.IDE.ClientAddress, fakeIDE, logger.Discard())
	require.NoError(t, ideServer.Start())
	defer ideServer.Stop()

	rec := &recorder{}
	a := newTestApp(t, cfg, t.TempDir(), rec)
	require.NoError(t, a.Start())

	require.NoError(t, a.Controller.MoveCursor(ide.MoveCursorRequest{FilePath: "/w/a.cpp", Row: 3, Column: 9}))

	require.Eventually(t, func() bool { return len(fakeIDE.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "moveCursor>>/w/a.cpp>>3>>9<EOM>", fakeIDE.messages()[0])
	assert.Len(t, rec.eventsOf(ports.EventStatus), 1)
}

func TestApp_MoveCursorWithoutIDE(t *testing.T) {
	cfg := testConfig(t.TempDir())
	a := newTestApp(t, cfg, t.TempDir(), &recorder{})
	err := a.Controller.MoveCursor(ide.MoveCursorRequest{FilePath: "a.cpp", Row: 1, Column: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect")
}

func TestApp_MoveCursorDisabled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.IDE.ClientAddress = ""
	a := newTestApp(t, cfg, t.TempDir(), &recorder{})
	assert.Nil(t, a.Client)
	assert.ErrorIs(t, a.Controller.MoveCursor(ide.MoveCursorRequest{FilePath: "a.cpp", Row: 1}), ide.ErrNoTransport)
}

func TestApp_ReindexReadOnlyOrMissingIndexer(t *testing.T) {
	root := t.TempDir()
	a, err := New(Options{ProjectRoot: root, Config: testConfig(t.TempDir()), Logger: logger.Discard()})
	require.NoError(t, err)
	defer a.Stop()

	_, err = a.Reindex()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestApp_StartStop(t *testing.T) {
	a := newTestApp(t, testConfig(t.TempDir()), t.TempDir(), &recorder{})
	assert.Zero(t, a.Uptime())
	require.NoError(t, a.Start())
	assert.Greater(t, a.Uptime(), time.Duration(0))

	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop(), "stop is idempotent")
	assert.False(t, socket.NewClient("unix", a.Config.IDE.ListenAddress).Ping())
}

func TestApp_StopLogsCounters(t *testing.T) {
	var buf bytes.Buffer
	a, err := New(Options{
		ProjectRoot: t.TempDir(),
		Config:      testConfig(t.TempDir()),
		Logger:      logger.NewWithWriter(config.Logging{Level: "info"}, &buf),
	})
	require.NoError(t, err)
	require.NoError(t, a.Start())
	require.NoError(t, a.Stop())

	out := buf.String()
	assert.Contains(t, out, "bridge started")
	assert.Contains(t, out, "files=0")
	assert.Contains(t, out, "bridge stopped")
	assert.Contains(t, out, "events_dropped=0")
	assert.NotContains(t, out, "nats_failed")
}

func TestApp_StoreUnderProjectDir(t *testing.T) {
	root := t.TempDir()
	a := newTestApp(t, testConfig(t.TempDir()), root, &recorder{})
	require.NotNil(t, a.Stores.Bolt)
	assert.FileExists(t, filepath.Join(root, ".idebridge", "index.db"))
}
