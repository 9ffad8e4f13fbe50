// Package app wires the bridge together: configuration, the location store,
// the IDE socket link, event fan-out and the solution watcher.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/corey/idebridge/internal/adapters/bus"
	fsw "github.com/corey/idebridge/internal/adapters/fsnotify"
	natsadapter "github.com/corey/idebridge/internal/adapters/nats"
	"github.com/corey/idebridge/internal/adapters/socket"
	"github.com/corey/idebridge/internal/adapters/vssolution"
	"github.com/corey/idebridge/internal/config"
	"github.com/corey/idebridge/internal/domain/ide"
	"github.com/corey/idebridge/internal/domain/protocol"
	"github.com/corey/idebridge/internal/ports"
)

// App is the running bridge daemon.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Config      *config.Config
	Logger      *slog.Logger

	Stores     *Stores
	Controller *ide.Controller
	Server     *socket.Server
	Client     *socket.Client // nil when outbound messages are disabled
	Bus        *bus.Bus
	NATS       *natsadapter.Publisher // nil when nats.url is empty
	Watcher    *fsw.Watcher           // nil when no solution is watched
	Indexer    ports.SourceIndexer    // nil in builds without tree-sitter

	mu          sync.Mutex
	started     time.Time
	unsubscribe func()
	stopOnce    sync.Once
}

// Options configures New.
type Options struct {
	ProjectRoot string
	Config      *config.Config      // nil loads <root>/idebridge.yaml
	Logger      *slog.Logger        // nil uses slog.Default
	Indexer     ports.SourceIndexer // optional
	Events      []ports.Publisher   // extra event sinks, after bus and NATS
}

// New creates an App with all dependencies wired. Does not start services.
func New(opts Options) (*App, error) {
	if opts.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	root, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	cfg := opts.Config
	if cfg == nil {
		if cfg, err = config.Load(root); err != nil {
			return nil, err
		}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	a := &App{
		ProjectRoot: root,
		Paths:       NewPaths(root),
		Config:      cfg,
		Logger:      log,
		Indexer:     opts.Indexer,
	}
	if err := a.Paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create %s: %w", a.Paths.Root, err)
	}

	a.Stores, err = OpenStores(root, cfg.Storage)
	if err != nil {
		return nil, err
	}

	a.Bus = bus.New(cfg.IDE.EventQueue)
	a.Bus.Subscribe(bus.LogSubscriber(log.With("component", "events")))
	events := ports.MultiPublisher{a.Bus}

	if cfg.NATS.URL != "" {
		a.NATS, err = natsadapter.Connect(cfg.NATS.URL, cfg.NATS.Prefix, log.With("component", "nats"))
		if err != nil {
			a.Bus.Close()
			a.Stores.Close()
			return nil, err
		}
		events = append(events, a.NATS)
	}
	events = append(events, opts.Events...)

	ctrl := ide.Config{
		Store: a.Stores.Reader,
		Solutions: map[protocol.IDEKind]ports.SolutionParser{
			protocol.IDEVisualStudio: vssolution.NewParser(log.With("component", "vssolution")),
		},
		Events: events,
		Logger: log.With("component", "ide"),
	}
	if cfg.IDE.ClientAddress != "" {
		a.Client = socket.NewClient(cfg.IDE.ClientNetwork, cfg.IDE.ClientAddress)
		if cfg.IDE.DialTimeout > 0 {
			a.Client.DialTimeout = cfg.IDE.DialTimeout
		}
		if cfg.IDE.WriteTimeout > 0 {
			a.Client.WriteTimeout = cfg.IDE.WriteTimeout
		}
		ctrl.Transport = a.Client
	}
	a.Controller = ide.New(ctrl)

	a.Server = socket.NewServer(cfg.IDE.ListenNetwork, cfg.IDE.ListenAddress, a.Controller, log.With("component", "socket"))

	if cfg.Watch.Solution != "" {
		a.Watcher, err = fsw.NewWatcher(cfg.Watch.Debounce, log.With("component", "watcher"))
		if err != nil {
			a.closeBackends()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
	}

	return a, nil
}

// Start begins the daemon: socket server, solution watcher and the NATS
// command feed. The watcher and NATS feed are non-fatal.
func (a *App) Start() error {
	a.mu.Lock()
	a.started = time.Now()
	a.mu.Unlock()

	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	if a.Watcher != nil {
		sln := resolvePath(a.ProjectRoot, a.Config.Watch.Solution)
		if err := a.Watcher.Watch(sln, a.onSolutionChanged); err != nil {
			a.Logger.Warn("solution watcher unavailable", "solution", sln, "error", err)
		}
	}

	if a.NATS != nil {
		unsub, err := a.NATS.SubscribeMoveCursor(a.Controller.MoveCursor)
		if err != nil {
			a.Logger.Warn("nats command feed unavailable", "error", err)
		} else {
			a.mu.Lock()
			a.unsubscribe = unsub
			a.mu.Unlock()
		}
	}

	sum, err := a.Stores.Summary()
	if err != nil {
		a.Logger.Warn("store summary", "error", err)
	}
	a.Logger.Info("bridge started",
		"listen", a.Server.Addr(),
		"ide", a.Config.IDE.ClientAddress,
		"backend", a.Config.Storage.Backend,
		"files", sum.Files,
		"locations", sum.Records)
	return nil
}

// Stop shuts down all services. Idempotent.
func (a *App) Stop() error {
	var err error
	a.stopOnce.Do(func() {
		uptime := a.Uptime()
		a.mu.Lock()
		unsub := a.unsubscribe
		a.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		if a.Watcher != nil {
			a.Watcher.Stop()
		}
		err = a.Server.Stop()
		a.closeBackends()
		a.Paths.CleanEphemeral()

		attrs := []any{"uptime", uptime.Round(time.Millisecond), "events_dropped", a.Bus.DroppedCount()}
		if a.NATS != nil {
			attrs = append(attrs, "nats_failed", a.NATS.FailedCount())
		}
		a.Logger.Info("bridge stopped", attrs...)
	})
	return err
}

// closeBackends drains the event bus before closing NATS so queued events
// still reach every sink, then closes the store.
func (a *App) closeBackends() {
	a.Bus.Close()
	if a.NATS != nil {
		if err := a.NATS.Close(); err != nil {
			a.Logger.Warn("nats close", "error", err)
		}
	}
	if err := a.Stores.Close(); err != nil {
		a.Logger.Warn("store close", "error", err)
	}
}

// Uptime returns how long the daemon has been running.
func (a *App) Uptime() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started.IsZero() {
		return 0
	}
	return time.Since(a.started)
}

// Reindex runs the source indexer over roots, or the project root when none
// are given.
func (a *App) Reindex(roots ...string) (*IndexResult, error) {
	if a.Indexer == nil {
		return nil, fmt.Errorf("source indexing unavailable in this build")
	}
	if a.Stores.Writer == nil {
		return nil, fmt.Errorf("storage backend %q is read-only", a.Config.Storage.Backend)
	}
	if len(roots) == 0 {
		roots = []string{a.ProjectRoot}
	}
	return IndexTree(roots, a.Indexer, a.Stores.Writer, a.Config.Indexer.MaxFileSize, a.Logger.With("component", "indexer"))
}
