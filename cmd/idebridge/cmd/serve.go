package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corey/idebridge/internal/adapters/socket"
	"github.com/corey/idebridge/internal/app"
	"github.com/corey/idebridge/internal/logger"
)

var serveReindex bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	Long:  "Listens for IDE messages, publishes events and forwards jump requests until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveReindex, "reindex", false, "index the project root before listening")
}

func runServe(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	paths := app.NewPaths(root)
	logFile, err := paths.OpenDaemonLog()
	if err != nil {
		return fmt.Errorf("daemon log: %w", err)
	}
	defer logFile.Close()
	log := logger.NewWithWriter(cfg.Logging, io.MultiWriter(os.Stderr, logFile))

	// Check if already running
	if socket.NewClient(cfg.IDE.ListenNetwork, cfg.IDE.ListenAddress).Ping() {
		fmt.Printf("⚡ bridge already running at %s\n", cfg.IDE.ListenAddress)
		return nil
	}

	a, err := app.New(app.Options{
		ProjectRoot: root,
		Config:      cfg,
		Logger:      log,
		Indexer:     newIndexer(root, cfg),
	})
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("%s", diagnoseDBLock(cfg))
		}
		return fmt.Errorf("init: %w", err)
	}

	if serveReindex {
		res, err := a.Reindex()
		if err != nil {
			a.Stop()
			return fmt.Errorf("reindex: %w", err)
		}
		fmt.Print(formatIndexResult(res))
	}

	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}
	if err := a.Paths.WritePID(os.Getpid()); err != nil {
		log.Warn("pid file", "error", err)
	}

	fmt.Printf("⚡ idebridge listening on %s %s\n", cfg.IDE.ListenNetwork, a.Server.Addr())

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\n⚡ shutting down...")
	return a.Stop()
}
