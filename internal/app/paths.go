package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Paths holds all resolved filesystem paths for the .idebridge/ project directory.
type Paths struct {
	Root   string // .idebridge/
	DB     string // .idebridge/index.db
	Config string // idebridge.yaml, next to .idebridge/

	LogDir    string // .idebridge/log/
	DaemonLog string // .idebridge/log/daemon.log

	RunDir  string // .idebridge/run/
	PIDFile string // .idebridge/run/daemon.pid

	GrammarsDir string // .idebridge/grammars/
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".idebridge")
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "index.db"),
		Config: filepath.Join(projectRoot, "idebridge.yaml"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:  filepath.Join(root, "run"),
		PIDFile: filepath.Join(root, "run", "daemon.pid"),

		GrammarsDir: filepath.Join(root, "grammars"),
	}
}

// EnsureDirs creates all subdirectories under .idebridge/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir, p.RunDir, p.GrammarsDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// OpenDaemonLog opens the daemon log for appending, creating it if needed.
func (p *Paths) OpenDaemonLog() (*os.File, error) {
	if err := os.MkdirAll(p.LogDir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(p.DaemonLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// WritePID records the running daemon's process ID.
func (p *Paths) WritePID(pid int) error {
	if err := os.MkdirAll(p.RunDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(p.PIDFile, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

// ReadPID returns the PID recorded by WritePID.
func (p *Paths) ReadPID() (int, error) {
	data, err := os.ReadFile(p.PIDFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("corrupt pid file %s: %w", p.PIDFile, err)
	}
	return pid, nil
}

// CleanEphemeral removes ephemeral runtime files.
// Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
}
