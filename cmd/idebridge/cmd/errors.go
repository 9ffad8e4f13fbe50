package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/idebridge/internal/adapters/socket"
	"github.com/corey/idebridge/internal/config"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock checks the bridge state and returns actionable guidance
// when a bbolt open fails due to lock contention.
func diagnoseDBLock(cfg *config.Config) string {
	client := socket.NewClient(cfg.IDE.ListenNetwork, cfg.IDE.ListenAddress)

	if client.Ping() {
		return fmt.Sprintf("database is locked by the running bridge at %s\n"+
			"  → stop it first:  kill the 'idebridge serve' process\n"+
			"  → then retry your command", cfg.IDE.ListenAddress)
	}

	return "database is locked by another process\n" +
		"  → find the process:  ps aux | grep 'idebridge'\n" +
		"  → kill it:           kill <PID>\n" +
		"  → then retry your command"
}
