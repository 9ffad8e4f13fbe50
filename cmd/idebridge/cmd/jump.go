package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/idebridge/internal/adapters/socket"
	"github.com/corey/idebridge/internal/domain/ide"
)

var jumpCmd = &cobra.Command{
	Use:   "jump <file> <row> <col>",
	Short: "Move the IDE cursor to a file position",
	Long:  "Sends a moveCursor message to the IDE endpoint from ide.client_address. No daemon required.",
	Args:  cobra.ExactArgs(3),
	RunE:  runJump,
}

func runJump(cmd *cobra.Command, args []string) error {
	row, col, err := parsePosition(args[1], args[2])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(projectRoot())
	if err != nil {
		return err
	}
	if cfg.IDE.ClientAddress == "" {
		return fmt.Errorf("ide.client_address is not configured")
	}

	client := socket.NewClient(cfg.IDE.ClientNetwork, cfg.IDE.ClientAddress)
	client.DialTimeout = cfg.IDE.DialTimeout
	client.WriteTimeout = cfg.IDE.WriteTimeout

	ctrl := ide.New(ide.Config{Transport: client, Logger: newLogger(cfg)})
	if err := ctrl.MoveCursor(ide.MoveCursorRequest{FilePath: args[0], Row: row, Column: col}); err != nil {
		return err
	}
	fmt.Printf("⚡ jumped to %s:%d:%d\n", args[0], row, col)
	return nil
}
