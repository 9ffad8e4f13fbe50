package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/idebridge/internal/adapters/socket"
	"github.com/corey/idebridge/internal/domain/protocol"
)

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a raw wire message to the running bridge",
	Long: "Delivers one message to ide.listen_address as the IDE would, for example\n" +
		"  idebridge send 'setActiveToken>>/src/main.cpp>>12>>5'",
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(projectRoot())
	if err != nil {
		return err
	}
	msg := args[0]
	if protocol.Classify(msg) == protocol.Unknown {
		return fmt.Errorf("%w: %q", protocol.ErrProtocol, msg)
	}

	client := socket.NewClient(cfg.IDE.ListenNetwork, cfg.IDE.ListenAddress)
	if !client.Ping() {
		return fmt.Errorf("bridge not running at %s. Start with: idebridge serve", cfg.IDE.ListenAddress)
	}
	if err := client.Send(msg); err != nil {
		return err
	}
	fmt.Printf("⚡ sent %s\n", protocol.Classify(msg))
	return nil
}
