package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/corey/idebridge/internal/adapters/socket"
	"github.com/corey/idebridge/internal/app"
	"github.com/corey/idebridge/internal/config"
	"github.com/corey/idebridge/internal/domain/protocol"
)

var configFiles bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the project paths, bridge status and the effective configuration after YAML and environment overrides. No daemon required.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configFiles, "files", false, "list the indexed files")
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	paths := app.NewPaths(root)

	running := socket.NewClient(cfg.IDE.ListenNetwork, cfg.IDE.ListenAddress).Ping()
	status := fmt.Sprintf("%s✗ not running%s", colorYellow, colorReset)
	if running {
		status = fmt.Sprintf("%s✓ running%s", colorGreen, colorReset)
		if pid, err := paths.ReadPID(); err == nil {
			status += fmt.Sprintf(" (pid %d)", pid)
		}
	}

	fmt.Printf("%s⚡ idebridge config%s\n", colorBold, colorReset)
	fmt.Printf("  Root:       %s\n", root)
	fmt.Printf("  Data:       %s\n", paths.Root)
	fmt.Printf("  Listen:     %s %s\n", cfg.IDE.ListenNetwork, cfg.IDE.ListenAddress)
	fmt.Printf("  IDE:        %s %s\n", cfg.IDE.ClientNetwork, cfg.IDE.ClientAddress)
	fmt.Printf("  Log:        %s\n", paths.DaemonLog)
	fmt.Printf("  Protocol:   v%d\n", protocol.ProtocolVersion)
	fmt.Printf("  Grammars:   %s\n", formatGrammars(grammarLanguages(root, cfg)))
	fmt.Printf("  Bridge:     %s\n", status)

	// The daemon holds the bbolt lock while running.
	var files []string
	bolt := cfg.Storage.Backend != config.BackendSCIP
	if _, err := os.Stat(app.BoltPath(root, cfg.Storage)); bolt && err != nil {
		fmt.Printf("  Store:      %s (not indexed yet)\n\n", cfg.Storage.Backend)
	} else if bolt && running {
		fmt.Printf("  Store:      %s (in use by the bridge)\n\n", cfg.Storage.Backend)
	} else {
		stores, err := app.OpenStores(root, cfg.Storage)
		if err != nil {
			fmt.Printf("  Store:      %s%v%s\n\n", colorYellow, err, colorReset)
		} else {
			sum, err := stores.Summary()
			if err == nil && configFiles {
				files, err = stores.Files()
			}
			stores.Close()
			if err != nil {
				return err
			}
			fmt.Printf("  Store:      %s\n\n", formatSummary(sum))
		}
	}
	if configFiles {
		for _, f := range files {
			fmt.Println(f)
		}
		return nil
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
