package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/idebridge/internal/adapters/vssolution"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import <solution.sln>",
	Short: "Parse a Visual Studio solution",
	Long:  "Prints the project name, root, source files and include paths a createProject request would import.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print JSON")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(projectRoot())
	if err != nil {
		return err
	}

	sln, err := vssolution.NewParser(newLogger(cfg)).OpenSolution(args[0])
	if err != nil {
		return err
	}

	if importJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sln)
	}
	fmt.Print(formatSolution(sln))
	return nil
}
