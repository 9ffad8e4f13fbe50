package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/idebridge/internal/app"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir...]",
	Short: "Index source files into the location store",
	Long:  "Parses C and C++ sources with tree-sitter and replaces their token locations in the bbolt store. Defaults to the project root.",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	indexer := newIndexer(root, cfg)
	if indexer == nil {
		return fmt.Errorf("source indexing requires a cgo build")
	}

	stores, err := app.OpenStores(root, cfg.Storage)
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("%s", diagnoseDBLock(cfg))
		}
		return err
	}
	defer stores.Close()
	if stores.Writer == nil {
		return fmt.Errorf("storage backend %q is read-only", cfg.Storage.Backend)
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{root}
	}
	res, err := app.IndexTree(roots, indexer, stores.Writer, cfg.Indexer.MaxFileSize, newLogger(cfg))
	if err != nil {
		return err
	}
	fmt.Print(formatIndexResult(res))
	if sum, err := stores.Summary(); err == nil {
		fmt.Printf("  store: %s\n", formatSummary(sum))
	}
	return nil
}
