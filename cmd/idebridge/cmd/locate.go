package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/corey/idebridge/internal/app"
	"github.com/corey/idebridge/internal/domain/ide"
)

var locateCmd = &cobra.Command{
	Use:   "locate <file> <row> <col>",
	Short: "Show the token locations under a cursor position",
	Long:  "Runs the same lookup as an IDE setActiveToken message against the configured store.",
	Args:  cobra.ExactArgs(3),
	RunE:  runLocate,
}

func runLocate(cmd *cobra.Command, args []string) error {
	row, col, err := parsePosition(args[1], args[2])
	if err != nil {
		return err
	}
	root := projectRoot()
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	stores, err := app.OpenStores(root, cfg.Storage)
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("%s", diagnoseDBLock(cfg))
		}
		return err
	}
	defer stores.Close()

	file, err := stores.Reader.LocationsForLines(args[0], row, row)
	if err != nil {
		return err
	}
	fmt.Print(formatLocations(file, ide.SelectLocationIDs(file, col)))
	return nil
}

// parsePosition converts the row and column arguments. Rows are 1-based,
// column 0 means the start of the line.
func parsePosition(rowArg, colArg string) (int, int, error) {
	row, err := strconv.Atoi(rowArg)
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid row %q", rowArg)
	}
	col, err := strconv.Atoi(colArg)
	if err != nil || col < 0 {
		return 0, 0, fmt.Errorf("invalid column %q", colArg)
	}
	return row, col, nil
}
