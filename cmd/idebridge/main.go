// idebridge links an IDE plugin to a source index: it resolves the IDE's
// cursor to indexed token locations, imports solutions, and sends jump
// requests back to the IDE.
package main

import (
	"os"

	"github.com/corey/idebridge/cmd/idebridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
