// Command canopyctl builds commissioning report contexts from project files
// and works with portable project links.
package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/canopy-commissioning/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
