// Command clapbridge-host is a small demo host exercising clap-rci end
// to end; it is not part of the library's own external interface (see
// SPEC_FULL.md §9), the same way cmd/qntx ships alongside QNTX's core
// packages.
package main

import (
	"fmt"
	"os"

	"github.com/deeedob/clap-rci/cmd/clapbridge-host/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
