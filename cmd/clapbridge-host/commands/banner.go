package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/deeedob/clap-rci/internal/version"
)

// printStartupBanner prints a short human-readable summary of how the
// demo host is configured before serve begins accepting connections,
// the way cmd/qntx prints a banner ahead of its own server loop.
func printStartupBanner(addr, pluginPath string, ringCapacity int) {
	cyan := "\033[36m"
	bold := "\033[1m"
	reset := "\033[0m"

	info := version.Get()
	fmt.Printf("\n%s%sclapbridge-host%s %s\n\n", cyan, bold, reset, info.Version)

	pterm.Info.Printfln("rpc address:   %s", addr)
	pterm.Info.Printfln("plugin path:   %s", pluginPath)
	pterm.Info.Printfln("ring capacity: %d", ringCapacity)
	fmt.Println()
	pterm.Info.Println("press Ctrl+C to stop")
}
