// Package commands implements the clapbridge-host CLI's subcommands.
package commands

import "github.com/spf13/cobra"

// RootCmd is the clapbridge-host entry point.
var RootCmd = &cobra.Command{
	Use:   "clapbridge-host",
	Short: "A synthetic host exercising a clap-rci plugin end-to-end",
	Long: `clapbridge-host registers one synthetic plugin instance, serves it
over the plugin-service RPC, and drives it with a ticker standing in for a
real DAW's audio callback, so a gRPC client can connect and observe events
flowing through the library.`,
}

func init() {
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(VersionCmd)
}
