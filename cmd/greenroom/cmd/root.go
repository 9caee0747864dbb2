package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "greenroom",
	Short: "signaling and room-coordination hub for live broadcasts",
	Long: `Greenroom is the server-side signaling hub for a one-to-many live
video broadcasting service. It keeps the authoritative membership and
role state of named rooms, relays WebRTC signaling envelopes between
addressed peers, coordinates the stream-ready rendezvous, and fans out
room state and chat. Media never passes through it.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
