package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/onairhq/greenroom/internal/probe"
)

var rootCmd = &cobra.Command{
	Use:   "greenroom-probe",
	Short: "canary check against a running greenroom instance",
	Long: `Greenroom-probe checks that a greenroom instance is serving: GET
/health must answer ok, GET /rooms must answer a room list, and the /ws
signaling channel must accept a websocket dial. Configure with
environment variables, for example:

export GREENROOMPROBE_TARGET=http://localhost:3000
export GREENROOMPROBE_TIMEOUT=5s
export GREENROOMPROBE_EVERY=30s
greenroom-probe

With GREENROOMPROBE_EVERY unset the probe checks once and exits 0 or 1,
for use in deployment scripts and container healthchecks.`,
	Run: func(cmd *cobra.Command, args []string) {
		probe.Probe()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
