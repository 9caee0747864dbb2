package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and BuildTime are set at build time via -ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func versionString() string {
	return fmt.Sprintf("%s %s", Version, BuildTime)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of greenroom",
	Long:  `All software has versions. This is greenroom's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionString())
	},
}
