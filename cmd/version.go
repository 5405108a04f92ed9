// ABOUTME: Version command for the akctl CLI
// ABOUTME: Prints the build version set at link time

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden with -ldflags at build time.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the akctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("akctl %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
