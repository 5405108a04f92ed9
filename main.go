// ABOUTME: Entry point for the akctl CLI
// ABOUTME: Command-line client for the Artifact Keeper registry

package main

import (
	"fmt"
	"os"

	"github.com/artifact-keeper/akctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
