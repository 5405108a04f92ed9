// ABOUTME: Root command for the akctl CLI
// ABOUTME: Handles global flags and core assembly

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/artifact-keeper/akctl/internal/config"
	"github.com/artifact-keeper/akctl/internal/logger"
)

var (
	jsonOutput bool
	app        *App
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "akctl",
	Short: "CLI for the Artifact Keeper registry",
	Long: `akctl is a command-line client for an Artifact Keeper registry.

It manages named server profiles, authenticates with bearer tokens
(including TOTP second factors), and drives repository and artifact
operations over the registry's REST API.

Environment Variables:
  AK_CONFIG_DIR       Profile registry location (default: ~/.config/artifact-keeper)
  AK_TOKEN            Bearer token for scripted, non-interactive use
  AK_TLS_SKIP_VERIFY  Accept self-signed server certificates (default: false)
  AK_REQUEST_TIMEOUT  Request timeout in seconds (default: 30)
  AK_PROBE_TIMEOUT    Connectivity probe timeout in seconds (default: 10)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		app = NewApp(cfg)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
