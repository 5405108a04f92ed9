// ABOUTME: Logout command for the akctl CLI
// ABOUTME: Clears the in-memory token, identity, and any pending challenge

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the session",
	Long: `Clear the bearer token, identity, and any pending TOTP challenge.

Tokens are held only in memory, so this mainly matters inside a long-lived
process; running it repeatedly is harmless.`,
	Run: func(cmd *cobra.Command, args []string) {
		if code := runLogout(os.Stdout, app); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(w io.Writer, a *App) int {
	a.Session.Logout()
	fmt.Fprintln(w, "Logged out")
	return 0
}
