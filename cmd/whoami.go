// ABOUTME: Whoami command for the akctl CLI
// ABOUTME: Shows the display-only identity decoded from the current token

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artifact-keeper/akctl/internal/auth"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	Long: `Show the identity decoded from the current bearer token.

The decode is for display only; the token signature is not verified and
the server remains the authority on every request.

Exit codes:
  0 - Identity available
  1 - Not logged in`,
	Run: func(cmd *cobra.Command, args []string) {
		if code := runWhoami(os.Stdout, app); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(w io.Writer, a *App) int {
	id := a.Session.Identity()
	if id == nil {
		// Tokens injected via AK_TOKEN bypass the login flow
		if token := a.Transport.Token(); token != nil {
			id = auth.DecodeIdentity(*token)
		}
	}

	if id == nil {
		fmt.Fprintln(w, "Not logged in")
		return 1
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(id, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}

	fmt.Fprintf(w, "Username: %s\n", id.Username)
	fmt.Fprintf(w, "Email:    %s\n", id.Email)
	fmt.Fprintf(w, "Admin:    %t\n", id.IsAdmin)
	fmt.Fprintf(w, "TOTP:     %t\n", id.TOTPEnabled)
	return 0
}
