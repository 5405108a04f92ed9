// ABOUTME: Login command for the akctl CLI
// ABOUTME: Credential prompts, the TOTP challenge branch, and token adoption

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	loginUsername  string
	loginPassword  string
	loginTOTPCode  string
	loginShowToken bool
)

const totpRetries = 3

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the active server",
	Long: `Authenticate against the active server profile.

Missing credentials are prompted for interactively. When the account has
a TOTP second factor, the one-time code is requested after the password
is accepted.

The issued token lives only in this process. For scripted use, print it
with --show-token and export it as AK_TOKEN for follow-up commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runLogin(ctx, os.Stdout, app, loginUsername, loginPassword, loginTOTPCode, loginShowToken); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when omitted)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginTOTPCode, "totp-code", "", "TOTP code for accounts with a second factor")
	loginCmd.Flags().BoolVar(&loginShowToken, "show-token", false, "Print the issued bearer token")
}

// runLogin drives the login state machine from the command line.
func runLogin(ctx context.Context, w io.Writer, a *App, username, password, totpCode string, showToken bool) int {
	if _, ok := a.Store.Active(); !ok {
		fmt.Fprintln(w, "Error: no active server. Add one with: akctl server add NAME URL")
		return 2
	}

	interactive := username == "" || password == ""
	if interactive {
		if err := promptCredentials(&username, &password); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	result, err := a.Session.Login(ctx, username, password)
	if err != nil {
		fmt.Fprintf(w, "Login failed: %v\n", err)
		return 1
	}

	if result.TOTPRequired {
		if code := verifySecondFactor(ctx, w, a, totpCode, interactive); code != 0 {
			return code
		}
	}

	return reportLogin(w, a, showToken)
}

// verifySecondFactor runs the TOTP challenge. A rejected code leaves the
// session awaiting TOTP, so interactive runs get a bounded retry loop.
func verifySecondFactor(ctx context.Context, w io.Writer, a *App, code string, interactive bool) int {
	attempts := 1
	if interactive && code == "" {
		attempts = totpRetries
	}

	for i := 0; i < attempts; i++ {
		if code == "" {
			if err := promptTOTPCode(&code); err != nil {
				fmt.Fprintf(w, "Error: %v\n", err)
				return 2
			}
		}

		err := a.Session.VerifyTOTP(ctx, code)
		if err == nil {
			return 0
		}
		fmt.Fprintf(w, "TOTP verification failed: %v\n", err)
		code = ""
	}
	return 1
}

func reportLogin(w io.Writer, a *App, showToken bool) int {
	id := a.Session.Identity()
	token := a.Transport.Token()

	if IsJSONOutput() {
		out := map[string]any{"state": a.Session.State().String()}
		if id != nil {
			out["username"] = id.Username
			out["email"] = id.Email
			out["is_admin"] = id.IsAdmin
		}
		if a.Session.MustChangePassword() {
			out["must_change_password"] = true
		}
		if showToken && token != nil {
			out["token"] = *token
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}

	if id != nil {
		fmt.Fprintf(w, "%s Logged in as %s\n", styleOK.Render("✓"), id.Username)
	} else {
		fmt.Fprintf(w, "%s Logged in\n", styleOK.Render("✓"))
	}
	if a.Session.MustChangePassword() {
		fmt.Fprintf(w, "%s The server requires a password change: akctl passwd\n", styleWarn.Render("!"))
	}
	if showToken && token != nil {
		fmt.Fprintf(w, "export AK_TOKEN=%s\n", *token)
	}
	return 0
}

func promptCredentials(username, password *string) error {
	var fields []huh.Field
	if *username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(username))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func promptTOTPCode(code *string) error {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("One-time code").CharLimit(6).Value(code),
	)).Run()
}
