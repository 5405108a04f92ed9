// ABOUTME: Password change command for the akctl CLI
// ABOUTME: Satisfies the server's forced-password-change flag

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the current user's password",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runPasswd(ctx, os.Stdout, app, promptPasswordChange); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

// passwordPrompt collects the current and new password.
type passwordPrompt func() (current, next string, err error)

func runPasswd(ctx context.Context, w io.Writer, a *App, prompt passwordPrompt) int {
	if a.Transport.Token() == nil {
		fmt.Fprintln(w, "Error: not logged in. Run akctl login or set AK_TOKEN.")
		return 2
	}

	current, next, err := prompt()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if err := a.Session.ChangePassword(ctx, current, next); err != nil {
		fmt.Fprintf(w, "Password change failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(w, "%s Password changed\n", styleOK.Render("✓"))
	return 0
}

func promptPasswordChange() (string, string, error) {
	var current, next, confirm string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(&current),
		huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&next),
		huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).Value(&confirm),
	)).Run()
	if err != nil {
		return "", "", err
	}
	if next != confirm {
		return "", "", fmt.Errorf("new passwords do not match")
	}
	return current, next, nil
}
