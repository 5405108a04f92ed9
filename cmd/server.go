// ABOUTME: Server profile commands for the akctl CLI
// ABOUTME: Add, list, remove, switch, and probe named registry servers

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artifact-keeper/akctl/internal/config"
)

var serverTestBeforeSave bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage registry server profiles",
}

var serverAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a server profile",
	Long: `Add a named server profile. The first profile added becomes active.

Exit codes:
  0 - Profile saved
  1 - Connectivity probe failed (--test)
  2 - Error`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runServerAdd(ctx, os.Stdout, app, args[0], args[1], serverTestBeforeSave); code != 0 {
			os.Exit(code)
		}
	},
}

var serverListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List server profiles",
	Run: func(cmd *cobra.Command, args []string) {
		if code := runServerList(os.Stdout, app); code != 0 {
			os.Exit(code)
		}
	},
}

var serverRemoveCmd = &cobra.Command{
	Use:     "rm NAME",
	Aliases: []string{"remove"},
	Short:   "Remove a server profile",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if code := runServerRemove(os.Stdout, app, args[0]); code != 0 {
			os.Exit(code)
		}
	},
}

var serverUseCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Switch the active server profile",
	Long: `Switch the active server profile.

Switching servers always logs the session out: a bearer token is scoped
to the server that issued it. The switch completes even when the new
server is unreachable.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runServerUse(ctx, os.Stdout, app, args[0]); code != 0 {
			os.Exit(code)
		}
	},
}

var serverTestCmd = &cobra.Command{
	Use:   "test URL",
	Short: "Probe a server's health endpoint",
	Long: `Probe {URL}/health with a short timeout.

Exit codes:
  0 - Server reachable (2xx)
  1 - Server unreachable`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runServerTest(ctx, os.Stdout, app, args[0]); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverAddCmd, serverListCmd, serverRemoveCmd, serverUseCmd, serverTestCmd)
	serverAddCmd.Flags().BoolVar(&serverTestBeforeSave, "test", false, "Probe the server before saving the profile")
}

// runServerAdd saves a new profile, optionally probing the URL first.
func runServerAdd(ctx context.Context, w io.Writer, a *App, name, rawURL string, test bool) int {
	rawURL = config.EnsureScheme(rawURL)

	if test && !a.Transport.TestConnection(ctx, rawURL) {
		fmt.Fprintf(w, "%s %s is not reachable; profile not saved\n", styleFail.Render("✗"), rawURL)
		return 1
	}

	srv, err := a.Store.Add(name, rawURL)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	active, _ := a.Store.Active()
	if active.ID == srv.ID {
		fmt.Fprintf(w, "Added %s (%s) and made it active\n", srv.Name, srv.URL)
	} else {
		fmt.Fprintf(w, "Added %s (%s)\n", srv.Name, srv.URL)
	}
	return 0
}

// runServerList prints all profiles with the active one marked.
func runServerList(w io.Writer, a *App) int {
	servers := a.Store.Servers()
	active, hasActive := a.Store.Active()

	if IsJSONOutput() {
		out := struct {
			Servers        []serverJSON `json:"servers"`
			ActiveServerID string       `json:"active_server_id,omitempty"`
		}{Servers: []serverJSON{}}
		for _, srv := range servers {
			out.Servers = append(out.Servers, serverJSON{ID: srv.ID, Name: srv.Name, URL: srv.URL})
		}
		if hasActive {
			out.ActiveServerID = active.ID
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}

	if len(servers) == 0 {
		fmt.Fprintln(w, "No server profiles. Add one with: akctl server add NAME URL")
		return 0
	}

	for _, srv := range servers {
		marker := " "
		name := srv.Name
		if hasActive && srv.ID == active.ID {
			marker = styleActive.Render("*")
			name = styleActive.Render(srv.Name)
		}
		fmt.Fprintf(w, "%s %-20s %s\n", marker, name, styleMuted.Render(srv.URL))
	}
	return 0
}

type serverJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// runServerRemove deletes a profile by name or id.
func runServerRemove(w io.Writer, a *App, nameOrID string) int {
	srv, ok := a.Store.Find(nameOrID)
	if !ok {
		fmt.Fprintf(w, "Error: no profile named %q\n", nameOrID)
		return 2
	}

	if err := a.Store.Remove(srv.ID); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "Removed %s\n", srv.Name)
	if active, ok := a.Store.Active(); ok {
		if active.ID != srv.ID {
			fmt.Fprintf(w, "Active server is now %s (%s)\n", active.Name, active.URL)
		}
	} else {
		fmt.Fprintln(w, "No server profiles remain")
	}
	return 0
}

// runServerUse activates a profile and reports connectivity best-effort.
// The switch and the forced logout complete regardless of the probe.
func runServerUse(ctx context.Context, w io.Writer, a *App, nameOrID string) int {
	srv, ok := a.Store.Find(nameOrID)
	if !ok {
		fmt.Fprintf(w, "Error: no profile named %q\n", nameOrID)
		return 2
	}

	if err := a.Store.SwitchTo(srv.ID); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "Switched to %s (%s); logged out\n", srv.Name, srv.URL)
	if !a.Transport.TestConnection(ctx, srv.URL) {
		fmt.Fprintf(w, "%s %s is not currently reachable\n", styleWarn.Render("!"), srv.URL)
	}
	return 0
}

// runServerTest probes a candidate URL before it is saved as a profile.
func runServerTest(ctx context.Context, w io.Writer, a *App, rawURL string) int {
	rawURL = config.EnsureScheme(rawURL)

	if a.Transport.TestConnection(ctx, rawURL) {
		fmt.Fprintf(w, "%s %s is reachable\n", styleOK.Render("✓"), rawURL)
		return 0
	}
	fmt.Fprintf(w, "%s %s is not reachable\n", styleFail.Render("✗"), rawURL)
	return 1
}
