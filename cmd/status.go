// ABOUTME: Status command for the akctl CLI
// ABOUTME: Probes connectivity and setup state of the active server in parallel

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/artifact-keeper/akctl/internal/api"
)

// setupStatusResponse is the GET /setup_status reply.
type setupStatusResponse struct {
	SetupRequired bool `json:"setup_required"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active server's status",
	Long: `Show the active server profile, its reachability, whether first-run
setup is still required, and the session state.

Exit codes:
  0 - Server reachable
  1 - Server unreachable
  2 - No active server`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runStatus(ctx, os.Stdout, app); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(ctx context.Context, w io.Writer, a *App) int {
	active, ok := a.Store.Active()
	if !ok {
		fmt.Fprintln(w, "Error: no active server. Add one with: akctl server add NAME URL")
		return 2
	}

	var (
		healthy bool
		setup   *setupStatusResponse
	)

	// Probe failures and a missing setup endpoint both degrade to "unknown";
	// neither aborts the other probe.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		healthy = a.Transport.TestConnection(gctx, active.URL)
		return nil
	})
	g.Go(func() error {
		resp, err := api.Request[setupStatusResponse](gctx, a.Gateway, http.MethodGet, "/setup_status", nil)
		if err == nil {
			setup = &resp
		}
		return nil
	})
	g.Wait()

	if IsJSONOutput() {
		out := map[string]any{
			"server":    active.Name,
			"url":       active.URL,
			"reachable": healthy,
			"session":   a.Session.State().String(),
		}
		if setup != nil {
			out["setup_required"] = setup.SetupRequired
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		reach := styleFail.Render("unreachable")
		if healthy {
			reach = styleOK.Render("ok")
		}
		fmt.Fprintf(w, "Server:   %s %s\n", active.Name, styleMuted.Render(active.URL))
		fmt.Fprintf(w, "Health:   %s\n", reach)
		if setup != nil {
			fmt.Fprintf(w, "Setup:    required=%t\n", setup.SetupRequired)
		} else {
			fmt.Fprintf(w, "Setup:    %s\n", styleMuted.Render("unknown"))
		}
		fmt.Fprintf(w, "Session:  %s\n", a.Session.State())
	}

	if !healthy {
		return 1
	}
	return 0
}
