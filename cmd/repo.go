// ABOUTME: Repository commands for the akctl CLI
// ABOUTME: List, create, and delete repositories through the request gateway

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artifact-keeper/akctl/internal/api"
)

var (
	repoType        string
	repoDescription string
)

// repository is the registry's repository resource.
type repository struct {
	Key         string `json:"key"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repositories on the active server",
}

var repoListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List repositories",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runRepoList(ctx, os.Stdout, app); code != 0 {
			os.Exit(code)
		}
	},
}

var repoCreateCmd = &cobra.Command{
	Use:   "create KEY",
	Short: "Create a repository",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runRepoCreate(ctx, os.Stdout, app, args[0], repoType, repoDescription); code != 0 {
			os.Exit(code)
		}
	},
}

var repoRemoveCmd = &cobra.Command{
	Use:     "rm KEY",
	Aliases: []string{"remove"},
	Short:   "Delete a repository",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runRepoRemove(ctx, os.Stdout, app, args[0]); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.AddCommand(repoListCmd, repoCreateCmd, repoRemoveCmd)
	repoCreateCmd.Flags().StringVar(&repoType, "type", "generic", "Repository type (generic, maven, npm, docker)")
	repoCreateCmd.Flags().StringVar(&repoDescription, "description", "", "Repository description")
}

func runRepoList(ctx context.Context, w io.Writer, a *App) int {
	repos, err := api.Request[[]repository](ctx, a.Gateway, http.MethodGet, "/api/v1/repositories", nil)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(repos, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}

	if len(repos) == 0 {
		fmt.Fprintln(w, "No repositories")
		return 0
	}
	for _, r := range repos {
		fmt.Fprintf(w, "%-24s %-10s %s\n", r.Key, r.Type, styleMuted.Render(r.Description))
	}
	return 0
}

func runRepoCreate(ctx context.Context, w io.Writer, a *App, key, repoType, description string) int {
	created, err := api.Request[repository](ctx, a.Gateway, http.MethodPost, "/api/v1/repositories", repository{
		Key:         key,
		Type:        repoType,
		Description: description,
	})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "%s Created repository %s (%s)\n", styleOK.Render("✓"), created.Key, created.Type)
	return 0
}

func runRepoRemove(ctx context.Context, w io.Writer, a *App, key string) int {
	path := "/api/v1/repositories/" + url.PathEscape(key)
	if err := a.Gateway.RequestVoid(ctx, http.MethodDelete, path, nil); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "Deleted repository %s\n", key)
	return 0
}
