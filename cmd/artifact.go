// ABOUTME: Artifact commands for the akctl CLI
// ABOUTME: Multipart uploads and download URL construction

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
)

var artifactPath string

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Upload artifacts and build download URLs",
}

var artifactUploadCmd = &cobra.Command{
	Use:   "upload REPO FILE",
	Short: "Upload a file to a repository",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runArtifactUpload(ctx, os.Stdout, app, args[0], args[1], artifactPath); code != 0 {
			os.Exit(code)
		}
	},
}

var artifactURLCmd = &cobra.Command{
	Use:   "url REPO PATH",
	Short: "Print the download URL for an artifact",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if code := runArtifactURL(os.Stdout, app, args[0], args[1]); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(artifactCmd)
	artifactCmd.AddCommand(artifactUploadCmd, artifactURLCmd)
	artifactUploadCmd.Flags().StringVar(&artifactPath, "path", "", "Target path inside the repository")
}

func runArtifactUpload(ctx context.Context, w io.Writer, a *App, repoKey, filePath, targetPath string) int {
	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fields := map[string]string{}
	if targetPath != "" {
		fields["path"] = targetPath
	}

	uploadPath := "/api/v1/repositories/" + url.PathEscape(repoKey) + "/artifacts"
	if err := a.Gateway.UploadMultipart(ctx, uploadPath, data, filepath.Base(filePath), fields); err != nil {
		fmt.Fprintf(w, "Upload failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(w, "%s Uploaded %s to %s\n", styleOK.Render("✓"), filepath.Base(filePath), repoKey)
	return 0
}

func runArtifactURL(w io.Writer, a *App, repoKey, path string) int {
	u, ok := a.Gateway.BuildDownloadURL(repoKey, path)
	if !ok {
		fmt.Fprintln(w, "Error: no active server")
		return 2
	}

	fmt.Fprintln(w, u)
	return 0
}
