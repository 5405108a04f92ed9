// ABOUTME: Shared helpers for command tests
// ABOUTME: Builds isolated Apps and JWT-shaped tokens

package cmd

import (
	"encoding/base64"
	"testing"

	"github.com/artifact-keeper/akctl/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{
		ConfigDir:      t.TempDir(),
		RequestTimeout: 5,
		ProbeTimeout:   2,
	}
	return NewApp(cfg)
}

// testToken builds an unsigned JWT-shaped token for the given payload.
func testToken(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".sig"
}
