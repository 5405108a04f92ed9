// ABOUTME: Tests for the logout command
// ABOUTME: Verifies token clearing and idempotence

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/artifact-keeper/akctl/internal/auth"
)

func TestLogout_AfterLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": testToken(`{"username":"alice"}`),
			"token_type":   "bearer",
		})
	}))
	defer server.Close()

	a := newTestApp(t)
	a.Store.Add("Test", server.URL)
	if _, err := a.Session.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if a.Transport.Token() == nil {
		t.Fatal("expected token after login")
	}

	var buf bytes.Buffer
	if code := runLogout(&buf, a); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	if a.Transport.Token() != nil {
		t.Error("expected token cleared after logout")
	}
	if a.Session.State() != auth.StateLoggedOut {
		t.Errorf("expected logged-out state, got %v", a.Session.State())
	}
	if !strings.Contains(buf.String(), "Logged out") {
		t.Errorf("expected confirmation, got %q", buf.String())
	}
}

func TestLogout_Idempotent(t *testing.T) {
	a := newTestApp(t)

	var buf bytes.Buffer
	for i := 0; i < 2; i++ {
		if code := runLogout(&buf, a); code != 0 {
			t.Fatalf("run %d: expected exit 0, got %d", i, code)
		}
	}
}
