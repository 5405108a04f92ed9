// ABOUTME: Tests for the authentication state machine
// ABOUTME: Drives login, TOTP, logout, and profile-switch flows against httptest servers

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artifact-keeper/akctl/internal/api"
	"github.com/artifact-keeper/akctl/internal/profile"
	"github.com/artifact-keeper/akctl/internal/transport"
)

func newSession(baseURL string) (*Session, *transport.Manager) {
	tm := transport.NewManager(nil, nil)
	tm.UpdateBaseURL(baseURL)
	gw := api.New(tm)
	return NewSession(gw, tm), tm
}

func strPtr(s string) *string { return &s }

func validToken(t *testing.T) string {
	t.Helper()
	return makeToken(`{"user_id":"u-1","username":"admin","email":"admin@example.com","is_admin":true,"totp_enabled":true}`)
}

func TestLogin_Success(t *testing.T) {
	token := validToken(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("expected POST /login, got %s %s", r.Method, r.URL.Path)
		}
		var req loginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "admin" || req.Password != "pw" {
			t.Errorf("unexpected credentials %+v", req)
		}
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   3600,
		})
	}))
	defer server.Close()

	s, tm := newSession(server.URL)

	result, err := s.Login(context.Background(), "admin", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TOTPRequired {
		t.Error("expected no TOTP challenge")
	}
	if s.State() != StateLoggedIn {
		t.Errorf("expected logged-in, got %s", s.State())
	}
	if got := tm.Token(); got == nil || *got != token {
		t.Error("expected transport to carry the issued token")
	}
	id := s.Identity()
	if id == nil || id.Username != "admin" {
		t.Errorf("expected decoded identity for admin, got %+v", id)
	}
}

func TestLogin_MustChangePassword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:        validToken(t),
			MustChangePassword: true,
		})
	}))
	defer server.Close()

	s, _ := newSession(server.URL)
	if _, err := s.Login(context.Background(), "admin", "expired"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.MustChangePassword() {
		t.Error("expected forced-password-change flag set")
	}
}

func TestLogin_TOTPRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{
			TOTPRequired: true,
			TOTPToken:    "abc",
		})
	}))
	defer server.Close()

	s, tm := newSession(server.URL)

	result, err := s.Login(context.Background(), "admin", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.TOTPRequired {
		t.Fatal("expected TOTP challenge")
	}
	if s.State() != StateAwaitingTOTP {
		t.Errorf("expected awaiting-totp, got %s", s.State())
	}
	if tm.Token() != nil {
		t.Error("no token must be adopted before the second factor")
	}
}

func TestLogin_FailureStaysLoggedOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"bad credentials"}`)
	}))
	defer server.Close()

	s, tm := newSession(server.URL)

	_, err := s.Login(context.Background(), "admin", "wrong")
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected HTTP 401 error, got %v", err)
	}
	if s.State() != StateLoggedOut {
		t.Errorf("expected logged-out after failure, got %s", s.State())
	}
	if tm.Token() != nil {
		t.Error("expected no token after failed login")
	}
}

func TestVerifyTOTP_Success(t *testing.T) {
	token := validToken(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			json.NewEncoder(w).Encode(tokenResponse{TOTPRequired: true, TOTPToken: "abc"})
		case "/totp/verify":
			var req totpVerifyRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.TOTPToken != "abc" {
				t.Errorf("expected pending token abc, got %s", req.TOTPToken)
			}
			if req.Code != "123456" {
				t.Errorf("expected code 123456, got %s", req.Code)
			}
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: token})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	s, tm := newSession(server.URL)

	if _, err := s.Login(context.Background(), "admin", "pw"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if err := s.VerifyTOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}

	if s.State() != StateLoggedIn {
		t.Errorf("expected logged-in, got %s", s.State())
	}
	if got := tm.Token(); got == nil || *got != token {
		t.Error("expected transport to carry the issued token")
	}
	if id := s.Identity(); id == nil || id.ID != "u-1" {
		t.Errorf("expected identity decoded from payload, got %+v", id)
	}
}

func TestVerifyTOTP_FailureStaysAwaiting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			json.NewEncoder(w).Encode(tokenResponse{TOTPRequired: true, TOTPToken: "abc"})
		case "/totp/verify":
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"wrong code"}`)
		}
	}))
	defer server.Close()

	s, tm := newSession(server.URL)
	s.Login(context.Background(), "admin", "pw")

	if err := s.VerifyTOTP(context.Background(), "000000"); err == nil {
		t.Fatal("expected error for rejected code")
	}
	if s.State() != StateAwaitingTOTP {
		t.Errorf("expected to stay awaiting-totp for retry, got %s", s.State())
	}
	if tm.Token() != nil {
		t.Error("expected no token after rejected code")
	}
}

func TestVerifyTOTP_WithoutChallenge(t *testing.T) {
	s, _ := newSession("http://localhost:1")
	if err := s.VerifyTOTP(context.Background(), "123456"); err == nil {
		t.Error("expected error when no challenge is pending")
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: validToken(t), MustChangePassword: true})
	}))
	defer server.Close()

	s, tm := newSession(server.URL)
	s.Login(context.Background(), "admin", "pw")

	var transitions []State
	s.OnChange(func(st State) { transitions = append(transitions, st) })

	s.Logout()

	if s.State() != StateLoggedOut {
		t.Errorf("expected logged-out, got %s", s.State())
	}
	if tm.Token() != nil {
		t.Error("expected token cleared")
	}
	if s.Identity() != nil {
		t.Error("expected identity cleared")
	}
	if s.MustChangePassword() {
		t.Error("expected forced-change flag cleared")
	}

	// Idempotent: a second logout is a no-op
	s.Logout()
	if len(transitions) != 1 {
		t.Errorf("expected exactly one transition, got %v", transitions)
	}
}

func TestProfileSwitch_ForcesLogout(t *testing.T) {
	serverA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: validToken(t)})
	}))
	defer serverA.Close()

	store := profile.NewStore(t.TempDir())
	tm := transport.NewManager(nil, store.SaveLastURL)
	gw := api.New(tm)
	s := NewSession(gw, tm)

	store.OnSwitch(s.HandleProfileSwitch)
	store.OnSwitch(func(srv profile.Server, ok bool) {
		if ok {
			tm.UpdateBaseURL(srv.URL)
		} else {
			tm.UpdateBaseURL("")
		}
	})

	store.Add("A", serverA.URL)
	b, _ := store.Add("B", "https://b.example.com")

	if _, err := s.Login(context.Background(), "admin", "pw"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if tm.Token() == nil {
		t.Fatal("expected token after login")
	}

	if err := store.SwitchTo(b.ID); err != nil {
		t.Fatalf("unexpected switch error: %v", err)
	}

	if tm.Token() != nil {
		t.Error("expected token cleared after profile switch")
	}
	if s.State() != StateLoggedOut {
		t.Errorf("expected logged-out after profile switch, got %s", s.State())
	}
	if tm.BaseURL() != "https://b.example.com" {
		t.Errorf("expected base URL of profile B, got %s", tm.BaseURL())
	}
}

func TestChangePassword_ClearsForcedFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: validToken(t), MustChangePassword: true})
		case "/api/v1/users/me/password":
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	s, _ := newSession(server.URL)
	s.Login(context.Background(), "admin", "pw")

	if err := s.ChangePassword(context.Background(), "pw", "stronger"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.MustChangePassword() {
		t.Error("expected forced-change flag cleared after password change")
	}
}

func TestLogout_ClearsInjectedToken(t *testing.T) {
	s, tm := newSession("https://registry.example.com")

	// Token set outside the login flow, e.g. from the environment.
	tm.SetToken(strPtr("injected"))

	s.Logout()

	if tm.Token() != nil {
		t.Error("expected injected token cleared by logout")
	}
	if s.State() != StateLoggedOut {
		t.Errorf("expected logged-out, got %s", s.State())
	}
}

func TestLogin_FailureAbandonsPendingChallenge(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			attempts++
			if attempts == 1 {
				json.NewEncoder(w).Encode(tokenResponse{TOTPRequired: true, TOTPToken: "abc"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":"bad credentials"}`)
		case "/totp/verify":
			t.Errorf("no verify request expected, got one")
		}
	}))
	defer server.Close()

	s, _ := newSession(server.URL)

	// First attempt parks the session awaiting the second factor.
	if _, err := s.Login(context.Background(), "admin", "pw"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if s.State() != StateAwaitingTOTP {
		t.Fatalf("expected awaiting-totp, got %s", s.State())
	}

	// Retrying credentials instead of the code and failing starts over.
	if _, err := s.Login(context.Background(), "admin", "wrong"); err == nil {
		t.Fatal("expected error for rejected credentials")
	}
	if s.State() != StateLoggedOut {
		t.Errorf("expected logged-out after failed retry, got %s", s.State())
	}
	if err := s.VerifyTOTP(context.Background(), "123456"); err == nil {
		t.Error("expected stale challenge to be unusable")
	}
}
