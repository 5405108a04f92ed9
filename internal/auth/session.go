// ABOUTME: Login/logout state machine layered on the gateway and transport
// ABOUTME: Owns the TOTP challenge sub-flow and the forced-password-change flag

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/artifact-keeper/akctl/internal/api"
	"github.com/artifact-keeper/akctl/internal/profile"
	"github.com/artifact-keeper/akctl/internal/transport"
)

// State is the login flow position.
type State int

const (
	StateLoggedOut State = iota
	StateAwaitingTOTP
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateAwaitingTOTP:
		return "awaiting-totp"
	case StateLoggedIn:
		return "logged-in"
	default:
		return "logged-out"
	}
}

// loginRequest is the POST /login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// totpVerifyRequest is the POST /totp/verify body.
type totpVerifyRequest struct {
	TOTPToken string `json:"totp_token"`
	Code      string `json:"code"`
}

// tokenResponse is the shape both /login and /totp/verify reply with.
type tokenResponse struct {
	AccessToken        string `json:"access_token"`
	RefreshToken       string `json:"refresh_token"`
	ExpiresIn          int    `json:"expires_in"`
	TokenType          string `json:"token_type"`
	MustChangePassword bool   `json:"must_change_password"`
	TOTPRequired       bool   `json:"totp_required"`
	TOTPToken          string `json:"totp_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// LoginResult reports how a login attempt concluded.
type LoginResult struct {
	// TOTPRequired means the server wants a second factor; no token has
	// been adopted and the session is awaiting VerifyTOTP.
	TOTPRequired bool
}

// Session drives the authentication state machine. Every operation is a
// single linear attempt; nothing retries.
type Session struct {
	mu        sync.Mutex
	gateway   *api.Gateway
	transport *transport.Manager

	state              State
	identity           *Identity
	mustChangePassword bool
	pendingTOTPToken   string

	listeners []func(State)
}

// NewSession starts in StateLoggedOut.
func NewSession(gw *api.Gateway, tm *transport.Manager) *Session {
	return &Session{gateway: gw, transport: tm}
}

// OnChange registers a listener invoked after every state transition.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns the current flow position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the decoded identity while logged in.
func (s *Session) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// MustChangePassword reports whether the server flagged the account for a
// forced password change at login.
func (s *Session) MustChangePassword() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mustChangePassword
}

// Login exchanges credentials for a bearer token. When the server requires
// a second factor the session parks in StateAwaitingTOTP and no token is
// adopted; that is a success branch, not an error. Any failure leaves the
// session logged out.
func (s *Session) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	resp, err := api.Request[tokenResponse](ctx, s.gateway, http.MethodPost, "/login", loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		// A failed attempt abandons whatever session or pending challenge
		// existed before it: retrying credentials mid-challenge starts the
		// flow over. A no-op for an already-clean session.
		s.Logout()
		return nil, err
	}

	if resp.TOTPRequired {
		s.mu.Lock()
		s.state = StateAwaitingTOTP
		s.pendingTOTPToken = resp.TOTPToken
		listeners := s.snapshotListenersLocked()
		s.mu.Unlock()

		notify(listeners, StateAwaitingTOTP)
		return &LoginResult{TOTPRequired: true}, nil
	}

	s.adoptToken(resp)
	slog.Debug("Login succeeded", "username", username)
	return &LoginResult{}, nil
}

// VerifyTOTP exchanges the pending challenge token and a one-time code for
// a real bearer token. On failure the session stays in StateAwaitingTOTP
// so the user can retry.
func (s *Session) VerifyTOTP(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.state != StateAwaitingTOTP {
		s.mu.Unlock()
		return fmt.Errorf("no TOTP challenge pending")
	}
	pending := s.pendingTOTPToken
	s.mu.Unlock()

	resp, err := api.Request[tokenResponse](ctx, s.gateway, http.MethodPost, "/totp/verify", totpVerifyRequest{
		TOTPToken: pending,
		Code:      code,
	})
	if err != nil {
		return err
	}

	s.adoptToken(resp)
	return nil
}

// adoptToken installs the issued token on the transport before any state
// is published, so the very next request already carries the credential.
func (s *Session) adoptToken(resp tokenResponse) {
	token := resp.AccessToken
	s.transport.SetToken(&token)

	s.mu.Lock()
	s.state = StateLoggedIn
	s.identity = DecodeIdentity(token)
	s.mustChangePassword = resp.MustChangePassword
	s.pendingTOTPToken = ""
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	notify(listeners, StateLoggedIn)
}

// Logout clears the token, identity, and any pending challenge from any
// state. Idempotent. The transport token is part of the guard: tokens can
// land on the transport outside the login flow (AK_TOKEN injection), and
// logout must clear those too.
func (s *Session) Logout() {
	s.mu.Lock()
	if s.state == StateLoggedOut && s.identity == nil && s.pendingTOTPToken == "" &&
		!s.mustChangePassword && s.transport.Token() == nil {
		s.mu.Unlock()
		return
	}
	s.state = StateLoggedOut
	s.identity = nil
	s.mustChangePassword = false
	s.pendingTOTPToken = ""
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	s.transport.SetToken(nil)
	notify(listeners, StateLoggedOut)
}

// HandleProfileSwitch forces a logout whenever a different profile becomes
// active: a bearer token is scoped to the server that issued it.
func (s *Session) HandleProfileSwitch(_ profile.Server, _ bool) {
	s.Logout()
}

// ChangePassword updates the authenticated user's password and clears the
// forced-change flag on success.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	err := s.gateway.RequestVoid(ctx, http.MethodPut, "/api/v1/users/me/password", changePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.mustChangePassword = false
	s.mu.Unlock()
	return nil
}

func (s *Session) snapshotListenersLocked() []func(State) {
	out := make([]func(State), len(s.listeners))
	copy(out, s.listeners)
	return out
}

func notify(listeners []func(State), state State) {
	for _, fn := range listeners {
		fn(state)
	}
}
