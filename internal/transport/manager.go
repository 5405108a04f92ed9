// ABOUTME: Exclusive owner of the client's base URL, bearer token, and HTTP client
// ABOUTME: Rebuilds the transport atomically whenever either credential input changes

package transport

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Options control how clients are built.
type Options struct {
	// RequestTimeout applies to every request dispatched through the
	// gateway (default 30s).
	RequestTimeout time.Duration

	// ProbeTimeout applies only to TestConnection (default 10s).
	ProbeTimeout time.Duration

	// InsecureTLS accepts self-signed server certificates. Off by
	// default; explicit opt-in for self-hosted deployments.
	InsecureTLS bool
}

func (o *Options) withDefaults() Options {
	out := Options{RequestTimeout: 30 * time.Second, ProbeTimeout: 10 * time.Second}
	if o == nil {
		return out
	}
	if o.RequestTimeout > 0 {
		out.RequestTimeout = o.RequestTimeout
	}
	if o.ProbeTimeout > 0 {
		out.ProbeTimeout = o.ProbeTimeout
	}
	out.InsecureTLS = o.InsecureTLS
	return out
}

// URLSaver persists the last-used base URL whenever it changes. Wired to
// the profile registry's legacy single-server mirror.
type URLSaver func(url string)

// Snapshot is one consistent view of the transport state. A dispatch
// captures a Snapshot once; later rebuilds never redirect it.
type Snapshot struct {
	BaseURL string
	Token   *string
	Client  *http.Client
}

// Manager serializes every read and write of the (baseURL, token, client)
// triple. Writers swap in a freshly built client rather than mutating the
// live one, so readers never observe a half-updated pair.
type Manager struct {
	mu      sync.RWMutex
	baseURL string
	token   *string
	client  *http.Client

	opts    Options
	saveURL URLSaver
}

// NewManager builds a manager with an empty base URL (unconfigured state).
func NewManager(opts *Options, saveURL URLSaver) *Manager {
	m := &Manager{opts: opts.withDefaults(), saveURL: saveURL}
	m.client = m.buildClient(m.opts.RequestTimeout)
	return m
}

func (m *Manager) buildClient(timeout time.Duration) *http.Client {
	t := &http.Transport{}
	if m.opts.InsecureTLS {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: t,
	}
}

// SetToken atomically replaces the bearer token and rebuilds the client.
// A nil token returns the transport to anonymous dispatch.
func (m *Manager) SetToken(token *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.client = m.buildClient(m.opts.RequestTimeout)
}

// UpdateBaseURL atomically replaces the base URL, persists it as the
// last-used URL, and rebuilds the client with the existing token.
func (m *Manager) UpdateBaseURL(url string) {
	m.mu.Lock()
	m.baseURL = url
	m.client = m.buildClient(m.opts.RequestTimeout)
	saver := m.saveURL
	m.mu.Unlock()

	if saver != nil {
		saver(url)
	}
}

// BaseURL returns the current base URL.
func (m *Manager) BaseURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseURL
}

// Token returns the current bearer token, or nil when anonymous.
func (m *Manager) Token() *string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Current returns one consistent snapshot of the transport triple.
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{BaseURL: m.baseURL, Token: m.token, Client: m.client}
}

// TestConnection probes {url}/health with a short-lived anonymous client.
// Any 2xx counts as reachable; every other outcome, including transport
// errors, is a plain false.
func (m *Manager) TestConnection(ctx context.Context, url string) bool {
	probe := m.buildClient(m.opts.ProbeTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := probe.Do(req)
	if err != nil {
		slog.Debug("Connectivity probe failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
