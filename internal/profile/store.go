// ABOUTME: Durable registry of named Artifact Keeper server profiles
// ABOUTME: Persists the profile set and active selection as a YAML file

package profile

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const fileName = "profiles.yaml"

// Server is a named server profile the user can switch between.
type Server struct {
	ID      string    `yaml:"id" json:"id"`
	Name    string    `yaml:"name" json:"name"`
	URL     string    `yaml:"url" json:"url"`
	AddedAt time.Time `yaml:"added_at" json:"added_at"`
}

// fileState is the on-disk document. LastURL mirrors the active server's
// URL under the legacy single-server key for older installs.
type fileState struct {
	Servers        []Server `yaml:"servers"`
	ActiveServerID string   `yaml:"active_server_id,omitempty"`
	LastURL        string   `yaml:"last_url,omitempty"`
}

// SwitchListener is notified after the active profile changes. ok is false
// when no profile remains active.
type SwitchListener func(active Server, ok bool)

// Store owns the profile set. All mutations go through its methods and are
// persisted eagerly; there is no write batching.
type Store struct {
	mu        sync.Mutex
	path      string
	servers   []Server
	activeID  string
	lastURL   string
	listeners []SwitchListener
}

// NewStore loads the profile registry from dir. A missing or unreadable
// file yields an empty store rather than an error.
func NewStore(dir string) *Store {
	s := &Store{path: filepath.Join(dir, fileName)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read profile registry, starting empty", "path", s.path, "error", err)
		}
		return s
	}

	var state fileState
	if err := yaml.Unmarshal(data, &state); err != nil {
		slog.Warn("Corrupt profile registry, starting empty", "path", s.path, "error", err)
		return s
	}

	s.servers = state.Servers
	s.activeID = state.ActiveServerID
	s.lastURL = state.LastURL
	return s
}

// OnSwitch registers a listener for active-profile changes.
func (s *Store) OnSwitch(fn SwitchListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Servers returns a snapshot of all profiles in stored order.
func (s *Store) Servers() []Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Server, len(s.servers))
	copy(out, s.servers)
	return out
}

// Active returns the active profile, if any.
func (s *Store) Active() (Server, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

func (s *Store) activeLocked() (Server, bool) {
	for _, srv := range s.servers {
		if srv.ID == s.activeID {
			return srv, true
		}
	}
	return Server{}, false
}

// Find looks up a profile by name or id.
func (s *Store) Find(nameOrID string) (Server, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, srv := range s.servers {
		if srv.ID == nameOrID || srv.Name == nameOrID {
			return srv, true
		}
	}
	return Server{}, false
}

// Add appends a new profile. A single trailing slash is stripped from the
// URL. The first profile ever added becomes active automatically.
func (s *Store) Add(name, rawURL string) (Server, error) {
	srv := Server{
		ID:      uuid.NewString(),
		Name:    name,
		URL:     strings.TrimSuffix(rawURL, "/"),
		AddedAt: time.Now(),
	}

	s.mu.Lock()
	s.servers = append(s.servers, srv)
	first := len(s.servers) == 1
	var err error
	var notify bool
	if first {
		s.activeID = srv.ID
		s.lastURL = srv.URL
		notify = true
	}
	err = s.persistLocked()
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	if notify {
		for _, fn := range listeners {
			fn(srv, true)
		}
	}
	return srv, err
}

// Update edits a profile's name and URL in place.
func (s *Store) Update(id, name, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.servers {
		if s.servers[i].ID == id {
			s.servers[i].Name = name
			s.servers[i].URL = strings.TrimSuffix(rawURL, "/")
			return s.persistLocked()
		}
	}
	return fmt.Errorf("no profile with id %s", id)
}

// Remove deletes a profile. Removing the active profile promotes the first
// remaining profile, or clears the selection when none remain.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	idx := -1
	for i, srv := range s.servers {
		if srv.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("no profile with id %s", id)
	}

	wasActive := s.activeID == id
	s.servers = append(s.servers[:idx], s.servers[idx+1:]...)

	var next Server
	var hasNext bool
	if wasActive {
		if len(s.servers) > 0 {
			next = s.servers[0]
			hasNext = true
			s.activeID = next.ID
			s.lastURL = next.URL
		} else {
			s.activeID = ""
			s.lastURL = ""
		}
	}
	err := s.persistLocked()
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	if wasActive {
		for _, fn := range listeners {
			fn(next, hasNext)
		}
	}
	return err
}

// SwitchTo activates a profile. Token invalidation is the caller's
// responsibility; listeners registered via OnSwitch handle it.
func (s *Store) SwitchTo(id string) error {
	s.mu.Lock()
	var target Server
	found := false
	for _, srv := range s.servers {
		if srv.ID == id {
			target = srv
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("no profile with id %s", id)
	}

	s.activeID = target.ID
	s.lastURL = target.URL
	err := s.persistLocked()
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(target, true)
	}
	return err
}

// SaveLastURL mirrors the last-used base URL under the legacy key. Used by
// the transport layer whenever the base URL changes.
func (s *Store) SaveLastURL(rawURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastURL == rawURL {
		return
	}
	s.lastURL = rawURL
	if err := s.persistLocked(); err != nil {
		slog.Warn("Failed to persist last-used URL", "error", err)
	}
}

// MigrateLegacySingleServer synthesizes a profile from the legacy
// single-URL setting when the profile set is empty. Idempotent after the
// first successful run.
func (s *Store) MigrateLegacySingleServer() error {
	s.mu.Lock()
	if len(s.servers) > 0 || s.lastURL == "" {
		s.mu.Unlock()
		return nil
	}

	srv := Server{
		ID:      uuid.NewString(),
		Name:    displayNameForURL(s.lastURL),
		URL:     strings.TrimSuffix(s.lastURL, "/"),
		AddedAt: time.Now(),
	}
	s.servers = []Server{srv}
	s.activeID = srv.ID
	err := s.persistLocked()
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	slog.Info("Migrated legacy server setting to profile", "name", srv.Name, "url", srv.URL)
	for _, fn := range listeners {
		fn(srv, true)
	}
	return err
}

func (s *Store) snapshotListenersLocked() []SwitchListener {
	out := make([]SwitchListener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

func (s *Store) persistLocked() error {
	state := fileState{
		Servers:        s.servers,
		ActiveServerID: s.activeID,
		LastURL:        s.lastURL,
	}
	data, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("failed to encode profile registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile registry: %w", err)
	}
	return nil
}

// displayNameForURL derives a profile name from the URL host.
func displayNameForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "Server"
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return "Local"
	}
	return host
}
