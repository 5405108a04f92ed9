// ABOUTME: Wires the session core together for CLI commands
// ABOUTME: Profile store, transport manager, gateway, and auth session share one App

package cmd

import (
	"log/slog"
	"time"

	"github.com/artifact-keeper/akctl/internal/api"
	"github.com/artifact-keeper/akctl/internal/auth"
	"github.com/artifact-keeper/akctl/internal/config"
	"github.com/artifact-keeper/akctl/internal/profile"
	"github.com/artifact-keeper/akctl/internal/transport"
)

// App holds the assembled session core for one process run.
type App struct {
	Config    *config.Config
	Store     *profile.Store
	Transport *transport.Manager
	Gateway   *api.Gateway
	Session   *auth.Session
}

// NewApp assembles the core: loads the profile registry, runs the legacy
// migration, binds the transport to the active profile, and registers the
// forced-logout listener for profile switches.
func NewApp(cfg *config.Config) *App {
	store := profile.NewStore(cfg.ConfigDir)
	tm := transport.NewManager(&transport.Options{
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		ProbeTimeout:   time.Duration(cfg.ProbeTimeout) * time.Second,
		InsecureTLS:    cfg.TLSSkipVerify,
	}, store.SaveLastURL)
	gw := api.New(tm)
	session := auth.NewSession(gw, tm)

	// Tokens are scoped to the issuing server: invalidate first, then
	// rebind the transport to the new base URL.
	store.OnSwitch(session.HandleProfileSwitch)
	store.OnSwitch(func(srv profile.Server, ok bool) {
		if ok {
			tm.UpdateBaseURL(srv.URL)
		} else {
			tm.UpdateBaseURL("")
		}
	})

	if err := store.MigrateLegacySingleServer(); err != nil {
		slog.Warn("Legacy server migration failed", "error", err)
	}
	if active, ok := store.Active(); ok {
		tm.UpdateBaseURL(active.URL)
	}

	if cfg.Token != "" {
		token := cfg.Token
		tm.SetToken(&token)
	}

	return &App{
		Config:    cfg,
		Store:     store,
		Transport: tm,
		Gateway:   gw,
		Session:   session,
	}
}
