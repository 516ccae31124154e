// Package app wires the daemon's components together and exposes the
// command surface the HTTP layer serves.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"eigend/internal/catalog"
	"eigend/internal/chat"
	"eigend/internal/common/fsutil"
	"eigend/internal/config"
	"eigend/internal/download"
	"eigend/internal/events"
	"eigend/internal/manager"
	"eigend/internal/settings"
	"eigend/internal/state"
	"eigend/internal/store"
	"eigend/internal/tools"
	"eigend/internal/watcher"
)

// Options carries collaborators that tests or the CLI may override.
type Options struct {
	Logger *zerolog.Logger
	// Publisher receives UI events in addition to the websocket hub.
	Publisher events.Publisher
	// BundledCatalog is copied to the catalog path on first start.
	BundledCatalog string
	// HTTPClient is used for downloads and completions.
	HTTPClient *http.Client
	// InMemoryStore keeps chat history in memory only.
	InMemoryStore bool
	LlamaArgs     []string
}

// App is the composition root. All methods are safe for concurrent use.
type App struct {
	cfg          config.Config
	settingsPath string
	log          zerolog.Logger

	rt      *state.Runtime
	hub     *events.Hub
	pub     events.Publisher
	catalog *catalog.Source
	store   *store.Store
	mgr     *manager.Manager
	dl      *download.Manager
	chat    *chat.Orchestrator
	watcher *watcher.Watcher

	// base is cancelled on shutdown; background downloads and switches
	// derive from it.
	base   context.Context
	cancel context.CancelFunc

	// settingsMu serialises settings read-modify-write sequences.
	settingsMu sync.Mutex
}

// New builds every component from cfg. cfg must already have defaults
// applied. Close releases the store and stops the inference server.
func New(cfg config.Config, opts Options) (*App, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if err := fsutil.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	if err := fsutil.EnsureDir(cfg.ModelsDir); err != nil {
		return nil, fmt.Errorf("models dir: %w", err)
	}

	s, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		log.Warn().Str("event", "settings_load_failed").Err(err).Msg("using default settings")
		s = settings.Default()
	}

	var st *store.Store
	if opts.InMemoryStore {
		st, err = store.OpenInMemory()
	} else {
		sc := store.DefaultConfig(cfg.DBDir())
		sc.Logger = &log
		st, err = store.Open(sc)
	}
	if err != nil {
		return nil, fmt.Errorf("open chat store: %w", err)
	}

	hub := events.NewHub(
		events.WithLogger(log.With().Str("component", "events").Logger()),
		events.WithCheckOrigin(originChecker(cfg.CORSOrigins)),
	)
	var pub events.Publisher = hub
	if opts.Publisher != nil {
		pub = events.Multi{hub, opts.Publisher}
	}
	pub = events.Safe(pub)

	rt := state.New(cfg.LlamaAddress(), cfg.ModelsDir, s)
	src := catalog.NewSource(cfg.CatalogPath, opts.BundledCatalog, cfg.ModelsDir, log.With().Str("component", "catalog").Logger())
	if _, err := src.Load(); err != nil {
		log.Warn().Str("event", "catalog_load_failed").Err(err).Msg("model catalog unavailable")
	}

	base, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:          cfg,
		settingsPath: cfg.SettingsPath,
		log:          log.With().Str("component", "app").Logger(),
		rt:           rt,
		hub:          hub,
		pub:          pub,
		catalog:      src,
		store:        st,
		base:         base,
		cancel:       cancel,
	}
	a.mgr = manager.NewWithConfig(manager.ManagerConfig{
		Runtime:        rt,
		Publisher:      pub,
		Logger:         &log,
		LlamaBin:       cfg.LlamaBin,
		LlamaExtraArgs: opts.LlamaArgs,
		StartupTimeout: time.Duration(cfg.StartupTimeoutSeconds) * time.Second,
	})
	a.dl = download.New(download.Config{
		Runtime:    rt,
		Publisher:  pub,
		Logger:     &log,
		Catalog:    src,
		HTTPClient: opts.HTTPClient,
	})
	a.chat = chat.New(chat.Config{
		Runtime:    rt,
		History:    st,
		Titles:     st,
		Tools:      tools.NewExecutor(tools.ExecutorConfig{Logger: &log}),
		Publisher:  pub,
		Logger:     &log,
		HTTPClient: opts.HTTPClient,
	})
	a.watcher = watcher.New(watcher.Config{Dir: cfg.ModelsDir, Publisher: pub, Logger: &log})
	return a, nil
}

// Runtime exposes the shared runtime state.
func (a *App) Runtime() *state.Runtime { return a.rt }

// Events is the websocket endpoint for UI events.
func (a *App) Events() http.Handler { return a.hub }

// Boot starts the inference server for the startup model in the
// background. It returns the chosen model id, or "" when none is installed.
func (a *App) Boot() string {
	t, ok := a.mgr.Boot(a.base, a.catalog)
	if !ok {
		return ""
	}
	return t.ID
}

// Watch runs the models directory watcher until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	return a.watcher.Run(ctx)
}

// Close cancels in-flight turns and downloads, stops the inference server
// and closes the chat store.
func (a *App) Close() error {
	a.cancel()
	a.chat.Cancel("")
	for _, id := range a.dl.Active() {
		a.dl.Cancel(id)
	}
	if err := a.mgr.Stop(); err != nil {
		a.log.Warn().Str("event", "stop_failed").Err(err).Msg("stop inference server")
	}
	return a.store.Close()
}

func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
