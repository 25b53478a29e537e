// Package main provides the skinshelf worker entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/thebtf/skinshelf/internal/collections"
	"github.com/thebtf/skinshelf/internal/config"
	gormdb "github.com/thebtf/skinshelf/internal/db/gorm"
	"github.com/thebtf/skinshelf/internal/identity"
	"github.com/thebtf/skinshelf/internal/llm"
	"github.com/thebtf/skinshelf/internal/lookup"
	"github.com/thebtf/skinshelf/internal/watcher"
	"github.com/thebtf/skinshelf/internal/worker"
	"github.com/thebtf/skinshelf/internal/worker/session"
	"github.com/thebtf/skinshelf/internal/worker/sse"
	"github.com/thebtf/skinshelf/pkg/models"
)

// Version is set at build time via ldflags.
var Version = "dev"

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
	idleWorkspace   = 30 * time.Minute
)

func main() {
	dataDir := flag.String("data-dir", "", "Data directory for settings, database and collections (default: ~/.skinshelf)")
	port := flag.Int("port", 0, "Listen port (overrides SKINSHELF_WORKER_PORT)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if *dataDir != "" {
		// Every data path, the settings file included, derives from this.
		if err := os.Setenv(config.KeyDataDir, *dataDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to set data directory")
		}
	}

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directories")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.WorkerPort = *port
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := collections.Load(cfg.CollectionsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CollectionsPath).Msg("Invalid collections file")
	}

	store, err := gormdb.NewStore(gormdb.Config{
		Collections: registry,
		Driver:      cfg.DBDriver,
		Path:        cfg.DBPath,
		DSN:         cfg.DBDSN,
		MaxConns:    cfg.MaxConns,
		LogLevel:    logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to initialize store")
	}
	defer store.Close()

	docs, err := gormdb.NewDocumentStore(store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document store")
	}

	var prompted lookup.DetailService
	client, err := llm.NewClient(llm.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.Model,
	})
	switch {
	case err == nil:
		prompted = lookup.NewPromptedService(client)
	case errors.Is(err, llm.ErrMissingAPIKey):
		log.Warn().Msg("No completion API key configured, /detail-lookup disabled")
	default:
		log.Fatal().Err(err).Msg("Failed to create completion client")
	}

	details := prompted
	if cfg.DetailURL != "" {
		details = lookup.NewRemoteService(cfg.DetailURL, nil)
		log.Info().Str("url", cfg.DetailURL).Msg("Using remote detail lookup")
	}
	if details == nil {
		log.Warn().Msg("No detail service available, lookups will fail")
		details = unavailableDetails{}
	}

	events := sse.NewBroadcaster()
	sessions := session.NewManager(session.Deps{
		Products: docs,
		History:  docs,
		Details:  details,
		Events:   events,
	})
	sessions.SetOnSessionCreated(func(userID string) {
		log.Debug().Str("userId", userID).Int("workspaces", sessions.Count()).Msg("Workspace opened")
	})
	sessions.SetOnSessionDeleted(func(userID string) {
		log.Debug().Str("userId", userID).Msg("Workspace closed")
	})

	svc := worker.NewService(worker.Options{
		Config:   cfg,
		Store:    store,
		Identity: identity.NewProvider(gormdb.NewSessionStore(store)),
		Sessions: sessions,
		Events:   events,
		Detail:   prompted,
		Version:  Version,
	})

	startSettingsWatcher()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(svc.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down worker")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return svc.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := sessions.CloseIdle(idleWorkspace); n > 0 {
					log.Info().Int("closed", n).Msg("Closed idle workspaces")
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Worker error")
	}
}

// startSettingsWatcher exits the process when the settings file changes.
func startSettingsWatcher() {
	settingsPath := config.SettingsPath()
	w, err := watcher.New(settingsPath, func(op fsnotify.Op) {
		log.Warn().Str("path", settingsPath).Str("op", op.String()).Msg("Settings changed, exiting for restart...")
		time.Sleep(100 * time.Millisecond)
		os.Exit(0)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
		return
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start settings watcher")
		return
	}
	log.Info().Str("path", settingsPath).Msg("Settings file watcher started")
}

// unavailableDetails fails every lookup.
type unavailableDetails struct{}

var errNoDetailService = errors.New("no detail service configured")

func (unavailableDetails) Details(context.Context, []models.Product, string) (string, error) {
	return "", errNoDetailService
}
