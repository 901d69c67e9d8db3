// Package bootstrap wires configuration, storage, the pipelines and the
// HTTP surface into a runnable application.
package bootstrap

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/prism/adapters/hasher"
	"github.com/artpar/prism/adapters/memory"
	"github.com/artpar/prism/adapters/metrics"
	"github.com/artpar/prism/adapters/sqlite"
	"github.com/artpar/prism/app"
	"github.com/artpar/prism/config"
	"github.com/artpar/prism/core/engine"
	"github.com/artpar/prism/core/handler"
	"github.com/artpar/prism/core/resolver"
	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
	"github.com/artpar/prism/web"
	"github.com/rs/zerolog"
)

// App is the assembled application.
type App struct {
	cfg     *config.Config
	holder  *config.Holder
	logger  zerolog.Logger
	db      *sqlite.DB
	store   ports.EntityStore
	schemas ports.SchemaStore
	server  *http.Server
	metrics *metrics.Collector
}

// New assembles the application from a loaded configuration.
func New(cfg *config.Config) (*App, error) {
	return build(cfg, nil)
}

// NewWithHotReload assembles the application and watches the config
// file for changes.
func NewWithHotReload(path string) (*App, error) {
	logger := baseLogger("info", "json")
	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}
	a, err := build(holder.Get(), holder)
	if err != nil {
		return nil, err
	}
	if err := holder.WatchFile(); err != nil {
		return nil, err
	}
	holder.WatchSignals()
	return a, nil
}

func build(cfg *config.Config, holder *config.Holder) (*App, error) {
	logger := baseLogger(cfg.Logging.Level, cfg.Logging.Format)

	a := &App{
		cfg:     cfg,
		holder:  holder,
		logger:  logger,
		metrics: metrics.New(),
	}

	if err := a.buildStores(); err != nil {
		return nil, err
	}
	if err := a.loadSchemas(cfg.Schemas.Dir); err != nil {
		return nil, err
	}

	if holder != nil {
		holder.OnChange(func(next *config.Config) {
			if err := a.loadSchemas(next.Schemas.Dir); err != nil {
				a.metrics.SchemaReloadErrors.Inc()
				a.logger.Error().Err(err).Msg("schema reload failed")
				return
			}
			a.metrics.SchemaReloads.Inc()
		})
	}

	dispatch := handler.New(a.store, logger)
	eng := engine.New(a.store, a.schemas, dispatch, cfg.Engine.MaxDepth, logger)
	res := resolver.New(a.store, a.schemas, logger)
	svc := app.NewDispatchService(a.store, res, eng, app.SchemaGate{}, a.metrics, logger)

	adminHash, err := decodeAdminHash(cfg.Auth.AdminTokenHash)
	if err != nil {
		return nil, err
	}

	h := web.New(web.Deps{
		Dispatch:       svc,
		Schemas:        a.schemas,
		Hasher:         hasher.NewBcrypt(cfg.Auth.BcryptCost),
		AdminTokenHash: adminHash,
		Metrics:        a.metrics,
		Logger:         logger,
	})

	a.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

func (a *App) buildStores() error {
	switch a.cfg.Database.Driver {
	case "memory":
		a.store = memory.NewEntityStore()
		a.schemas = memory.NewSchemaStore()
		return nil

	default:
		db, err := sqlite.Open(a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return err
		}
		a.db = db
		a.store = sqlite.NewEntityStore(db)
		a.schemas = sqlite.NewSchemaStore(db)
		return nil
	}
}

// loadSchemas reads YAML schema definitions into the schema store.
func (a *App) loadSchemas(dir string) error {
	if dir == "" {
		return nil
	}
	parsed, err := schema.ParseDir(dir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, s := range parsed {
		if err := a.schemas.Save(ctx, s); err != nil {
			return fmt.Errorf("save schema %s: %w", s.Name, err)
		}
	}
	a.logger.Info().Int("count", len(parsed)).Str("dir", dir).Msg("schemas loaded")
	return nil
}

// Run starts the server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.server.Addr).Msg("server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}

	if a.holder != nil {
		a.holder.Stop()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// decodeAdminHash accepts the hash as raw bcrypt text or base64.
func decodeAdminHash(v string) ([]byte, error) {
	if v == "" {
		return nil, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(v); err == nil && len(decoded) > 0 && decoded[0] == '$' {
		return decoded, nil
	}
	if v[0] != '$' {
		return nil, fmt.Errorf("auth.admin_token_hash is not a bcrypt hash")
	}
	return []byte(v), nil
}

func baseLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
