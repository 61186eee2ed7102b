package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/orgkeys/orgkeys/internal/keys"
	"github.com/orgkeys/orgkeys/internal/logger"
	"github.com/orgkeys/orgkeys/internal/provider"
	"github.com/orgkeys/orgkeys/internal/registry"
	"github.com/orgkeys/orgkeys/internal/server"
	"github.com/orgkeys/orgkeys/internal/store/postgres"
	"github.com/orgkeys/orgkeys/internal/telemetry"
)

type ServerCmd struct {
	Listen         string `help:"listen address" default:"localhost:8080"`
	ConnString     string `help:"PostgreSQL connection string" env:"DATABASE_URL" required:""`
	AutoMigrate    bool   `help:"run pending migrations on startup" default:"true"`
	DefaultsConfig string `help:"YAML file overriding default key provider parameters" type:"existingfile" optional:""`
}

func (s *ServerCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectWithRetry(ctx, &postgres.PoolConfig{
		ConnString:  s.ConnString,
		AutoMigrate: s.AutoMigrate,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	defaultsCfg := keys.DefaultsConfig{}
	if s.DefaultsConfig != "" {
		cfg, err := keys.LoadDefaultsConfig(s.DefaultsConfig)
		if err != nil {
			return err
		}
		defaultsCfg = *cfg
	}

	schemas := provider.NewRegistry()
	providers := keys.Register(schemas,
		keys.RSAProvider{},
		keys.ECDSAProvider{},
		keys.HMACProvider{},
	)

	components := postgres.NewComponentStore(pool, schemas)
	organizations := postgres.NewOrganizationStore(pool)
	defaults := keys.NewDefaultProviders(components, providers, defaultsCfg)
	reg := registry.New(organizations, components, defaults)
	keyManager := keys.NewManager(components, providers)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := server.New(reg, components, keyManager, providers, schemas)
	srv.Register(e, telemetry.NewHTTPMetrics())

	httpServer := configureHTTPServer(s.Listen, e)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("version", globals.Version).Str("listen", s.Listen).Msg("Starting server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

// connectWithRetry establishes the connection pool, retrying with
// exponential backoff while the database comes up.
func connectWithRetry(ctx context.Context, cfg *postgres.PoolConfig) (*pgxpool.Pool, error) {
	return backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Database not ready, retrying")
			return nil, err
		}
		return pool, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(10))
}

// MigrateCmd runs pending migrations without starting the server.
type MigrateCmd struct {
	ConnString string `help:"PostgreSQL connection string" env:"DATABASE_URL" required:""`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	pool, err := postgres.NewPool(ctx, &postgres.PoolConfig{
		ConnString:  m.ConnString,
		AutoMigrate: true,
	})
	if err != nil {
		return err
	}
	pool.Close()

	return nil
}
