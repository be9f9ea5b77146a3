package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/database/postgres"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/pkg/middleware/ipfilter"
	"golang.org/x/sync/errgroup"

	api "github.com/vadimbarashkov/shortlink/internal/api/http"
	pgdb "github.com/vadimbarashkov/shortlink/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	const op = "main.run"

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	db, err := pgdb.New(
		ctx,
		cfg.Postgres.DSN(),
		pgdb.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pgdb.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pgdb.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pgdb.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	if err := pgdb.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	trustedSubnets, err := ipfilter.ParsePrefixes(cfg.TrustedSubnets)
	if err != nil {
		return fmt.Errorf("%s: failed to parse trusted subnets: %w", op, err)
	}

	logger := httplog.NewLogger("shortlink", httplog.Options{
		LogLevel: slog.LevelInfo,
		JSON:     cfg.Env == config.EnvProd,
		Concise:  cfg.Env != config.EnvProd,
	})

	linkRepo := postgres.NewLinkRepository(db)
	logRepo := postgres.NewAccessLogRepository(db)
	linkSvc := service.NewLinkService(linkRepo, logRepo, cfg.TokenLength, logger.Logger)

	identity := api.NewIdentityProvider(cfg.JWTSecret)

	r := api.NewRouter(logger, linkSvc, db, identity, api.RouterConfig{
		BaseURL:        cfg.BaseURL,
		TrustedSubnets: trustedSubnets,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}
