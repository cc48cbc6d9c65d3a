package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/learn-platform/internal/platform/analytics"
	"github.com/example/learn-platform/internal/platform/auth"
	platformconfig "github.com/example/learn-platform/internal/platform/config"
	"github.com/example/learn-platform/internal/platform/db"
	"github.com/example/learn-platform/internal/platform/httpserver"
	"github.com/example/learn-platform/internal/platform/logging"
	"github.com/example/learn-platform/internal/platform/natsconn"
	"github.com/example/learn-platform/internal/platform/run"
	"github.com/example/learn-platform/internal/platform/signing"
	scormconfig "github.com/example/learn-platform/services/scorm/internal/config"
	"github.com/example/learn-platform/services/scorm/internal/handlers"
	"github.com/example/learn-platform/services/scorm/internal/registry"
	"github.com/example/learn-platform/services/scorm/internal/resolver"
	"github.com/example/learn-platform/services/scorm/internal/store"
	"github.com/example/learn-platform/services/scorm/internal/worker"
)

func main() {
	cfg, err := platformconfig.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	scormCfg := scormconfig.Load()
	if scormCfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		run.Exit(1)
	}
	if scormCfg.WrapperSecret == "" {
		log.Error("WRAPPER_SECRET is required")
		run.Exit(1)
	}

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		// Progress store: Postgres when DATABASE_URL is set, else an
		// in-memory fallback for local development.
		var progress store.ProgressStore
		if strings.TrimSpace(os.Getenv("DATABASE_URL")) != "" {
			pool, err := db.Open(ctx)
			if err != nil {
				log.Error("db open", zap.Error(err))
				return err
			}
			defer pool.Close()
			progress = store.NewPostgresProgressStore(pool)
		} else {
			log.Warn("DATABASE_URL not set, progress is not durable")
			progress = store.NewMemoryProgressStore()
		}

		// NATS is optional: without it analytics are no-ops and commits
		// write straight to the store.
		var pub *analytics.Publisher
		if strings.TrimSpace(os.Getenv("NATS_URL")) != "" {
			nc, err := natsconn.Connect(natsconn.Options{})
			if err != nil {
				log.Error("nats connect", zap.Error(err))
				return err
			}
			defer nc.Close()

			js, err := natsconn.JetStream(nc)
			if err != nil {
				log.Error("jetstream init", zap.Error(err))
				return err
			}
			pub = analytics.New(js, log)

			if scormCfg.ProgressAsync {
				// Commits publish events; the consumer applies them to
				// the durable store.
				worker.StartProgressConsumer(ctx, nc, progress)
				progress = store.NewAsyncProgressStore(js, progress)
			}
		}

		reg := registry.New(scormCfg.SessionTTL, log)
		go reg.Sweep(ctx, scormCfg.SessionSweep)

		deps := handlers.Deps{
			Log:       log,
			Cfg:       scormCfg,
			Resolver:  resolver.New(scormCfg.ExtractRoot, log),
			Registry:  reg,
			Store:     progress,
			Signer:    signing.New(scormCfg.WrapperSecret),
			Analytics: pub,
		}

		r := chi.NewRouter()
		httpserver.SetupRouter(r)
		handlers.Routes(r, deps, auth.JWTVerifier{Secret: []byte(scormCfg.JWTSecret)})

		srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
