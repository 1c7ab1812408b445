package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"dossier-engine/internal/config"
	"dossier-engine/internal/docs"
	"dossier-engine/internal/engine"
	"dossier-engine/internal/handler"
	"dossier-engine/internal/ledger"
	"dossier-engine/internal/logger"
	"dossier-engine/internal/numbering"
	"dossier-engine/internal/observability"
	"dossier-engine/internal/ratefeed"
	"dossier-engine/internal/reconcile"
	"dossier-engine/internal/refdata"
	"dossier-engine/internal/session"
	"dossier-engine/internal/store"
	"dossier-engine/internal/supplier"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})

	deps, cleanup, err := buildDeps(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer cleanup()

	sessions := session.NewRegistry(deps)
	eng := engine.New(sessions, deps.Operator, log)
	h := handler.New(eng, sessions, cfg.Agency, log)

	server := &fasthttp.Server{
		Handler:      h.Serve,
		Name:         "dossier-engine",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Warn("server shutdown", "error", err)
		}
	}()

	log.Info("dossier engine starting", "port", cfg.Port, "store", cfg.Store.Backend, "mirror", cfg.Store.Mirror)
	if err := server.ListenAndServe(":" + cfg.Port); err != nil {
		log.Error("server failed", "error", err)
	}

	sessions.CloseAll()
	tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(tctx); err != nil {
		log.Warn("tracing shutdown", "error", err)
	}
}

func buildDeps(ctx context.Context, cfg config.Config, log *logger.Logger) (session.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	table := cfg.CurrencyRates()
	if table == nil {
		table = refdata.DefaultRates
	}
	if cfg.RatesURL != "" {
		fctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		table = ratefeed.New(cfg.RatesURL, 2*time.Second, log).Rates(fctx, table)
		cancel()
	}
	rates, err := refdata.NewRates(table)
	if err != nil {
		return session.Deps{}, cleanup, err
	}
	nationalities := refdata.NewNationalities(cfg.Nationalities)

	guard, err := buildGuard(cfg.Void)
	if err != nil {
		return session.Deps{}, cleanup, err
	}

	gateway, closeStore, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return session.Deps{}, cleanup, err
	}
	closers = append(closers, closeStore)

	numbers, err := numbering.Open(cfg.Numbering.Driver, cfg.Numbering.DSN)
	if err != nil {
		cleanup()
		return session.Deps{}, func() {}, fmt.Errorf("numbering: %w", err)
	}
	closers = append(closers, func() { _ = numbers.Close() })

	var lookup reconcile.Lookup
	if cfg.Reconcile.BaseURL != "" {
		lookup = supplier.NewClient(supplier.Config{
			BaseURL: cfg.Reconcile.BaseURL,
			Token:   cfg.Reconcile.Token,
			Timeout: cfg.Reconcile.Timeout,
		})
	} else {
		log.Warn("reconciliation partner not configured; lookups will fail", "partner", cfg.Reconcile.Partner)
	}

	return session.Deps{
		Store:         gateway,
		Numbering:     numbers,
		Renderer:      docs.TextRenderer{Agency: cfg.Agency},
		Lookup:        lookup,
		Rates:         &rates,
		Nationalities: &nationalities,
		Guard:         guard,
		Partner:       cfg.Reconcile.Partner,
		Debounce:      cfg.Reconcile.Debounce,
		Logger:        log,
		Operator:      session.Operator{Name: cfg.Operator.Name, Level: cfg.Operator.Level},
	}, cleanup, nil
}

func buildGuard(cfg config.VoidConfig) (*ledger.Guard, error) {
	if cfg.SecretHash != "" {
		return ledger.NewGuardFromHash(cfg.SecretHash)
	}
	return ledger.NewGuard(cfg.Secret, bcrypt.DefaultCost)
}

// buildStore returns the configured gateway wrapped in tracing. With mirror
// set, writes also land in a process-local copy that serves reads first.
func buildStore(ctx context.Context, cfg config.StoreConfig) (store.Gateway, func(), error) {
	var remote store.Gateway
	closeFn := func() {}

	switch cfg.Backend {
	case "memory":
		return store.Traced(store.NewMemory(), "memory"), closeFn, nil
	case "redis":
		r, err := store.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Prefix)
		if err != nil {
			return nil, closeFn, err
		}
		remote = r
		closeFn = func() { _ = r.Close() }
	case "s3":
		s, err := store.NewS3(ctx, store.S3Config{
			Bucket:        cfg.S3.Bucket,
			Prefix:        cfg.S3.Prefix,
			LocalEndpoint: cfg.S3.LocalEndpoint,
		})
		if err != nil {
			return nil, closeFn, err
		}
		remote = s
	default:
		return nil, closeFn, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.Mirror {
		return store.Traced(store.NewMirror(store.NewMemory(), remote), cfg.Backend+"+mirror"), closeFn, nil
	}
	return store.Traced(remote, cfg.Backend), closeFn, nil
}
