package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/kimbucha/roomiesBolt-sub000/internal/audit"
	"github.com/kimbucha/roomiesBolt-sub000/internal/auth"
	"github.com/kimbucha/roomiesBolt-sub000/internal/config"
	"github.com/kimbucha/roomiesBolt-sub000/internal/handlers"
	"github.com/kimbucha/roomiesBolt-sub000/internal/metrics"
	"github.com/kimbucha/roomiesBolt-sub000/internal/middleware"
	"github.com/kimbucha/roomiesBolt-sub000/internal/remote"
	"github.com/kimbucha/roomiesBolt-sub000/internal/search"
	"github.com/kimbucha/roomiesBolt-sub000/internal/service"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage"
	redisstore "github.com/kimbucha/roomiesBolt-sub000/internal/storage/redis"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage/sqlite"
	"github.com/kimbucha/roomiesBolt-sub000/pkg/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.Logging.Level))

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Discovery records always live in SQLite.
	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Storage.DBPath, "accounts", cfg.Storage.Backend)

	var kv storage.KV = store
	health := store.Ping
	if cfg.Storage.Backend == config.BackendRedis {
		rkv, err := redisstore.New(ctx, cfg.Storage.RedisURL)
		if err != nil {
			return err
		}
		defer rkv.Close()
		kv = rkv
		health = func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			return rkv.Health(ctx)
		}
	}
	accountRepo := storage.NewKVAccounts(kv)

	m := metrics.New(prometheus.DefaultRegisterer)

	var backend remote.Backend = remote.Noop{}
	if cfg.Remote.BaseURL != "" {
		backend = remote.NewHTTPBackend(cfg.Remote.BaseURL, cfg.Remote.APIKey, cfg.Remote.Timeout)
		slog.Info("Remote backend configured", "url", cfg.Remote.BaseURL)
	}

	g, gctx := errgroup.WithContext(ctx)

	var observers []service.DiscoveryObserver
	if cfg.Search.Host != "" {
		index, err := search.Connect(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.Index)
		if err != nil {
			return err
		}
		indexer := search.NewIndexer(index, m)
		observers = append(observers, indexer)
		g.Go(func() error { return indexer.Run(gctx) })

		recs, err := store.ListDiscovery(ctx, storage.ListOptions{})
		if err != nil {
			return err
		}
		if err := indexer.Reindex(recs); err != nil {
			slog.Warn("Initial search reindex failed", "error", err)
		}
		slog.Info("Search indexing enabled", "host", cfg.Search.Host, "index", cfg.Search.Index, "profiles", len(recs))
	}

	accounts := service.NewAccountService(service.AccountDeps{
		Accounts:  accountRepo,
		Discovery: store,
		Remote:    backend,
		Metrics:   m,
		Observers: observers,
	})
	defer accounts.Close()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	authService := service.NewAuthService(auth.NewPasswordAuthenticator(accountRepo), jwtManager, backend, m, slog.Default())

	if cfg.Audit.Enabled {
		var opts []audit.Option
		if cfg.Audit.Repair {
			opts = append(opts, audit.WithRepair())
		}
		auditor := audit.New(accounts, opts...)
		if err := auditor.Start(cfg.Audit.Schedule); err != nil {
			return err
		}
		defer auditor.Stop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := health(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	handlers.New(accounts, authService, jwtManager, slog.Default()).Register(r)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("Server starting", "address", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
