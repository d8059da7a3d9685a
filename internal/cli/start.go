package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formflow/internal/app"
	"formflow/internal/config"
	"formflow/internal/infra/file"
	"formflow/internal/infra/memory"
	"formflow/internal/infra/postgres"
	rediscache "formflow/internal/infra/redis"
	"formflow/internal/logging"
	"formflow/internal/metrics"
	transport "formflow/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the form service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, *logLevel)
		},
	}
}

// store is what the services need from the source of truth.
type store interface {
	app.FormStore
	app.ResponseStore
}

func runServer(ctx context.Context, configPath, portFlag, levelFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if levelFlag != "" {
		cfg.Log.Level = levelFlag
	}
	logger := logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var backing store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		backing = postgres.NewStore(pool)
	} else {
		logger.Warn("postgres url not configured, forms are kept in memory")
		backing = memory.NewFormStore()
	}

	formTTL := config.TTLDuration(cfg.Forms.CacheTTL, 10*time.Minute)
	var forms app.FormRepository
	if redisClient != nil {
		forms = rediscache.NewFormRepository(redisClient, backing, formTTL)
	} else {
		forms = memory.NewFormRepository(backing, formTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Sessions.TTL, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	var sessions app.SessionStore
	if redisClient != nil {
		sessions = rediscache.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	opts := []app.Option{app.WithLogger(logger), app.WithMetrics(recorder)}
	formService := app.NewFormService(backing, forms, opts...)
	fillService := app.NewFillService(forms, backing, sessions, opts...)

	if cfg.Forms.SeedDir != "" {
		if err := seedForms(ctx, cfg.Forms.SeedDir, formService, logger); err != nil {
			return err
		}
	}

	router := transport.NewRouter(formService, fillService,
		transport.WithLogger(logger),
		transport.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Info("starting form service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedForms stores the forms found in dir when the store is still empty.
func seedForms(ctx context.Context, dir string, forms *app.FormService, logger *slog.Logger) error {
	existing, err := forms.ListForms(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("store already holds forms, skipping seed", "count", len(existing))
		return nil
	}
	seeds, err := file.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, form := range seeds {
		if _, err := forms.SaveForm(ctx, form.Title, form.Questions); err != nil {
			return err
		}
	}
	logger.Info("seeded forms", "dir", dir, "count", len(seeds))
	return nil
}
