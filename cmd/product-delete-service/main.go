// Package main boots the Product Delete Service HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/product-delete-service/internal/broker"
	"github.com/fairyhunter13/product-delete-service/internal/config"
	"github.com/fairyhunter13/product-delete-service/internal/events"
	httpapi "github.com/fairyhunter13/product-delete-service/internal/http"
	"github.com/fairyhunter13/product-delete-service/internal/obs"
	"github.com/fairyhunter13/product-delete-service/internal/secrets"
	"github.com/fairyhunter13/product-delete-service/internal/store"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "storage_backend", cfg.StorageBackend, "tables", cfg.Tables)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tel := obs.NewTelemetry()
	tel.Install()
	metrics := tel.Metrics

	backend, err := openTables(ctx, cfg)
	if err != nil {
		obs.Logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}
	st, err := store.New(backend, cfg.Tables, metrics)
	if err != nil {
		obs.Logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}

	session, err := broker.Dial(cfg.BrokerURL, cfg.EventQueue)
	if err != nil {
		obs.Logger.Error("broker_connect_error", "error", err)
	}
	pub := broker.NewPublisher(session.Channel(), cfg.EventQueue, metrics)
	disp := events.NewDispatcher(pub, cfg.PublishWorkers)
	disp.Start(ctx)

	app := httpapi.NewApp(cfg, st, disp, pub, tel)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}

	disp.CloseIntake()
	stats := disp.Stats()
	obs.Logger.Info("shutdown_drain_begin", "backlog_size", stats.Backlog, "queue_depth", stats.Depth)
	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := disp.DrainUntil(ctxDrain); !drained {
		obs.Logger.Warn("shutdown_drain_timeout")
	} else {
		obs.Logger.Info("shutdown_drain_complete")
	}
	disp.Stop()
	if err := session.Close(); err != nil {
		obs.Logger.Error("broker_close_error", "error", err)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		obs.Logger.Error("telemetry_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}

// openTables returns the storage backend. The DynamoDB backend needs the
// credential bundle from the secrets function; failing to get it aborts
// startup.
func openTables(ctx context.Context, cfg config.Config) (store.Tables, error) {
	if cfg.StorageBackend == config.BackendMemory {
		obs.Logger.Warn("memory_storage_backend", "reason", "STORAGE_BACKEND=memory")
		return store.NewMemoryTables(), nil
	}
	provider, err := newSecretsProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("secrets provider: %w", err)
	}
	creds, err := provider.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch secrets: %w", err)
	}
	awsCfg, err := secrets.AWSConfig(ctx, cfg.AWSRegion, creds)
	if err != nil {
		return nil, err
	}
	return store.NewDynamoTablesFromConfig(awsCfg, cfg.KeyAttribute), nil
}

func newSecretsProvider(ctx context.Context, cfg config.Config) (secrets.Provider, error) {
	if cfg.SecretsSource == config.SecretsSecretsManager {
		return secrets.NewManagerProviderForRegion(ctx, cfg.AWSRegion, cfg.SecretID, obs.Logger)
	}
	return secrets.NewLambdaProviderForRegion(ctx, cfg.AWSRegion, cfg.SecretsFunction, secrets.WithLogger(obs.Logger))
}
