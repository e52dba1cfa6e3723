package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	kafkaadapter "github.com/ericfisherdev/sensorhub/internal/adapter/driven/kafka"
	postgresadapter "github.com/ericfisherdev/sensorhub/internal/adapter/driven/postgres"
	redisadapter "github.com/ericfisherdev/sensorhub/internal/adapter/driven/redis"
	sqliteadapter "github.com/ericfisherdev/sensorhub/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/sensorhub/internal/adapter/driving/http"
	mqttadapter "github.com/ericfisherdev/sensorhub/internal/adapter/driving/mqtt"
	webhandler "github.com/ericfisherdev/sensorhub/internal/adapter/driving/web"
	"github.com/ericfisherdev/sensorhub/internal/application"
	"github.com/ericfisherdev/sensorhub/internal/config"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
	"github.com/ericfisherdev/sensorhub/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(os.Stderr, cfg))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_driver", cfg.DBDriver,
		"mqtt_mode", cfg.MQTTMode,
		"kafka", cfg.KafkaEnabled(),
		"redis", cfg.RedisEnabled(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open storage and apply migrations.
	configStore, readingStore, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	count, err := readingStore.Count(ctx)
	if err != nil {
		return err
	}
	slog.Info("reading log ready", "readings", count)

	metrics := observability.NewMetrics()

	// 4. Create reading publishers.
	publishers, closePublishers, err := openPublishers(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer closePublishers()

	// 5. Create application services.
	configSvc := application.NewConfigService(configStore)
	ingestSvc := application.NewIngestService(readingStore, slog.Default(), publishers...)
	querySvc := application.NewQueryService(readingStore)

	// 6. Start MQTT intake.
	stopMQTT, err := startMQTT(ctx, cfg, ingestSvc, metrics)
	if err != nil {
		return err
	}
	defer stopMQTT()

	// 7. Register API and dashboard routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(configSvc, ingestSvc, querySvc, metrics, slog.Default()))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(configSvc, querySvc, slog.Default()))

	handler := httphandler.ApplyMiddleware(mux, httphandler.MiddlewareOptions{
		Logger:      slog.Default(),
		Metrics:     metrics,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	slog.Info("sensorhub started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStorage opens the configured backend, migrates it and returns its
// stores along with a close function.
func openStorage(ctx context.Context, cfg *config.Config) (driven.ConfigStore, driven.ReadingStore, func(), error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if err := postgresadapter.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, nil, err
		}
		slog.Info("migrations complete", "driver", cfg.DBDriver)

		db, err := postgresadapter.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("database opened", "driver", cfg.DBDriver)

		closeFn := func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}
		return postgresadapter.NewConfigRepo(db), postgresadapter.NewReadingRepo(db), closeFn, nil

	default:
		// Dual reader/writer with WAL mode.
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}
		slog.Info("database opened", "path", cfg.DBPath)

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		slog.Info("migrations complete", "driver", cfg.DBDriver)

		return sqliteadapter.NewConfigRepo(db), sqliteadapter.NewReadingRepo(db), closeFn, nil
	}
}

// openPublishers connects every enabled reading sink.
func openPublishers(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) ([]driven.ReadingPublisher, func(), error) {
	var (
		publishers []driven.ReadingPublisher
		closers    []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				slog.Error("error closing publisher", "error", err)
			}
		}
	}

	if cfg.KafkaEnabled() {
		p, err := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		publishers = append(publishers, observability.InstrumentPublisher(p, metrics))
		closers = append(closers, p)
		slog.Info("kafka publisher enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.RedisEnabled() {
		p, err := redisadapter.NewPublisher(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		publishers = append(publishers, observability.InstrumentPublisher(p, metrics))
		closers = append(closers, p)
		slog.Info("redis publisher enabled", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	}

	return publishers, closeAll, nil
}

// startMQTT starts the intake for the configured mode and returns its stop
// function. Client and embedded modes are exclusive so a reading is never
// stored twice.
func startMQTT(ctx context.Context, cfg *config.Config, ingest *application.IngestService, metrics *observability.Metrics) (func(), error) {
	intake := mqttadapter.NewIntake(cfg.MQTTTopic, ingest, metrics, slog.Default())

	switch cfg.MQTTMode {
	case config.MQTTClient:
		sub := mqttadapter.NewSubscriber(mqttadapter.SubscriberConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
		}, intake, slog.Default())
		if err := sub.Start(ctx); err != nil {
			return nil, err
		}
		return sub.Stop, nil

	case config.MQTTEmbedded:
		broker, err := mqttadapter.NewBroker(cfg.MQTTListenAddr, intake, slog.Default())
		if err != nil {
			return nil, err
		}
		if err := broker.Start(); err != nil {
			return nil, err
		}
		slog.Info("mqtt broker listening", "addr", cfg.MQTTListenAddr, "topic", cfg.MQTTTopic)
		return func() {
			if err := broker.Close(); err != nil {
				slog.Error("error closing mqtt broker", "error", err)
			}
		}, nil

	default:
		return func() {}, nil
	}
}
