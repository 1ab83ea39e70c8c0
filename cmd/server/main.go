package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"googlepay-merchant-server/internal/api"
	appconfig "googlepay-merchant-server/internal/config"
	"googlepay-merchant-server/internal/events"
	"googlepay-merchant-server/internal/payment"
	"googlepay-merchant-server/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			appconfig.Load,
			newLogger,
			newProducer,
			newPaymentService,
			newMux,
		),
		fx.Invoke(
			setupTelemetry,
			registerWebServer,
		),
	)
	app.Run()
}

func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

func newProducer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) *events.Producer {
	producer := events.NewProducer(cfg.Kafka.Brokers)
	if producer == nil {
		logger.Printf("KAFKA_BROKERS not set; payment events disabled")
		return nil
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return producer.Close()
		},
	})
	return producer
}

func newPaymentService(cfg appconfig.Config, logger *log.Logger, producer *events.Producer) *payment.Service {
	return payment.NewService(cfg, logger, producer, nil)
}

func newMux(svc *payment.Service, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	api.RegisterHealthRoutes(mux)
	api.RegisterPaymentRoutes(mux, svc, logger)
	return mux
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config) {
	var cleanup func()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			cleanup = telemetry.InitTracer(cfg.ServiceName)
			return nil
		},
		OnStop: func(context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})
}

func registerWebServer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, shutdowner fx.Shutdowner, mux *http.ServeMux) {
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Printf("Wallet payment API listening on %s", cfg.HTTP.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("HTTP server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	})
}
