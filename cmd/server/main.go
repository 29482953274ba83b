package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"savorysync/internal/auth"
	"savorysync/internal/config"
	"savorysync/internal/db"
	"savorysync/internal/events"
	"savorysync/internal/handlers"
	"savorysync/internal/logger"
	"savorysync/internal/repo"
	"savorysync/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	conn, err := db.NewPostgresDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	orderRepo := repo.NewOrderRepo(conn)
	catalog := repo.NewCatalog(conn)

	publisher, closePublishers, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublishers()

	var pricer service.LinePricer = service.TrustedPricer{}
	if cfg.VerifyPrices {
		pricer = service.NewCatalogPricer(catalog)
	}

	orders := service.NewOrderService(orderRepo, catalog, pricer, publisher, log)
	status := service.NewStatusService(orderRepo, catalog, publisher, log)
	analytics := service.NewAnalyticsService(orderRepo, catalog, cfg.AnalyticsWindowDays)

	api := handlers.NewServer(orders, status, analytics, auth.NewVerifier(cfg.JWTSecret), conn, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Bool("verify_prices", cfg.VerifyPrices).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server exited")
	return nil
}

// newPublisher fans order events out to every configured sink.
func newPublisher(cfg *config.Config, log zerolog.Logger) (events.Publisher, func(), error) {
	var sinks events.Multi
	closeAll := func() {}

	if cfg.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, amqpPub)
		closeAll = func() {
			if err := amqpPub.Close(); err != nil {
				log.Warn().Err(err).Msg("close amqp publisher")
			}
		}
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing order events to rabbitmq")
	}

	if cfg.TelegramToken != "" {
		notifier, err := events.DialTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, notifier)
		log.Info().Int64("chat_id", cfg.TelegramChatID).Msg("sending order alerts to telegram")
	}

	if len(sinks) == 0 {
		return events.Nop{}, closeAll, nil
	}
	return sinks, closeAll, nil
}
