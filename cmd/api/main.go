package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/binhetc/pos-ai/internal/adapter/handler"
	"github.com/binhetc/pos-ai/internal/adapter/storage"
	"github.com/binhetc/pos-ai/internal/core/checkout"
	"github.com/binhetc/pos-ai/internal/core/config"
	"github.com/binhetc/pos-ai/internal/core/gateway/momo"
	"github.com/binhetc/pos-ai/internal/core/notifications"
	"github.com/binhetc/pos-ai/internal/core/reconcile"
	"github.com/binhetc/pos-ai/internal/core/worker"
)

func main() {
	// 1. Load Config
	cfg := config.LoadConfig()

	// 2. Setup Logger
	level := slog.LevelInfo
	if !cfg.IsProduction() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	dbPool, err := storage.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := storage.Migrate(ctx, dbPool); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	// 4. Setup Repos
	var payments storage.PaymentBackend = storage.NewPaymentRepository(dbPool)
	if cfg.RedisURL != "" {
		rdb, err := storage.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("Redis unavailable, payment cache disabled", "error", err)
		} else {
			defer rdb.Close()
			payments = storage.NewCachedPayments(payments, storage.NewRedisPaymentCache(rdb, storage.DefaultCacheTTL))
		}
	}

	// 5. Setup Services & Handlers
	momoClient := momo.NewClient(cfg.MoMo.Endpoint, momo.Credentials{
		PartnerCode: cfg.MoMo.PartnerCode,
		AccessKey:   cfg.MoMo.AccessKey,
		SecretKey:   cfg.MoMo.SecretKey,
	}, cfg.MoMo.Timeout)

	checkoutSvc := checkout.NewService(payments, checkout.VNPayConfig{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		PaymentURL: cfg.VNPay.PaymentURL,
	}, momoClient, logger)

	engine := reconcile.NewEngine(payments, reconcile.Secrets{
		VNPayHashSecret: cfg.VNPay.HashSecret,
		MoMoSecretKey:   cfg.MoMo.SecretKey,
	}, logger)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	handler.Register(app, handler.Routes{
		IPN:         &handler.IPNHandler{Engine: engine},
		Payments:    handler.NewPaymentHandler(checkoutSvc),
		JWTSecret:   cfg.JWTSecret,
		Idempotency: storage.NewIdempotencyRepository(dbPool),
		Ping:        dbPool.Ping,
	})

	// 7. Start Worker
	publisher, closePublisher := buildPublisher(cfg)
	eventWorker := worker.NewEventWorker(storage.NewOutboxRepository(dbPool), publisher, worker.DefaultInterval)
	eventWorker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "env", cfg.Env, "port", cfg.Port)
		serverErr <- app.Listen(":" + cfg.Port)
	}()

	exitErr := waitForExit(stop, serverErr)

	// Stop accepting requests and finish active ones before the pool goes away
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	cancel()
	<-eventWorker.Done()
	closePublisher()

	dbPool.Close()
	slog.Info("Database connection closed")
	if exitErr != nil {
		os.Exit(1)
	}
	slog.Info("Server exited successfully")
}

// waitForExit blocks until a shutdown signal arrives or the listener stops on
// its own. The latter is returned as an error.
func waitForExit(stop <-chan os.Signal, serverErr <-chan error) error {
	select {
	case sig := <-stop:
		slog.Info("Shutting down server...", "signal", sig.String())
		return nil
	case err := <-serverErr:
		if err == nil {
			err = errors.New("listener closed")
		}
		slog.Error("Server stopped unexpectedly", "error", err)
		return err
	}
}

// buildPublisher picks the event sink from EVENT_SINK. Unknown or
// misconfigured sinks fall back to logging only.
func buildPublisher(cfg *config.Config) (notifications.Publisher, func()) {
	switch cfg.EventSink {
	case "webhook":
		if cfg.WebhookURL == "" {
			slog.Warn("EVENT_SINK=webhook but WEBHOOK_URL is empty, events will only be logged")
			break
		}
		if cfg.WebhookSecret == "" {
			slog.Warn("WEBHOOK_SECRET is missing, webhook signatures use an empty key")
		}
		return notifications.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret), func() {}
	case "kafka":
		producer, err := notifications.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			slog.Error("Kafka producer unavailable, events will only be logged", "error", err)
			break
		}
		pub := notifications.NewKafkaPublisher(producer, cfg.KafkaTopic)
		return pub, func() {
			if err := pub.Close(); err != nil {
				slog.Error("Kafka producer close failed", "error", err)
			}
		}
	case "", "none":
	default:
		slog.Warn("Unknown EVENT_SINK, events will only be logged", "sink", cfg.EventSink)
	}
	return notifications.LogPublisher{}, func() {}
}
