package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoaban-restaurant/internal/catalog"
	"hoaban-restaurant/internal/config"
	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/messaging"
	"hoaban-restaurant/internal/qrtoken"
	"hoaban-restaurant/internal/ratelimit"
	"hoaban-restaurant/internal/server"
	"hoaban-restaurant/internal/services/loyalty"
	"hoaban-restaurant/internal/services/notification"
	"hoaban-restaurant/internal/services/order"
	"hoaban-restaurant/internal/services/payment"
	"hoaban-restaurant/internal/services/reservation"
)

func main() {
	var (
		mode      = flag.String("mode", "", "Service mode (api, notification-subscriber, cleanup)")
		port      = flag.Int("port", 3000, "HTTP port")
		rateLimit = flag.Int("rate-limit", 50, "Requests per minute per caller on sensitive endpoints")
		prefetch  = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": *port,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "api":
		if err := runAPI(ctx, cfg, log, *port, *rateLimit); err != nil {
			log.Error("service_failed", "API service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runNotificationSubscriber(ctx, cfg, log, *prefetch); err != nil {
			log.Error("service_failed", "Notification subscriber failed", requestID, err, nil)
			os.Exit(1)
		}
	case "cleanup":
		if err := runCleanup(ctx, cfg, log); err != nil {
			log.Error("service_failed", "Cleanup failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runAPI runs the HTTP API with all core services mounted
func runAPI(ctx context.Context, cfg *config.Config, log *logger.Logger, port, rateLimitPerMinute int) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	publisher := messaging.NewPublisher(conn, log)

	signer := qrtoken.NewSigner(cfg.Security.QRSecret)
	limiter := ratelimit.New(rateLimitPerMinute, time.Minute)
	defer limiter.Close()

	tokenTTL := time.Duration(cfg.Security.QRTTLMinutes) * time.Minute
	orderService := order.NewService(db, catalog.NewPG(db), signer, publisher, log, tokenTTL)
	orderHandler := order.NewHandler(orderService, log)

	paymentService := payment.NewService(db, orderService, cfg.VNPay, log)
	paymentHandler := payment.NewHandler(paymentService, log)

	reservationService := reservation.NewService(db, publisher, log)
	reservationHandler := reservation.NewHandler(reservationService, log)

	loyaltyService := loyalty.NewService(db, log)
	loyaltyHandler := loyalty.NewHandler(loyaltyService, log)

	mux := http.NewServeMux()
	orderHandler.Register(mux, limiter)
	paymentHandler.Register(mux, limiter)
	reservationHandler.Register(mux)
	loyaltyHandler.Register(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		healthCtx, healthCancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer healthCancel()

		healthy := db.Ping(healthCtx) == nil && !conn.IsClosed()
		status := http.StatusOK
		text := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			text = "degraded"
		}
		server.WriteJSON(w, status, map[string]interface{}{
			"status":    text,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "hoaban-api",
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: server.WithLogging(log, mux),
	}

	go func() {
		log.Info("http_listening", fmt.Sprintf("API listening on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

// runNotificationSubscriber consumes the notifications queue
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	subscriber := notification.NewSubscriber(consumer, log)
	return subscriber.Start(ctx)
}

// runCleanup deletes abandoned empty carts and exits
func runCleanup(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	orderService := order.NewService(db, catalog.NewPG(db), nil, nil, log, 0)
	removed, err := orderService.CleanupEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean up empty carts: %w", err)
	}

	log.Info("cleanup_completed", "Removed abandoned empty carts", requestID, map[string]interface{}{
		"removed": removed,
	})
	return nil
}
