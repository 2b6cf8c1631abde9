package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/clubcouncil/registration-engine/internal/adapter/handler"
	"github.com/clubcouncil/registration-engine/internal/adapter/identity"
	"github.com/clubcouncil/registration-engine/internal/adapter/notifier"
	"github.com/clubcouncil/registration-engine/internal/adapter/repository/postgres"
	"github.com/clubcouncil/registration-engine/internal/core/ports"
	"github.com/clubcouncil/registration-engine/internal/core/services"
	"github.com/clubcouncil/registration-engine/internal/platform/config"
	"github.com/clubcouncil/registration-engine/internal/platform/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Connecting to Redis at %s...", cfg.RedisAddr())
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr(),
		DB:   0,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connected successfully!")

	var ticketNotifier ports.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notifier.NewAMQPNotifier(cfg.AMQPURL, cfg.NotifyQueue)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpNotifier.Close()
		ticketNotifier = amqpNotifier
	} else {
		log.Println("AMQP_URL not set, logging notifications instead")
		ticketNotifier = notifier.NewLogNotifier()
	}

	eventRepo := postgres.NewEventRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	participants := identity.NewClient(cfg.IdentityURL)

	registrationSvc := services.NewRegistrationService(eventRepo, registrationRepo, inventoryRepo, ticketNotifier, redisClient)
	approvalSvc := services.NewApprovalService(eventRepo, registrationRepo, inventoryRepo, ticketNotifier, redisClient)
	attendanceSvc := services.NewAttendanceService(eventRepo, registrationRepo)
	reportSvc := services.NewReportService(eventRepo, registrationRepo, participants)

	registrationHandler := handler.NewRegistrationHandler(registrationSvc, approvalSvc, attendanceSvc, reportSvc)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/", registrationHandler.Routes([]byte(cfg.JWTSecret)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
