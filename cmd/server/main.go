package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense_tracker/internal/api"
	"expense_tracker/internal/app/service"
	"expense_tracker/internal/app/worker"
	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/repository"
	"expense_tracker/internal/platform/config"
	"expense_tracker/internal/platform/database"
	"expense_tracker/internal/platform/events"
	"expense_tracker/internal/platform/queue"
)

// eventBuffer bounds the in-process event backlog when Redis is not used.
const eventBuffer = 1024

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	log.Printf("Configuration loaded: %s", cfg)

	// 2. Initialize JWT
	tokens, err := security.NewTokenService(cfg.JWTKey)
	if err != nil {
		log.Fatalf("Token service: %v", err)
	}

	// 3. Initialize Database
	db, err := database.Open(context.Background(), cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()

	// 4. Event sink and queue
	var sink events.Publisher = events.LogPublisher{}
	if cfg.KafkaEnabled() {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if err != nil {
			log.Fatalf("Could not start Kafka producer: %v", err)
		}
		defer kafka.Close()
		sink = kafka
	}

	publisher := sink
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	if cfg.RedisEnabled() {
		rdb, err := queue.Connect(context.Background(), cfg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer queue.Close(rdb)
		publisher = queue.NewPublisher(rdb, cfg.EventQueueName)

		eventWorker := worker.NewEventWorker(rdb, cfg.EventQueueName, sink)
		go func() {
			defer close(workerDone)
			eventWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
		log.Println("REDIS_ADDR not set; events are delivered to the sink in the background.")
		async := events.NewAsync(sink, eventBuffer)
		defer async.Close()
		publisher = async
	}

	// 5. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewEntryRepository(db)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, tokens, publisher)
	entryService := service.NewEntryService(entryRepo, publisher)
	userService := service.NewUserService(userRepo, publisher)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(
		api.RouterConfig{CORSOrigins: cfg.CORSOrigins, CookieSecure: cfg.CookieSecure},
		tokens,
		authService,
		entryService,
		userService,
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}

	// Stop the worker only after in-flight requests have queued their events.
	workerCancel()
	<-workerDone

	log.Println("Server and worker stopped gracefully.")
}
