package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/teamjersey/order-intake/internal/events"
	"github.com/teamjersey/order-intake/internal/orders"
	"github.com/teamjersey/order-intake/internal/reconcile"
	"github.com/teamjersey/order-intake/internal/sheet"
	"github.com/teamjersey/order-intake/internal/websocket"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// Store configuration
	storeBackend := getEnv("STORE_BACKEND", "memory")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "orderservice")
	dbPassword := getEnv("DB_PASSWORD", "orderservice")
	dbName := getEnv("DB_NAME", "orders")

	// Kafka configuration (optional; empty disables notifications)
	kafkaBrokers := getEnv("KAFKA_BROKERS", "")

	// Service configuration
	port := getEnv("ORDER_SERVICE_PORT", "8081")

	var table sheet.Table
	switch storeBackend {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		db, err := sql.Open("postgres", dsn)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		// Wait for database to be ready
		for i := 0; i < 30; i++ {
			if err := db.Ping(); err == nil {
				logger.Info("Database connection established")
				break
			}
			logger.Info("Waiting for database...")
			time.Sleep(2 * time.Second)
		}

		pgTable, err := sheet.NewPostgresTable(db, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize store")
		}
		table = pgTable

	case "memory":
		logger.Warn("Using in-memory store; orders are lost on restart")
		table = sheet.NewMemoryTable()

	default:
		logger.WithField("backend", storeBackend).Fatal("Unknown STORE_BACKEND")
	}

	reconciler := reconcile.New(table, logger)
	handler := orders.NewHandler(reconciler, table, logger)

	if kafkaBrokers != "" {
		producer, err := events.NewKafkaProducer(kafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		handler.SetNotifier(producer)
	} else {
		logger.Warn("KAFKA_BROKERS not set; order notifications disabled")
	}

	hub := websocket.NewHub(logger)
	go hub.Run()
	handler.SetEventSink(hub)

	// Set up routes
	router := mux.NewRouter()
	router.HandleFunc("/health", handler.HandleHealth).Methods("GET")
	router.HandleFunc("/orders", handler.HandleWrite).Methods("POST")
	router.HandleFunc("/orders", handler.HandleList).Methods("GET")
	router.HandleFunc("/ws", hub.HandleWebSocket).Methods("GET")

	// Middleware
	router.Use(loggingMiddleware(logger))

	// Create server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.WithFields(logrus.Fields{
			"port":  port,
			"store": storeBackend,
		}).Info("Starting order service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Info("Request received")

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
