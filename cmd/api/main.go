package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/galvinus/lead-conversion/internal/infra/database"
	"github.com/galvinus/lead-conversion/internal/infra/http/handlers"
	"github.com/galvinus/lead-conversion/internal/infra/http/middleware"
	"github.com/galvinus/lead-conversion/internal/infra/integration/accounts"
	"github.com/galvinus/lead-conversion/internal/infra/mail"
	"github.com/galvinus/lead-conversion/internal/infra/queue"
	"github.com/galvinus/lead-conversion/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "guest"),
		envOr("RABBITMQ_PASS", "guest"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	conversionRepo := database.NewConversionRepository(db)

	// 2. Gateways and adapters
	gateway := accounts.NewClient(os.Getenv("ACCOUNTS_SERVICE_URL"))
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	var mailSender usecase.EmailService
	if os.Getenv("MAIL_HOST") != "" {
		port, _ := strconv.Atoi(envOr("MAIL_PORT", "587"))
		mailSender = mail.NewEmailSender(
			os.Getenv("MAIL_HOST"), port,
			os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
			envOr("MAIL_FROM", "no-reply@galvinus.com"),
		)
	}

	// 3. Reconciliation worker (retries compensation deletes that failed)
	worker := queue.NewReconciliationWorker(rabbitMQ.Ch, gateway)
	go worker.Start(queue.OrphanQueueName)

	// 4. Use cases
	convertLeadUC := usecase.NewConvertLeadUseCase(
		leadRepo, conversionRepo, gateway, producer, mailSender,
	)
	getConversionUC := usecase.NewGetConversionUseCase(conversionRepo)

	// 5. Handlers
	convertHandler := handlers.NewConvertHandler(convertLeadUC)
	conversionHandler := handlers.NewConversionHandler(getConversionUC)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/leads/{leadId}/convert", convertHandler.Handle)
	r.Get("/leads/{leadId}/conversion", conversionHandler.Handle)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + envOr("PORT", "8080")
	log.Printf("lead conversion service listening on %s", port)
	http.ListenAndServe(port, r)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
