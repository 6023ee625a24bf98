package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"gstvault/internal/jobs"
	"gstvault/internal/repositories"
	"gstvault/internal/services"
	"gstvault/pkg/database"
)

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	invoiceBucket := os.Getenv("INVOICE_BUCKET")
	if invoiceBucket == "" {
		invoiceBucket = "invoices"
	}

	blobSvc, err := services.NewMinioBlobService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	// OCR extraction service
	ocrServiceURL := os.Getenv("OCR_SERVICE_URL")
	if ocrServiceURL == "" {
		log.Fatal("OCR_SERVICE_URL environment variable is required")
	}
	ocrClient := services.NewHTTPOcrClient(ocrServiceURL, 60*time.Second)

	// Repositories and services the processor depends on
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	versionRepo := repositories.NewVersionRepo(pool)
	ocrJobRepo := repositories.NewOcrJobRepo(pool)
	gstRepo := repositories.NewGSTRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	auditSvc := services.NewAuditService(auditLogRepo)
	versioningSvc := services.NewVersioningService(versionRepo, invoiceRepo, auditSvc)
	gstSvc := services.NewGSTService(gstRepo)

	processor := jobs.NewOcrProcessor(ocrJobRepo, invoiceRepo, versioningSvc, gstSvc, blobSvc, ocrClient, invoiceBucket)

	concurrency := 5
	if concurrencyStr := os.Getenv("WORKER_CONCURRENCY"); concurrencyStr != "" {
		if n, err := strconv.Atoi(concurrencyStr); err == nil && n > 0 {
			concurrency = n
		}
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		},
		asynq.Config{
			Concurrency:    concurrency,
			RetryDelayFunc: jobs.OcrRetryDelay,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeOcrProcess, processor.HandleOcrProcess)

	log.Printf("OCR worker starting with concurrency %d", concurrency)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
