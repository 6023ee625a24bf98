package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"gstvault/internal/caching"
	"gstvault/internal/handlers"
	"gstvault/internal/jobs"
	"gstvault/internal/jobs/background"
	"gstvault/internal/middleware"
	"gstvault/internal/repositories"
	"gstvault/internal/services"
	"gstvault/pkg/database"
)

const version = "1.0.0"

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

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	jwksURL := os.Getenv("JWKS_URL")
	if jwtSecret == "" && jwksURL == "" {
		log.Fatal("JWT_SECRET or JWKS_URL environment variable is required")
	}

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
	if err := blobSvc.EnsureBucketExists(context.Background(), invoiceBucket); err != nil {
		log.Fatalf("Failed to ensure bucket %s: %v", invoiceBucket, err)
	}

	// Create repositories
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	versionRepo := repositories.NewVersionRepo(pool)
	ocrJobRepo := repositories.NewOcrJobRepo(pool)
	exportRepo := repositories.NewExportRepo(pool)
	idempotencyRepo := repositories.NewIdempotencyRepo(pool)
	otpRepo := repositories.NewOtpRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Task queue client shared by the upload path and the reconciliation sweep
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	defer asynqClient.Close()
	enqueuer := jobs.NewAsynqEnqueuer(asynqClient)

	// Create services
	auditSvc := services.NewAuditService(auditLogRepo)
	versioningSvc := services.NewVersioningService(versionRepo, invoiceRepo, auditSvc)
	uploadSvc := services.NewUploadService(blobSvc, invoiceRepo, enqueuer, invoiceBucket)
	exportSvc := services.NewExportService(exportRepo, auditSvc)
	documentSvc := services.NewDocumentService(versionRepo, invoiceRepo, blobSvc, invoiceBucket)
	reportSvc := services.NewReportService(invoiceRepo, versionRepo)

	otpTTL := 10 * time.Minute
	otpSvc := services.NewOtpService(otpRepo, services.NewLogMailer(), otpTTL)

	// Create middleware
	authMiddleware, err := middleware.NewAuthMiddleware(jwtSecret, jwksURL)
	if err != nil {
		log.Fatalf("Failed to initialize auth middleware: %v", err)
	}
	idempotencyMiddleware := middleware.NewIdempotencyMiddleware(idempotencyRepo)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cacheSvc)
	permissionPolicy := middleware.NewPermissionPolicy(os.Getenv("PERMISSION_MODE"), pool)
	permissionMiddleware := middleware.NewPermissionMiddleware(permissionPolicy)

	// Create handlers
	uploadHandlers := handlers.NewUploadHandlers(uploadSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceRepo, versioningSvc, documentSvc, auditSvc)
	exportHandlers := handlers.NewExportHandlers(exportSvc)
	otpHandlers := handlers.NewOtpHandlers(otpSvc)
	jobHandlers := handlers.NewJobHandlers(ocrJobRepo)
	reportHandlers := handlers.NewReportHandlers(reportSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background reconciliation and purge jobs
	scheduler := background.NewJobScheduler(ocrJobRepo, idempotencyRepo, otpRepo, enqueuer)
	scheduler.Start()
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestID())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API routes
	v1 := e.Group("/v1")

	// OTP routes (no JWT required, rate limited per client)
	otp := v1.Group("/otp")
	otp.POST("/send", otpHandlers.SendOtp, rateLimitMiddleware.Limit("otp-send", 5, time.Minute))
	otp.POST("/verify", otpHandlers.VerifyOtp, rateLimitMiddleware.Limit("otp-verify", 10, time.Minute))

	// Protected routes
	protected := v1.Group("")
	protected.Use(authMiddleware.Authenticate())
	protected.Use(idempotencyMiddleware.Middleware())

	protected.POST("/invoices/upload", uploadHandlers.UploadInvoices,
		rateLimitMiddleware.Limit("upload", 30, time.Minute),
		permissionMiddleware.RequirePermission("invoices:write"))

	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.GET("/invoices/:id/versions", invoiceHandlers.ListVersions)
	protected.GET("/invoices/:id/audit", invoiceHandlers.GetInvoiceAudit)
	protected.POST("/invoices/:id/correct", invoiceHandlers.CorrectInvoice,
		permissionMiddleware.RequirePermission("invoices:write"))
	protected.POST("/invoices/:id/finalize", invoiceHandlers.FinalizeInvoice,
		permissionMiddleware.RequirePermission("invoices:write"))
	protected.POST("/invoices/:id/render-pdf", invoiceHandlers.RenderInvoicePDF,
		permissionMiddleware.RequirePermission("invoices:write"))

	protected.GET("/jobs/:id", jobHandlers.GetJob)

	protected.POST("/exports/freeze", exportHandlers.FreezeExport,
		permissionMiddleware.RequirePermission("exports:write"))
	protected.GET("/exports", exportHandlers.ListExports)

	protected.GET("/reports/gstr1-summary", reportHandlers.GSTR1Summary)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("🚀 GSTVault API v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
