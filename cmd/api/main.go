package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/smart-ats/internal/config"
	"alfredoptarigan/smart-ats/internal/handlers"
	"alfredoptarigan/smart-ats/internal/logger"
	"alfredoptarigan/smart-ats/internal/repositories"
	"alfredoptarigan/smart-ats/internal/services"
)

func main() {
	// Load configuration
	cfg, envFileLoaded := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("config loaded", zap.Bool("env_file", envFileLoaded), zap.String("env", cfg.Server.Env))

	// Initialize database
	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	batchRepo := repositories.NewBatchRepository(db)

	ctx := context.Background()

	// Report storage
	storageService, err := newStorageService(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize report storage", zap.Error(err))
	}
	if err := storageService.EnsureReady(ctx); err != nil {
		log.Fatal("report storage is not ready", zap.Error(err))
	}
	log.Info("report storage initialized", zap.String("driver", cfg.Storage.Driver))

	// Batch notifications
	notifier := services.NewNopNotifier()
	if cfg.RabbitMQ.URL != "" {
		notifier, err = services.NewRabbitNotifier(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal("failed to initialize rabbitmq notifier", zap.Error(err))
		}
		log.Info("rabbitmq notifier initialized", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}
	defer notifier.Close()

	parser, err := services.NewResponseParser()
	if err != nil {
		log.Fatal("failed to initialize response parser", zap.Error(err))
	}

	screener := services.NewScreener(
		services.NewPDFParserService(),
		parser,
		services.NewReportGenerator(services.ReportOptions{
			Encoding: services.EncodingPolicy(cfg.Report.Encoding),
			Compress: cfg.Report.Compress,
		}),
		log,
	)

	clientFactory := services.NewGeminiClientFactory(services.GeminiOptions{
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
		Logger:  log,
	})

	batchService := services.NewBatchService(
		batchRepo,
		storageService,
		notifier,
		screener,
		clientFactory,
		cfg.Gemini.APIKey,
		log,
	)

	// Uploads only live in memory, so batches left by a previous run cannot resume
	if _, err := batchService.RecoverUnfinished(); err != nil {
		log.Fatal("failed to recover unfinished batches", zap.Error(err))
	}

	// Initialize worker
	worker := services.NewWorker(batchService, cfg.Worker.Concurrency, cfg.Worker.QueueSize, log)
	worker.Start(ctx)

	// Initialize Handlers
	evaluateHandler := handlers.NewEvaluationHandler(
		batchService,
		worker,
		cfg.Upload.MaxFileSize,
		cfg.Upload.MaxResumes,
	)
	resultHandler := handlers.NewResultHandler(batchService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Smart ATS",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Upload.MaxFileSize)*cfg.Upload.MaxResumes + 1<<20,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, " + handlers.APIKeyHeader,
	}))

	handlers.SetupRoutes(app, evaluateHandler, resultHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("model", cfg.Gemini.Model))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}

	// Running batches finish before exit
	worker.Stop()
}

func newStorageService(ctx context.Context, cfg *config.Config) (services.StorageService, error) {
	if cfg.Storage.Driver == "s3" {
		return services.NewS3StorageService(ctx, services.S3Options{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	}

	return services.NewLocalStorageService(cfg.Storage.ReportPath), nil
}
