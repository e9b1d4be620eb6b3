package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/arkode/submithub-api/internal/config"
	"github.com/arkode/submithub-api/internal/database"
	"github.com/arkode/submithub-api/internal/handler"
	"github.com/arkode/submithub-api/internal/middleware"
	"github.com/arkode/submithub-api/internal/models"
	"github.com/arkode/submithub-api/internal/repository"
	"github.com/arkode/submithub-api/internal/router"
	"github.com/arkode/submithub-api/internal/service"
	cloud "github.com/arkode/submithub-api/pkg/cloudinary"
	"github.com/arkode/submithub-api/pkg/resumable"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Assignment{},
		&models.SubmissionLog{},
		&models.SubmissionEvent{},
		&models.MasterIndexEntry{},
		&models.PeerRating{},
		&models.UploadSession{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	store, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		RootPath:  cfg.CloudinaryRootPath,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create blob store client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	logRepo := repository.NewSubmissionLogRepository(db)
	eventRepo := repository.NewSubmissionEventRepository(db)
	indexRepo := repository.NewMasterIndexRepository(db)
	ratingRepo := repository.NewPeerRatingRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewUploadSessionRepository(db)

	schemaService := service.NewSchemaService(logRepo, logger)
	identityService := service.NewIdentityService(eventRepo, logger)
	indexService := service.NewIndexService(indexRepo, redisClient, cfg.IndexCacheTTL, logger)
	eventSink := service.NewNATSEventSink(natsConn, cfg.NATSSubject, logger)
	submissionService := service.NewSubmissionService(
		assignmentRepo, eventRepo, studentRepo,
		schemaService, identityService, indexService,
		store, eventSink, validate, logger,
	)
	uploadService := service.NewUploadService(sessionRepo, assignmentRepo, store, resumable.NewClient(logger), redisClient, service.UploadConfig{
		UploadEndpoint: cfg.UploadEndpoint,
		InlineMaxBytes: cfg.InlineMaxBytes,
		FolderCacheTTL: cfg.FolderCacheTTL,
	}, logger)
	ratingService := service.NewRatingService(ratingRepo, assignmentRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, logRepo, store, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		UploadHandler:     handler.NewUploadHandler(uploadService, logger),
		RatingHandler:     handler.NewRatingHandler(ratingService, logger),
		IndexHandler:      handler.NewIndexHandler(indexService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
