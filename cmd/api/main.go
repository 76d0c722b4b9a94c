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
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/bedaya-app/lms-api/internal/config"
	"github.com/bedaya-app/lms-api/internal/database"
	"github.com/bedaya-app/lms-api/internal/handler"
	"github.com/bedaya-app/lms-api/internal/middleware"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
	"github.com/bedaya-app/lms-api/internal/router"
	"github.com/bedaya-app/lms-api/internal/service"
	"github.com/bedaya-app/lms-api/pkg/b2"
	cloud "github.com/bedaya-app/lms-api/pkg/cloudinary"
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
		&models.User{},
		&models.School{},
		&models.Class{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Lesson{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blobStore, err := b2.New(rootCtx, b2.Config{
		AccountID: cfg.B2AccountID,
		AppKey:    cfg.B2AppKey,
		Bucket:    cfg.B2Bucket,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create b2 store: %v", err)
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, audit events stay local")
		} else {
			defer natsConn.Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, natsConn, cfg.NATSSubject, logger)
	auditService.Start(rootCtx)

	authService := service.NewAuthService(userRepo, redisClient, auditService, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	userService := service.NewUserService(userRepo, schoolRepo, auditService, validate, logger)
	schoolService := service.NewSchoolService(schoolRepo, auditService, validate, logger)
	classService := service.NewClassService(classRepo, enrollmentRepo, userRepo, schoolRepo, auditService, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, enrollmentRepo, classRepo, auditService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, enrollmentRepo, blobStore, auditService, validate, service.SubmissionPolicy{
		MaxFileSize:    cfg.MaxSubmissionBytes,
		AllowedTypes:   cfg.AllowedSubmissionTypes,
		StorageTimeout: cfg.StorageTimeout,
	}, logger)
	gradingService := service.NewGradingService(submissionRepo, auditService, validate, logger)
	progressService := service.NewProgressService(assignmentRepo, submissionRepo, enrollmentRepo, classRepo, logger)
	lessonService := service.NewLessonService(lessonRepo, classRepo, enrollmentRepo, uploader, auditService, validate, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, gradingService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)
	lessonHandler := handler.NewLessonHandler(lessonService, logger)
	adminHandler := handler.NewAdminHandler(userService, schoolService, classService, logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxSubmissionBytes) + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		ProgressHandler:   progressHandler,
		LessonHandler:     lessonHandler,
		AdminHandler:      adminHandler,
		AuditHandler:      auditHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		SessionMiddleware: middleware.SessionRequired(func(c *fiber.Ctx, sessionID string) error {
			return authService.ValidateSession(c.Context(), sessionID)
		}),
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
