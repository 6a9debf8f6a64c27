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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/config"
	"github.com/noah-isme/peergrade-api/internal/database"
	"github.com/noah-isme/peergrade-api/internal/handler"
	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
	"github.com/noah-isme/peergrade-api/internal/router"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/pkg/mailer"
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
		&models.Homework{},
		&models.Question{},
		&models.Item{},
		&models.Submission{},
		&models.GradingTask{},
		&models.Grade{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional in development: without them the service
	// skips the aggregate cache, the assignment lock and event fan-out.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	var mail mailer.Mailer
	if cfg.SendGridAPIKey != "" {
		mail = mailer.NewSendgrid(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromAddress)
	} else {
		mail = mailer.NewConsole(logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	taskRepo := repository.NewGradingTaskRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	clock := service.NewLockClock(cfg.ResubmitCooldown, cfg.MaxFreeResubmits)
	notifier := service.NewNotifier(mail, natsConn, logger)
	roster := service.NewEnrolledRoster(studentRepo)

	aggregationService := service.NewAggregationService(taskRepo, submissionRepo, redisClient, cfg.AggregateCacheTTL, cfg.FeedbackDelay, logger)
	assignmentService := service.NewAssignmentService(questionRepo, submissionRepo, taskRepo, studentRepo, roster, notifier, redisClient, cfg.AssignLockTTL, logger)
	gradingService := service.NewGradingService(taskRepo, questionRepo, submissionRepo, aggregationService, clock, natsConn, logger)
	submissionService := service.NewSubmissionService(submissionRepo, questionRepo, aggregationService, clock, logger)
	contentService := service.NewContentService(questionRepo, validate, logger)
	gradebookService := service.NewGradebookService(gradeRepo, questionRepo, submissionRepo, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, validate, cfg.GradingWindow)
	gradingHandler := handler.NewGradingHandler(gradingService, aggregationService, validate)
	submissionHandler := handler.NewSubmissionHandler(submissionService, aggregationService, validate)
	contentHandler := handler.NewContentHandler(contentService)
	gradebookHandler := handler.NewGradebookHandler(gradebookService)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		GradingHandler:    gradingHandler,
		SubmissionHandler: submissionHandler,
		ContentHandler:    contentHandler,
		GradebookHandler:  gradebookHandler,
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
