package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/api"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/assistant"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/auth"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/completion"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/config"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/database"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/repository/postgres"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	app := fiber.New(fiber.Config{
		AppName:      "MatrixTwin Assistant",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	sessionRepo := postgres.NewSessionRepository(db.DB)
	messageRepo := postgres.NewMessageRepository(db.DB)
	userRepo := postgres.NewUserRepository(db.DB)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production"
		log.Warn("using default JWT secret; set MATRIXTWIN_JWT_SECRET in production")
	}
	authService := auth.NewService(userRepo, jwtSecret)

	client, err := buildCompletionClient(cfg.Completion)
	if err != nil {
		log.WithError(err).Fatal("failed to configure completion backend")
	}

	svc := assistant.NewService(sessionRepo, messageRepo, client, log)

	api.SetupRoutes(app, svc, authService, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("assistant backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

func buildCompletionClient(cfg config.CompletionConfig) (completion.Client, error) {
	switch cfg.Mode {
	case config.CompletionModeOpenAI:
		return completion.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return completion.NewHTTPClient(cfg.Endpoint), nil
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
