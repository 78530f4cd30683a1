package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/api/handlers"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/api/middleware"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/assistant"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/auth"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *assistant.Service, authService *auth.Service, log *logrus.Logger) {
	api := app.Group("/api/v1")

	// Authentication
	authGroup := api.Group("/auth", middleware.AuthRateLimit())
	authGroup.Post("/signup", handlers.SignUp(authService))
	authGroup.Post("/login", handlers.Login(authService))
	authGroup.Post("/refresh", handlers.Refresh(authService))

	authRequired := middleware.AuthRequired(authService)
	api.Post("/auth/logout", authRequired, handlers.Logout(svc))
	api.Get("/auth/me", authRequired, handlers.Me())

	// Session management
	api.Get("/sessions", authRequired, handlers.GetSessions(svc))
	api.Get("/sessions/current", authRequired, handlers.GetCurrentSession(svc))
	api.Post("/sessions/new", authRequired, handlers.NewChat(svc))
	api.Post("/sessions/:id/switch", authRequired, handlers.SwitchChat(svc))
	api.Delete("/sessions/:id", authRequired, handlers.DeleteSession(svc))
	api.Get("/projects/:projectId/sessions", authRequired, handlers.GetProjectSessions(svc))

	// Chat
	chatHandler := handlers.NewChatHandler(svc, log)
	api.Post("/chat/send", authRequired, middleware.DefaultRateLimit(), chatHandler.Send)

	// WebSocket chat stream
	app.Use("/ws/chat", authRequired, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(chatHandler.SendWS))

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "matrixtwin-assistant",
		})
	})
}
