package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/api/middleware"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/assistant"
)

// GetSessions returns the user's chat sessions, most recently updated first
func GetSessions(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		store := svc.StoreFor(c.Context(), user.ID)

		return c.JSON(fiber.Map{
			"sessions": store.Sessions(),
		})
	}
}

// GetCurrentSession returns the resolved active session. When no chat has
// been started yet this is a synthesized temp session holding the greeting.
func GetCurrentSession(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		store := svc.StoreFor(c.Context(), user.ID)

		return c.JSON(store.Current())
	}
}

// NewChat points the user at a fresh conversation slot, optionally scoped
// to a project. The session row is created lazily on the first send.
func NewChat(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)

		var req struct {
			ProjectID string `json:"project_id"`
		}
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		store := svc.StoreFor(c.Context(), user.ID)
		store.StartNewChat(req.ProjectID)

		return c.JSON(store.Current())
	}
}

// SwitchChat moves the active pointer to an existing session
func SwitchChat(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		store := svc.StoreFor(c.Context(), user.ID)

		store.SwitchToChat(c.Params("id"))
		return c.JSON(store.Current())
	}
}

// DeleteSession removes a session locally and, best-effort, remotely
func DeleteSession(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		store := svc.StoreFor(c.Context(), user.ID)

		if !svc.DeleteChat(c.Context(), store, c.Params("id")) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}

		return c.JSON(fiber.Map{
			"message": "Session deleted successfully",
			"current": store.Current(),
		})
	}
}

// GetProjectSessions returns the sessions scoped to one project
func GetProjectSessions(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		store := svc.StoreFor(c.Context(), user.ID)

		sessions := store.ProjectChats(c.Params("projectId"))
		return c.JSON(fiber.Map{
			"sessions": sessions,
		})
	}
}
