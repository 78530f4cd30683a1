package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/api/middleware"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/assistant"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/auth"
)

// SignUp registers a new user
func SignUp(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
			FullName string `json:"full_name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		if req.Email == "" || req.Username == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "email, username and password are required",
			})
		}

		user, err := authService.SignUp(c.Context(), req.Email, req.Username, req.Password, req.FullName)
		if err != nil {
			status := fiber.StatusInternalServerError
			if errors.Is(err, auth.ErrEmailAlreadyExists) ||
				errors.Is(err, auth.ErrUsernameAlreadyExists) ||
				errors.Is(err, auth.ErrPasswordTooShort) ||
				errors.Is(err, auth.ErrPasswordTooWeak) {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}

		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// Login authenticates a user and returns a token pair
func Login(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		user, access, refresh, err := authService.Login(c.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserInactive) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{
			"user":          user,
			"access_token":  access,
			"refresh_token": refresh,
		})
	}
}

// Refresh exchanges a refresh token for a new token pair
func Refresh(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "refresh_token is required",
			})
		}

		user, access, refresh, err := authService.Refresh(c.Context(), req.RefreshToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		return c.JSON(fiber.Map{
			"user":          user,
			"access_token":  access,
			"refresh_token": refresh,
		})
	}
}

// Logout tears down the user's in-memory chat store
func Logout(svc *assistant.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user != nil {
			svc.Drop(user.ID)
		}
		return c.JSON(fiber.Map{"message": "Logged out"})
	}
}

// Me returns the authenticated user
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(middleware.CurrentUser(c))
	}
}
