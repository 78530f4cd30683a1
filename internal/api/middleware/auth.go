package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/auth"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/models"
)

const userLocalKey = "current_user"

// AuthRequired creates a middleware that requires a valid access token,
// taken from the Authorization header or the access_token cookie.
func AuthRequired(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.ExtractTokenFromBearer(c.Get("Authorization"))
		if token == "" {
			token = c.Cookies("access_token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		user, err := authService.ValidateAccessToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(userLocalKey, user)
		c.Locals("user_id", user.ID.String())
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside AuthRequired.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
