package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/rentdesk/internal/models"
	"github.com/example/rentdesk/internal/services"
)

const (
	accountContextKey = "currentAccountID"
	adminContextKey   = "currentAccountIsAdmin"
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	VerifyBearerToken(token string) (uuid.UUID, error)
}

// AccountLoader re-reads the account behind a session on every request.
type AccountLoader interface {
	FindForSession(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AuthMiddleware validates the bearer token and loads the authenticated
// account ID into context. Blocked accounts are refused even with a valid
// token.
func AuthMiddleware(tokens TokenVerifier, accounts AccountLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		accountID, err := tokens.VerifyBearerToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		account, err := accounts.FindForSession(c.UserContext(), accountID)
		if err != nil {
			if errors.Is(err, services.ErrAccountNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
			}
			return err
		}
		if account.Blocked {
			return fiber.NewError(fiber.StatusForbidden, "account is blocked")
		}

		c.Locals(accountContextKey, account.ID)
		c.Locals(adminContextKey, account.IsAdmin)
		return c.Next()
	}
}

// GetCurrentAccountID extracts the authenticated account ID from context.
func GetCurrentAccountID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(accountContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// RequireAdmin refuses callers without the admin role. It must run after
// AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if admin, ok := c.Locals(adminContextKey).(bool); !ok || !admin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}
