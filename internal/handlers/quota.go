package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/rentdesk/internal/middleware"
	"github.com/example/rentdesk/internal/services"
)

// QuotaHandler exposes the caller's free tier usage.
type QuotaHandler struct {
	quota *services.QuotaService
}

// NewQuotaHandler constructs a QuotaHandler.
func NewQuotaHandler(quota *services.QuotaService) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

// GetQuota reports whether the caller may add another property.
func (h *QuotaHandler) GetQuota(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	decision, err := h.quota.CanCreateResource(c.UserContext(), accountID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    decision,
	})
}
