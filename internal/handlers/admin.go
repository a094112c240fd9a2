package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/rentdesk/internal/middleware"
	"github.com/example/rentdesk/internal/models"
	"github.com/example/rentdesk/internal/services"
	"github.com/example/rentdesk/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	accounts *services.AccountStore
	orders   *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(accounts *services.AccountStore, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{accounts: accounts, orders: orders}
}

// ListAccounts returns registered accounts with pagination and search.
func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	accounts, total, err := h.accounts.ListAccounts(c.UserContext(), c.Query("search"), pg)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    accounts,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// BlockAccount refuses all further logins and sessions of an account.
func (h *AdminHandler) BlockAccount(c *fiber.Ctx) error {
	return h.setBlocked(c, true)
}

// UnblockAccount restores access for a blocked account.
func (h *AdminHandler) UnblockAccount(c *fiber.Ctx) error {
	return h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c *fiber.Ctx, blocked bool) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid account id")
	}
	if current, ok := middleware.GetCurrentAccountID(c); ok && current == id {
		return fiber.NewError(fiber.StatusBadRequest, "cannot change your own block status")
	}

	account, err := h.accounts.SetBlocked(c.UserContext(), id, blocked)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    account,
	})
}

// ListAllOrders returns payment orders of every account for auditing.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	status := c.Query("status")
	v := &utils.Validator{}
	v.Enum("status", status,
		string(models.OrderStatusCreated),
		string(models.OrderStatusPaid),
		string(models.OrderStatusFailed),
	)
	if err := v.Err(); err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListAllOrders(c.UserContext(), status, pg)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
