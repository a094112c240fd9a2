package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/rentdesk/internal/middleware"
	"github.com/example/rentdesk/internal/services"
	"github.com/example/rentdesk/internal/utils"
)

// OrderHandler serves the payment order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Amount int64 `json:"amount"`
}

// CreateOrder opens a gateway order for the quota unlock.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.CreateOrder(c.UserContext(), accountID, req.Amount)
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// VerifyPayment records the gateway's completion message for one of the
// caller's orders.
func (h *OrderHandler) VerifyPayment(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req verifyPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	v := &utils.Validator{}
	v.Required("order_id", req.OrderID).
		Required("payment_id", req.PaymentID).
		Required("signature", req.Signature)
	if err := v.Err(); err != nil {
		return err
	}

	result, err := h.orders.RecordVerifiedPayment(c.UserContext(), accountID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
		"replayed": result.Replayed,
		"order_id": result.Order.OrderID,
	})
}

// ListOrders returns the caller's orders with pagination.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListOrders(c.UserContext(), accountID, pg)
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

// DeleteOrder hides one of the caller's orders.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	if err := h.orders.DeleteOrder(c.UserContext(), accountID, id); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}
