package handlers

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/rentdesk/internal/middleware"
	"github.com/example/rentdesk/internal/services"
	"github.com/example/rentdesk/internal/utils"
)

const maxRentAmount = 100_000_000_00

var zipCodePattern = regexp.MustCompile(`^\d{6}$`)

// PropertyHandler serves the property endpoints.
type PropertyHandler struct {
	properties *services.PropertyService
}

// NewPropertyHandler constructs a PropertyHandler.
func NewPropertyHandler(properties *services.PropertyService) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

type propertyRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
	Type       string `json:"type"`
	RentAmount int64  `json:"rent_amount"`
	Status     string `json:"status"`
}

// CreateProperty adds a property when the caller's quota allows it.
func (h *PropertyHandler) CreateProperty(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req propertyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.ZipCode = strings.TrimSpace(req.ZipCode)

	v := &utils.Validator{}
	v.Required("name", req.Name).
		Required("address", req.Address).
		Required("city", req.City).
		Required("state", req.State).
		Required("zip_code", req.ZipCode).
		Pattern("zip_code", req.ZipCode, zipCodePattern).
		Required("type", req.Type).
		Enum("type", req.Type, "residential", "commercial").
		Range("rent_amount", req.RentAmount, 1, maxRentAmount).
		Enum("status", req.Status, "available", "rented")
	if err := v.Err(); err != nil {
		return err
	}

	property, err := h.properties.Create(c.UserContext(), accountID, services.NewProperty{
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		ZipCode:    req.ZipCode,
		Type:       req.Type,
		RentAmount: req.RentAmount,
		Status:     req.Status,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    property,
	})
}

// ListProperties returns the caller's properties with pagination.
func (h *PropertyHandler) ListProperties(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	properties, total, err := h.properties.List(c.UserContext(), accountID, pg)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    properties,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// DeleteProperty soft-deletes one of the caller's properties.
func (h *PropertyHandler) DeleteProperty(c *fiber.Ctx) error {
	accountID, ok := middleware.GetCurrentAccountID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid property id")
	}

	if err := h.properties.Delete(c.UserContext(), accountID, id); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}
