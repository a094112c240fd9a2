package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/rentdesk/internal/services"
	"github.com/example/rentdesk/internal/utils"
)

// ErrorHandler renders every error returned by a handler as
// {"success": false, "error": "..."}. Validation failures carry the failing
// fields and quota denials tell the client that payment is required.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var validation utils.ValidationErrors
		if errors.As(err, &validation) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"success": false,
				"error":   "validation failed",
				"fields":  validation,
			})
		}

		var quota *services.QuotaExceededError
		if errors.As(err, &quota) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"success":         false,
				"error":           quota.Reason,
				"action_required": "payment",
				"reason":          quota.Reason,
				"count":           quota.Count,
				"limit":           quota.Limit,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"error":   fiberErr.Message,
			})
		}

		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}
}

// mapServiceError turns domain errors into HTTP errors. Unknown errors are
// returned unchanged and end up as 500.
func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrIdentifierRequired),
		errors.Is(err, services.ErrInvalidAmount):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrAccountNotFound):
		return fiber.NewError(fiber.StatusNotFound, "account not found")
	case errors.Is(err, services.ErrAccountExists):
		return fiber.NewError(fiber.StatusConflict, "account already exists")
	case errors.Is(err, services.ErrOTPExpired):
		return fiber.NewError(fiber.StatusGone, "otp expired, request a new code")
	case errors.Is(err, services.ErrChallengeInvalid):
		return fiber.NewError(fiber.StatusBadRequest, "invalid challenge token")
	case errors.Is(err, services.ErrOTPInvalid):
		return fiber.NewError(fiber.StatusBadRequest, "invalid otp")
	case errors.Is(err, services.ErrDeliveryFailed):
		return fiber.NewError(fiber.StatusBadGateway, "could not deliver otp")
	case errors.Is(err, services.ErrGatewayUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "payment gateway unavailable, try again")
	case errors.Is(err, services.ErrSignatureInvalid):
		return fiber.NewError(fiber.StatusBadRequest, "payment signature invalid")
	case errors.Is(err, services.ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	case errors.Is(err, services.ErrOrderClosed):
		return fiber.NewError(fiber.StatusConflict, "order already closed, create a new order")
	case errors.Is(err, services.ErrPropertyNotFound):
		return fiber.NewError(fiber.StatusNotFound, "property not found")
	}
	return err
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}
