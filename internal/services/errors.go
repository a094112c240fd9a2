package services

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the services.
var (
	ErrIdentifierRequired = errors.New("identifier is required")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrChallengeInvalid   = errors.New("invalid challenge token")
	ErrDeliveryFailed     = errors.New("otp delivery failed")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderClosed        = errors.New("order already closed")
	ErrSignatureInvalid   = errors.New("payment signature invalid")
	ErrPropertyNotFound   = errors.New("property not found")
)

// GatewayError wraps a failed call to the payment gateway. It is retryable:
// nothing was persisted locally when it is returned.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrGatewayUnavailable) match any GatewayError.
func (e *GatewayError) Is(target error) bool {
	return target == ErrGatewayUnavailable
}

// QuotaExceededError is the business decision returned when the free tier is
// used up and the account has not paid for the unlock.
type QuotaExceededError struct {
	Count  int64
	Limit  int64
	Reason string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %d of %d", e.Reason, e.Count, e.Limit)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match any QuotaExceededError.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
