package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/rentdesk/internal/logging"
	"github.com/example/rentdesk/internal/models"
)

// OTPNotifier delivers a freshly issued code to the account owner before it
// expires. Delivery channels (SMS, email) live outside this service.
type OTPNotifier interface {
	NotifyOTP(ctx context.Context, account *models.Account, code string, expiresAt time.Time) error
}

// LogNotifier writes the code to the service log. It is meant for local
// development where no SMS provider is configured.
// Codes are only written when revealCode is set.
type LogNotifier struct {
	log        *zap.Logger
	revealCode bool
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(log *zap.Logger, revealCode bool) *LogNotifier {
	return &LogNotifier{log: log, revealCode: revealCode}
}

// NotifyOTP logs the issuance together with the masked contact identifier.
func (n *LogNotifier) NotifyOTP(_ context.Context, account *models.Account, code string, expiresAt time.Time) error {
	fields := []zap.Field{
		zap.String("account_id", account.ID.String()),
		zap.String("contact", logging.MaskIdentifier(contactOf(account))),
		zap.Time("expires_at", expiresAt),
	}
	if n.revealCode {
		fields = append(fields, zap.String("code", code))
	}
	n.log.Info("otp issued", fields...)
	return nil
}

func contactOf(account *models.Account) string {
	if account.Phone != nil {
		return *account.Phone
	}
	if account.Email != nil {
		return *account.Email
	}
	return ""
}
