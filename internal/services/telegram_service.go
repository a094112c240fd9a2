package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const telegramAPIBaseURL = "https://api.telegram.org"

// PaymentNotifier is told about every order that becomes paid. Failures are
// logged by the caller and never change the payment outcome.
type PaymentNotifier interface {
	NotifyPaymentSuccess(ctx context.Context, payment PaymentSuccessNotification) error
}

// PaymentSuccessNotification contains payment success data.
type PaymentSuccessNotification struct {
	OrderID     string
	PaymentID   string
	AccountID   string
	AccountName string
	Amount      int64
	Currency    string
}

// TelegramService sends operator notifications to an admin chat.
type TelegramService struct {
	client      *resty.Client
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return NewTelegramServiceWithBaseURL(telegramAPIBaseURL, botToken, adminChatID)
}

// NewTelegramServiceWithBaseURL points the service at a different API host.
func NewTelegramServiceWithBaseURL(baseURL, botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		client:      resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(10 * time.Second),
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

// Enabled reports whether both the bot token and the chat are configured.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if !s.Enabled() {
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(telegramMessage{ChatID: s.adminChatID, Text: text, ParseMode: "HTML"}).
		Post("/bot" + s.botToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode())
	}
	return nil
}

// NotifyPaymentSuccess sends notification about a verified unlock payment.
func (s *TelegramService) NotifyPaymentSuccess(ctx context.Context, payment PaymentSuccessNotification) error {
	message := fmt.Sprintf(`<b>✅ Payment received</b>
<b>Order:</b> %s
<b>Payment:</b> %s
<b>Landlord:</b> %s (%s)
<b>Amount:</b> %s
━━━━━━━━━━━━━━━━━━
<i>Property limit unlocked</i>`,
		payment.OrderID,
		payment.PaymentID,
		payment.AccountName,
		payment.AccountID,
		FormatPrice(payment.Amount, payment.Currency),
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// FormatPrice renders an amount in minor units as "1,234.50 INR".
func FormatPrice(minor int64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	major := DisplayAmount(minor)
	whole, frac, _ := strings.Cut(major, ".")

	negative := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var result strings.Builder
	if negative {
		result.WriteString("-")
	}
	length := len(whole)
	for i, digit := range whole {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + "." + frac + " " + currency
}

// DisplayAmount converts minor units to a two decimal major-unit string.
func DisplayAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
