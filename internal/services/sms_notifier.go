package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/rentdesk/internal/models"
)

// SMSConfig holds credentials for the SMS provider.
type SMSConfig struct {
	BaseURL  string
	Username string
	Password string
}

// Enabled reports whether the provider is configured.
func (c SMSConfig) Enabled() bool {
	return c.BaseURL != "" && c.Username != "" && c.Password != ""
}

// SMSNotifier delivers OTP codes by SMS. Accounts without a phone number
// are handed to fallback.
type SMSNotifier struct {
	client   *resty.Client
	cfg      SMSConfig
	fallback OTPNotifier
	now      func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewSMSNotifier constructs an SMSNotifier.
func NewSMSNotifier(cfg SMSConfig, fallback OTPNotifier) *SMSNotifier {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SMSNotifier{
		client:   resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(15 * time.Second),
		cfg:      cfg,
		fallback: fallback,
		now:      time.Now,
	}
}

type smsAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// NotifyOTP sends the code to the account's phone.
func (n *SMSNotifier) NotifyOTP(ctx context.Context, account *models.Account, code string, expiresAt time.Time) error {
	if account.Phone == nil || *account.Phone == "" {
		if n.fallback == nil {
			return errors.New("account has no phone number")
		}
		return n.fallback.NotifyOTP(ctx, account, code, expiresAt)
	}

	minutes := int(expiresAt.Sub(n.now()).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	message := fmt.Sprintf("Your login code is %s. It expires in %d min.", code, minutes)

	return n.send(ctx, *account.Phone, message)
}

func (n *SMSNotifier) send(ctx context.Context, phone, message string) error {
	body := map[string]string{"phone": phone, "message": message}

	token, err := n.authToken(ctx, false)
	if err != nil {
		return err
	}
	resp, err := n.client.R().SetContext(ctx).SetAuthToken(token).SetBody(body).Post("/sms/send")
	if err != nil {
		return fmt.Errorf("sms send: %w", err)
	}

	// Retry once with a fresh token.
	if resp.StatusCode() == http.StatusUnauthorized {
		token, err = n.authToken(ctx, true)
		if err != nil {
			return err
		}
		resp, err = n.client.R().SetContext(ctx).SetAuthToken(token).SetBody(body).Post("/sms/send")
		if err != nil {
			return fmt.Errorf("sms send: %w", err)
		}
	}

	if resp.IsError() {
		return fmt.Errorf("sms send: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (n *SMSNotifier) authToken(ctx context.Context, force bool) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !force && n.token != "" && n.now().Before(n.tokenExpiry) {
		return n.token, nil
	}

	var auth smsAuthResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": n.cfg.Username, "password": n.cfg.Password}).
		SetResult(&auth).
		Post("/auth/login")
	if err != nil {
		return "", fmt.Errorf("sms auth: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("sms auth failed: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if auth.Token == "" {
		return "", errors.New("sms auth: empty token")
	}

	n.token = auth.Token
	if auth.ExpiresIn > 0 {
		n.tokenExpiry = n.now().Add(time.Duration(auth.ExpiresIn)*time.Second - 30*time.Second)
	} else {
		n.tokenExpiry = n.now().Add(55 * time.Minute)
	}
	return n.token, nil
}
