package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		10000:     "100.00 INR",
		5:         "0.05 INR",
		123456789: "1,234,567.89 INR",
		-250:      "-2.50 INR",
	}
	for minor, want := range cases {
		if got := FormatPrice(minor, "INR"); got != want {
			t.Fatalf("FormatPrice(%d) = %q, want %q", minor, got, want)
		}
	}
	if got := FormatPrice(100, ""); got != "1.00 "+DefaultCurrency {
		t.Fatalf("expected default currency, got %q", got)
	}
}

func TestTelegramNotifyPaymentSuccess(t *testing.T) {
	var got telegramMessage
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	svc := NewTelegramServiceWithBaseURL(server.URL, "bot-token", "-100200")
	err := svc.NotifyPaymentSuccess(context.Background(), PaymentSuccessNotification{
		OrderID:     "order_1",
		PaymentID:   "pay_1",
		AccountID:   "acc",
		AccountName: "Asha",
		Amount:      10000,
		Currency:    "INR",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if path != "/botbot-token/sendMessage" {
		t.Fatalf("unexpected path %q", path)
	}
	if got.ChatID != "-100200" || got.ParseMode != "HTML" {
		t.Fatalf("unexpected message %+v", got)
	}
	if !strings.Contains(got.Text, "order_1") || !strings.Contains(got.Text, "100.00 INR") {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestTelegramDisabledIsNoop(t *testing.T) {
	svc := NewTelegramServiceWithBaseURL("http://127.0.0.1:1", "", "")
	if svc.Enabled() {
		t.Fatalf("expected disabled service")
	}
	if err := svc.SendToAdmin(context.Background(), "hello"); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}

func TestTelegramReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	svc := NewTelegramServiceWithBaseURL(server.URL, "t", "c")
	if err := svc.SendToAdmin(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for 403")
	}
}
