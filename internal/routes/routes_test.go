package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/rentdesk/internal/config"
	"github.com/example/rentdesk/internal/database"
	"github.com/example/rentdesk/internal/models"
	"github.com/example/rentdesk/internal/services"
)

const testGatewaySecret = "rzp_secret_test"

type stubGateway struct {
	mu  sync.Mutex
	seq int
}

func (g *stubGateway) CreateOrder(_ context.Context, req services.GatewayOrderRequest) (*services.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := "order_" + string(rune('A'+g.seq))
	return &services.GatewayOrder{ID: id, Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created", Raw: json.RawMessage(`{"id":"` + id + `"}`)}, nil
}

func (g *stubGateway) KeyID() string  { return "rzp_key_test" }
func (g *stubGateway) Secret() string { return testGatewaySecret }

type codeRecorder struct {
	mu   sync.Mutex
	code string
}

func (r *codeRecorder) NotifyOTP(_ context.Context, _ *models.Account, code string, _ time.Time) error {
	r.mu.Lock()
	r.code = code
	r.mu.Unlock()
	return nil
}

func (r *codeRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	codes *codeRecorder
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, &config.Config{
		JWTSecret:     "test-secret",
		TokenExpires:  time.Hour,
		OTPRateLimit:  rateLimit,
		OTPRateWindow: time.Minute,
	})
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop()
	codes := &codeRecorder{}
	svc := NewServicesWith(db, cfg, log, &stubGateway{}, codes, nil)

	app := NewApp(log)
	Register(app, svc, cfg)

	return &testServer{app: app, db: db, codes: codes}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, phone string) string {
	t.Helper()
	status, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Asha", "phone": phone})
	if status != fiber.StatusCreated {
		t.Fatalf("register: expected 201, got %d", status)
	}
	status, _ = s.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": phone})
	if status != fiber.StatusAccepted {
		t.Fatalf("challenge: expected 202, got %d", status)
	}
	status, body := s.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"identifier": phone, "code": s.codes.last()})
	if status != fiber.StatusOK {
		t.Fatalf("verify: expected 200, got %d (%v)", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected session token")
	}
	return token
}

func property(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"address":     "12 MG Road",
		"city":        "Pune",
		"state":       "MH",
		"zip_code":    "411001",
		"type":        "residential",
		"rent_amount": 1800000,
	}
}

func TestOTPLoginFlow(t *testing.T) {
	srv := newTestServer(t, 100)

	status, body := srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})
	if status != fiber.StatusNotFound {
		t.Fatalf("unknown account: expected 404, got %d (%v)", status, body)
	}

	token := srv.login(t, "9876543210")

	status, _ = srv.do(t, http.MethodGet, "/api/v1/quota", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("quota: expected 200, got %d", status)
	}

	// The code was consumed by the login.
	status, _ = srv.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"identifier": "9876543210", "code": srv.codes.last()})
	if status != fiber.StatusGone {
		t.Fatalf("reused code: expected 410, got %d", status)
	}
}

func TestChallengeTokenIsNotASession(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Asha", "phone": "9876543210"})

	_, body := srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})
	challenge, _ := body["challenge_token"].(string)
	if challenge == "" {
		t.Fatalf("expected challenge token")
	}

	status, _ := srv.do(t, http.MethodGet, "/api/v1/quota", challenge, nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, 100)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{name: "no identifier", body: map[string]string{"name": "Asha"}, want: fiber.StatusUnprocessableEntity},
		{name: "bad phone", body: map[string]string{"name": "Asha", "phone": "12345"}, want: fiber.StatusUnprocessableEntity},
		{name: "bad email", body: map[string]string{"name": "Asha", "email": "not-an-email"}, want: fiber.StatusUnprocessableEntity},
		{name: "ok", body: map[string]string{"name": "Asha", "email": "asha@example.com"}, want: fiber.StatusCreated},
		{name: "duplicate", body: map[string]string{"name": "Asha 2", "email": "Asha@Example.com"}, want: fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := srv.do(t, http.MethodPost, "/api/v1/auth/register", "", tc.body)
			if status != tc.want {
				t.Fatalf("expected %d, got %d (%v)", tc.want, status, body)
			}
		})
	}
}

func TestVerifyOTPErrors(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Asha", "phone": "9876543210"})
	srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})

	wrong := "100000"
	if srv.codes.last() == wrong {
		wrong = "100001"
	}

	status, _ := srv.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"identifier": "9876543210", "code": wrong})
	if status != fiber.StatusBadRequest {
		t.Fatalf("wrong code: expected 400, got %d", status)
	}
	status, _ = srv.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"identifier": "9876543210", "code": "12ab"})
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("malformed code: expected 422, got %d", status)
	}
	status, _ = srv.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"identifier": "9876543210", "code": srv.codes.last()})
	if status != fiber.StatusOK {
		t.Fatalf("correct code after a wrong attempt: expected 200, got %d", status)
	}
}

func TestOTPChallengeRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Asha", "phone": "9876543210"})

	for i := 0; i < 2; i++ {
		status, _ := srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})
		if status != fiber.StatusAccepted {
			t.Fatalf("request %d: expected 202, got %d", i+1, status)
		}
	}
	status, body := srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})
	if status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d (%v)", status, body)
	}
}

func TestQuotaGateAndPaymentUnlock(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.login(t, "9876543210")

	for i := 0; i < 5; i++ {
		status, body := srv.do(t, http.MethodPost, "/api/v1/properties", token, property("Flat"))
		if status != fiber.StatusCreated {
			t.Fatalf("property %d: expected 201, got %d (%v)", i+1, status, body)
		}
	}

	status, body := srv.do(t, http.MethodPost, "/api/v1/properties", token, property("Sixth"))
	if status != fiber.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d (%v)", status, body)
	}
	if body["action_required"] != "payment" || body["reason"] != services.ReasonFreeTierExceeded {
		t.Fatalf("unexpected denial body %v", body)
	}

	status, body = srv.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{"amount": 0})
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("zero amount: expected 422, got %d (%v)", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{"amount": 49900})
	if status != fiber.StatusCreated {
		t.Fatalf("create order: expected 201, got %d (%v)", status, body)
	}
	data, _ := body["data"].(map[string]any)
	orderID, _ := data["order_id"].(string)
	if orderID == "" || data["display_amount"] != "499.00" || data["key_id"] != "rzp_key_test" {
		t.Fatalf("unexpected order body %v", body)
	}

	status, _ = srv.do(t, http.MethodPost, "/api/v1/orders/verify", token, map[string]string{
		"order_id":   "order_missing",
		"payment_id": "pay_1",
		"signature":  services.SignPayment("order_missing", "pay_1", testGatewaySecret),
	})
	if status != fiber.StatusNotFound {
		t.Fatalf("unknown order: expected 404, got %d", status)
	}

	verify := map[string]string{
		"order_id":   orderID,
		"payment_id": "pay_1",
		"signature":  services.SignPayment(orderID, "pay_1", testGatewaySecret),
	}
	status, body = srv.do(t, http.MethodPost, "/api/v1/orders/verify", token, verify)
	if status != fiber.StatusOK || body["verified"] != true {
		t.Fatalf("verify: expected 200, got %d (%v)", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/api/v1/orders/verify", token, verify)
	if status != fiber.StatusOK || body["replayed"] != true {
		t.Fatalf("replay: expected 200 replayed, got %d (%v)", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/api/v1/properties", token, property("Sixth"))
	if status != fiber.StatusCreated {
		t.Fatalf("after unlock: expected 201, got %d (%v)", status, body)
	}

	status, body = srv.do(t, http.MethodGet, "/api/v1/properties?limit=2", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	pagination, _ := body["pagination"].(map[string]any)
	if pagination["total_items"] != float64(6) {
		t.Fatalf("expected 6 properties, got %v", pagination)
	}
}

func TestTamperedSignatureClosesOrder(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.login(t, "9876543210")

	_, body := srv.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{"amount": 49900})
	data, _ := body["data"].(map[string]any)
	orderID, _ := data["order_id"].(string)

	status, _ := srv.do(t, http.MethodPost, "/api/v1/orders/verify", token, map[string]string{
		"order_id":   orderID,
		"payment_id": "pay_1",
		"signature":  services.SignPayment(orderID, "pay_1", "wrong-secret"),
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("tampered: expected 400, got %d", status)
	}

	status, _ = srv.do(t, http.MethodPost, "/api/v1/orders/verify", token, map[string]string{
		"order_id":   orderID,
		"payment_id": "pay_1",
		"signature":  services.SignPayment(orderID, "pay_1", testGatewaySecret),
	})
	if status != fiber.StatusConflict {
		t.Fatalf("closed order: expected 409, got %d", status)
	}

	status, body = srv.do(t, http.MethodGet, "/api/v1/quota", token, nil)
	quota, _ := body["data"].(map[string]any)
	if status != fiber.StatusOK || quota["entitlement_unlocked"] != false {
		t.Fatalf("entitlement must stay locked, got %d (%v)", status, body)
	}
}

func TestBlockedAccountIsRefused(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.login(t, "9876543210")

	if err := srv.db.Model(&models.Account{}).Where("phone = ?", "9876543210").Update("blocked", true).Error; err != nil {
		t.Fatalf("block: %v", err)
	}

	status, _ := srv.do(t, http.MethodGet, "/api/v1/quota", token, nil)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	status, _ = srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for blocked account, got %d", status)
	}
}

func TestDeleteOrder(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.login(t, "9876543210")

	srv.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{"amount": 49900})
	_, body := srv.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	orders, _ := body["data"].([]any)
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %v", body)
	}
	id, _ := orders[0].(map[string]any)["id"].(string)

	status, _ := srv.do(t, http.MethodDelete, "/api/v1/orders/"+id, token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	status, _ = srv.do(t, http.MethodDelete, "/api/v1/orders/"+id, token, nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", status)
	}
	status, _ = srv.do(t, http.MethodDelete, "/api/v1/orders/not-a-uuid", token, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", status)
	}
}

func TestNewServicesBuildsGraph(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		TokenExpires:    time.Hour,
		RazorpayBaseURL: "http://127.0.0.1:1",
		GatewayTimeout:  time.Second,
		SMSBaseURL:      "http://127.0.0.1:1",
		SMSUsername:     "u",
		SMSPassword:     "p",
	}

	svc := NewServices(db, cfg, zap.NewNop())
	if svc.Sessions == nil || svc.Accounts == nil || svc.OTP == nil || svc.Quota == nil || svc.Orders == nil || svc.Properties == nil {
		t.Fatalf("incomplete service graph %+v", svc)
	}
}

func (s *testServer) createOrder(t *testing.T, token string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{"amount": 49900})
	if status != fiber.StatusCreated {
		t.Fatalf("create order: expected 201, got %d (%v)", status, body)
	}
	data, _ := body["data"].(map[string]any)
	orderID, _ := data["order_id"].(string)
	return orderID
}

func (s *testServer) entitlementUnlocked(t *testing.T, token string) bool {
	t.Helper()
	status, body := s.do(t, http.MethodGet, "/api/v1/quota", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("quota: expected 200, got %d (%v)", status, body)
	}
	quota, _ := body["data"].(map[string]any)
	return quota["entitlement_unlocked"] == true
}

func (s *testServer) grantAdmin(t *testing.T, phone string) {
	t.Helper()
	if err := s.db.Model(&models.Account{}).Where("phone = ?", phone).Update("is_admin", true).Error; err != nil {
		t.Fatalf("grant admin: %v", err)
	}
}

func TestVerifyPaymentOnForeignOrder(t *testing.T) {
	srv := newTestServer(t, 100)
	victim := srv.login(t, "9876543210")
	attacker := srv.login(t, "9123456780")

	orderID := srv.createOrder(t, victim)

	status, body := srv.do(t, http.MethodPost, "/api/v1/orders/verify", attacker, map[string]string{
		"order_id":   orderID,
		"payment_id": "pay_1",
		"signature":  "00",
	})
	if status != fiber.StatusNotFound {
		t.Fatalf("foreign order with bad signature: expected 404, got %d (%v)", status, body)
	}

	status, _ = srv.do(t, http.MethodPost, "/api/v1/orders/verify", attacker, map[string]string{
		"order_id":   orderID,
		"payment_id": "pay_1",
		"signature":  services.SignPayment(orderID, "pay_1", testGatewaySecret),
	})
	if status != fiber.StatusNotFound {
		t.Fatalf("foreign order with valid signature: expected 404, got %d", status)
	}
	if srv.entitlementUnlocked(t, attacker) {
		t.Fatalf("attacker must not be unlocked by the victim's payment")
	}

	status, body = srv.do(t, http.MethodPost, "/api/v1/orders/verify", victim, map[string]string{
		"order_id":   orderID,
		"payment_id": "pay_1",
		"signature":  services.SignPayment(orderID, "pay_1", testGatewaySecret),
	})
	if status != fiber.StatusOK || body["verified"] != true || body["replayed"] == true {
		t.Fatalf("owner verify: expected fresh 200, got %d (%v)", status, body)
	}
	if !srv.entitlementUnlocked(t, victim) {
		t.Fatalf("owner entitlement should be unlocked")
	}
}

func TestVerifyOTPWithChallengeToken(t *testing.T) {
	srv := newTestServer(t, 100)
	srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Asha", "phone": "9876543210"})

	_, body := srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})
	challenge, _ := body["challenge_token"].(string)
	if challenge == "" {
		t.Fatalf("expected challenge token")
	}

	status, _ := srv.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"challenge_token": "garbage", "code": srv.codes.last()})
	if status != fiber.StatusBadRequest {
		t.Fatalf("garbage challenge: expected 400, got %d", status)
	}
	status, _ = srv.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"code": srv.codes.last()})
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("no identifier or challenge: expected 422, got %d", status)
	}

	status, body = srv.do(t, http.MethodPost, "/api/v1/otp/verify", "", map[string]string{"challenge_token": challenge, "code": srv.codes.last()})
	if status != fiber.StatusOK {
		t.Fatalf("challenge verify: expected 200, got %d (%v)", status, body)
	}
	token, _ := body["token"].(string)
	status, _ = srv.do(t, http.MethodGet, "/api/v1/quota", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("session from challenge verify: expected 200, got %d", status)
	}
}

func TestAdminBlocksAccount(t *testing.T) {
	srv := newTestServer(t, 100)
	admin := srv.login(t, "9000000001")
	landlord := srv.login(t, "9876543210")
	srv.grantAdmin(t, "9000000001")

	status, _ := srv.do(t, http.MethodGet, "/api/v1/admin/accounts", landlord, nil)
	if status != fiber.StatusForbidden {
		t.Fatalf("non-admin listing: expected 403, got %d", status)
	}

	status, body := srv.do(t, http.MethodGet, "/api/v1/admin/accounts?search=9876543210", admin, nil)
	accounts, _ := body["data"].([]any)
	if status != fiber.StatusOK || len(accounts) != 1 {
		t.Fatalf("admin search: expected one account, got %d (%v)", status, body)
	}
	landlordID, _ := accounts[0].(map[string]any)["id"].(string)

	status, _ = srv.do(t, http.MethodPut, "/api/v1/admin/accounts/"+landlordID+"/block", landlord, nil)
	if status != fiber.StatusForbidden {
		t.Fatalf("non-admin block: expected 403, got %d", status)
	}

	status, body = srv.do(t, http.MethodPut, "/api/v1/admin/accounts/"+landlordID+"/block", admin, nil)
	data, _ := body["data"].(map[string]any)
	if status != fiber.StatusOK || data["blocked"] != true {
		t.Fatalf("block: expected 200 blocked, got %d (%v)", status, body)
	}

	status, _ = srv.do(t, http.MethodGet, "/api/v1/quota", landlord, nil)
	if status != fiber.StatusForbidden {
		t.Fatalf("blocked session: expected 403, got %d", status)
	}
	status, _ = srv.do(t, http.MethodPost, "/api/v1/otp/challenge", "", map[string]string{"identifier": "9876543210"})
	if status != fiber.StatusNotFound {
		t.Fatalf("blocked challenge: expected 404, got %d", status)
	}

	status, _ = srv.do(t, http.MethodPut, "/api/v1/admin/accounts/"+landlordID+"/unblock", admin, nil)
	if status != fiber.StatusOK {
		t.Fatalf("unblock: expected 200, got %d", status)
	}
	status, _ = srv.do(t, http.MethodGet, "/api/v1/quota", landlord, nil)
	if status != fiber.StatusOK {
		t.Fatalf("unblocked session: expected 200, got %d", status)
	}
}

func TestAdminCannotBlockSelf(t *testing.T) {
	srv := newTestServer(t, 100)
	admin := srv.login(t, "9000000001")
	srv.grantAdmin(t, "9000000001")

	_, body := srv.do(t, http.MethodGet, "/api/v1/admin/accounts", admin, nil)
	accounts, _ := body["data"].([]any)
	if len(accounts) != 1 {
		t.Fatalf("expected one account, got %v", body)
	}
	adminID, _ := accounts[0].(map[string]any)["id"].(string)

	status, _ := srv.do(t, http.MethodPut, "/api/v1/admin/accounts/"+adminID+"/block", admin, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("self block: expected 400, got %d", status)
	}
	status, _ = srv.do(t, http.MethodPut, "/api/v1/admin/accounts/not-a-uuid/block", admin, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", status)
	}
}

func TestAdminListsAllOrders(t *testing.T) {
	srv := newTestServer(t, 100)
	admin := srv.login(t, "9000000001")
	first := srv.login(t, "9876543210")
	second := srv.login(t, "9123456780")
	srv.grantAdmin(t, "9000000001")

	srv.createOrder(t, first)
	paid := srv.createOrder(t, second)
	srv.do(t, http.MethodPost, "/api/v1/orders/verify", second, map[string]string{
		"order_id":   paid,
		"payment_id": "pay_1",
		"signature":  services.SignPayment(paid, "pay_1", testGatewaySecret),
	})

	status, body := srv.do(t, http.MethodGet, "/api/v1/admin/orders", admin, nil)
	pagination, _ := body["pagination"].(map[string]any)
	if status != fiber.StatusOK || pagination["total_items"] != float64(2) {
		t.Fatalf("all orders: expected 2, got %d (%v)", status, body)
	}

	status, body = srv.do(t, http.MethodGet, "/api/v1/admin/orders?status=paid", admin, nil)
	orders, _ := body["data"].([]any)
	if status != fiber.StatusOK || len(orders) != 1 {
		t.Fatalf("paid orders: expected 1, got %d (%v)", status, body)
	}

	status, _ = srv.do(t, http.MethodGet, "/api/v1/admin/orders?status=bogus", admin, nil)
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("bad status filter: expected 422, got %d", status)
	}
	status, _ = srv.do(t, http.MethodGet, "/api/v1/admin/orders", first, nil)
	if status != fiber.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", status)
	}
}

func TestMinimumUnlockAmount(t *testing.T) {
	srv := newTestServerWithConfig(t, &config.Config{
		JWTSecret:       "test-secret",
		TokenExpires:    time.Hour,
		OTPRateLimit:    100,
		OTPRateWindow:   time.Minute,
		MinUnlockAmount: 49900,
	})
	token := srv.login(t, "9876543210")

	status, body := srv.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{"amount": 1})
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("below minimum: expected 422, got %d (%v)", status, body)
	}
	if orderID := srv.createOrder(t, token); orderID == "" {
		t.Fatalf("expected order at the minimum amount")
	}
}
