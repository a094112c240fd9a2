package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// GatewayOrderRequest is the outbound "create order" call.
type GatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// GatewayOrder is the gateway's view of a created order.
type GatewayOrder struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Status   string          `json:"status"`
	Raw      json.RawMessage `json:"-"`
}

// PaymentGateway creates remote payment orders.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	KeyID() string
	Secret() string
}

// RazorpayGateway talks to the Razorpay orders API.
type RazorpayGateway struct {
	client    *resty.Client
	keyID     string
	keySecret string
	timeout   time.Duration
}

// NewRazorpayGateway constructs a RazorpayGateway. Every call is bounded by timeout.
func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RazorpayGateway{
		client:    client,
		keyID:     keyID,
		keySecret: keySecret,
		timeout:   timeout,
	}
}

// KeyID returns the public key the client-side checkout needs.
func (g *RazorpayGateway) KeyID() string { return g.keyID }

// Secret returns the shared secret used for payment signatures.
func (g *RazorpayGateway) Secret() string { return g.keySecret }

type razorpayOrderPayload struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with the gateway.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var order GatewayOrder
	var apiErr razorpayErrorResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(razorpayOrderPayload{
			Amount:         req.Amount,
			Currency:       req.Currency,
			Receipt:        req.Receipt,
			PaymentCapture: 1,
		}).
		SetResult(&order).
		SetError(&apiErr).
		Post("/v1/orders")
	if err != nil {
		return nil, &GatewayError{Op: "create order", Err: err}
	}
	if resp.IsError() {
		msg := apiErr.Error.Description
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &GatewayError{Op: "create order", Err: fmt.Errorf("status %d: %s", resp.StatusCode(), msg)}
	}
	if order.ID == "" {
		return nil, &GatewayError{Op: "create order", Err: errors.New("response without order id")}
	}

	order.Raw = json.RawMessage(resp.Body())
	return &order, nil
}
