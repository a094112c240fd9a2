package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/rentdesk/internal/models"
	"github.com/example/rentdesk/internal/utils"
)

// DefaultCurrency is the only currency the unlock is sold in.
const DefaultCurrency = "INR"

// CreatedOrder is what a client needs to start the checkout.
type CreatedOrder struct {
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"`
	DisplayAmount string `json:"display_amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"key_id"`
}

// PaymentResult describes the outcome of recording a verified payment.
type PaymentResult struct {
	Order    *models.PaymentOrder
	Replayed bool
}

// OrderService owns the payment order lifecycle.
type OrderService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	notifier PaymentNotifier
	log      *zap.Logger
	now      func() time.Time
	minimum  int64
}

// OrderOption customises an OrderService.
type OrderOption func(*OrderService)

// WithMinimumAmount rejects orders below amount minor units. Values below 1
// are ignored.
func WithMinimumAmount(amount int64) OrderOption {
	return func(s *OrderService) {
		if amount > 0 {
			s.minimum = amount
		}
	}
}

// NewOrderService constructs an OrderService. notifier may be nil.
func NewOrderService(db *gorm.DB, gateway PaymentGateway, notifier PaymentNotifier, log *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		db:       db,
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		minimum:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder asks the gateway for a new order and stores it as created.
// When the gateway fails nothing is stored.
func (s *OrderService) CreateOrder(ctx context.Context, accountID uuid.UUID, amount int64) (*CreatedOrder, error) {
	if amount < s.minimum {
		return nil, ErrInvalidAmount
	}

	if _, err := findActiveAccount(s.db.WithContext(ctx), accountID, false); err != nil {
		return nil, err
	}

	receipt := newReceiptRef()
	remote, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		Amount:   amount,
		Currency: DefaultCurrency,
		Receipt:  receipt,
	})
	if err != nil {
		s.log.Warn("gateway order creation failed",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, &GatewayError{Op: "create order", Err: err}
	}

	currency := remote.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	order := models.PaymentOrder{
		OrderID:        remote.ID,
		AccountID:      accountID,
		Amount:         amount,
		Currency:       currency,
		Status:         models.OrderStatusCreated,
		ReceiptRef:     receipt,
		GatewayPayload: datatypes.JSON(remote.Raw),
	}
	if len(order.GatewayPayload) == 0 {
		order.GatewayPayload = datatypes.JSON("{}")
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	s.log.Info("payment order created",
		zap.String("account_id", accountID.String()),
		zap.String("order_id", order.OrderID),
		zap.Int64("amount", amount),
	)

	return &CreatedOrder{
		OrderID:       order.OrderID,
		Amount:        order.Amount,
		DisplayAmount: DisplayAmount(order.Amount),
		Currency:      order.Currency,
		KeyID:         s.gateway.KeyID(),
	}, nil
}

// RecordVerifiedPayment applies a completion message from the gateway for an
// order owned by accountID. Orders of other accounts are reported as not
// found. A bad signature fails a created order and never touches the
// account. A good signature marks the order paid and unlocks the account in
// one transaction; repeating it for an already paid order is a successful
// no-op.
func (s *OrderService) RecordVerifiedPayment(ctx context.Context, accountID uuid.UUID, orderID, paymentID, signature string) (*PaymentResult, error) {
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	signature = strings.TrimSpace(signature)

	valid := VerifySignature(orderID, paymentID, signature, s.gateway.Secret())

	var (
		result    PaymentResult
		unlocked  bool
		ownerName string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.PaymentOrder
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ? AND account_id = ? AND is_deleted = ?", orderID, accountID, false).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		result.Order = &order

		now := s.now()
		if !valid {
			if !order.Status.IsTerminal() {
				if err := tx.Model(&models.PaymentOrder{}).
					Where("id = ? AND status = ?", order.ID, models.OrderStatusCreated).
					Updates(map[string]any{
						"status":    models.OrderStatusFailed,
						"failed_at": now,
					}).Error; err != nil {
					return err
				}
				order.Status = models.OrderStatusFailed
				order.FailedAt = &now
			}
			return nil
		}

		if order.Status.IsTerminal() {
			if order.Status == models.OrderStatusPaid {
				result.Replayed = true
				return nil
			}
			return ErrOrderClosed
		}

		res := tx.Model(&models.PaymentOrder{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusCreated).
			Updates(map[string]any{
				"status":     models.OrderStatusPaid,
				"payment_id": paymentID,
				"paid_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("order %s changed concurrently", order.OrderID)
		}
		if err := unlockEntitlement(tx, order.AccountID); err != nil {
			return err
		}

		var owner models.Account
		if err := tx.Select("name").First(&owner, "id = ?", order.AccountID).Error; err == nil {
			ownerName = owner.Name
		}

		order.Status = models.OrderStatusPaid
		order.PaymentID = &paymentID
		order.PaidAt = &now
		unlocked = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) && !errors.Is(err, ErrOrderClosed) {
			s.log.Error("recording payment failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return nil, err
	}

	if !valid {
		s.log.Warn("payment signature rejected",
			zap.String("order_id", orderID),
			zap.String("status", string(result.Order.Status)),
		)
		return nil, ErrSignatureInvalid
	}

	if unlocked {
		s.log.Info("payment verified, entitlement unlocked",
			zap.String("order_id", orderID),
			zap.String("account_id", result.Order.AccountID.String()),
		)
		s.notifyPaid(result.Order, ownerName)
	}

	return &result, nil
}

// ListOrders returns the account's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, accountID uuid.UUID, page utils.Pagination) ([]models.PaymentOrder, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("account_id = ? AND is_deleted = ?", accountID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.PaymentOrder
	if err := query.Order("created_at desc").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAllOrders returns every order across accounts for the admin audit
// view, soft-deleted ones included. status filters when not empty.
func (s *OrderService) ListAllOrders(ctx context.Context, status string, page utils.Pagination) ([]models.PaymentOrder, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PaymentOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.PaymentOrder
	if err := query.Order("created_at desc").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// DeleteOrder soft-deletes an order owned by accountID. The row is kept for
// audit.
func (s *OrderService) DeleteOrder(ctx context.Context, accountID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("id = ? AND account_id = ? AND is_deleted = ?", id, accountID, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *OrderService) notifyPaid(order *models.PaymentOrder, accountName string) {
	if s.notifier == nil {
		return
	}
	payment := PaymentSuccessNotification{
		OrderID:     order.OrderID,
		AccountID:   order.AccountID.String(),
		AccountName: accountName,
		Amount:      order.Amount,
		Currency:    order.Currency,
	}
	if order.PaymentID != nil {
		payment.PaymentID = *order.PaymentID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.NotifyPaymentSuccess(ctx, payment); err != nil {
			s.log.Warn("payment notification failed", zap.String("order_id", payment.OrderID), zap.Error(err))
		}
	}()
}

func newReceiptRef() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
