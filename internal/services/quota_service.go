package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/rentdesk/internal/models"
)

const (
	// FreeTierLimit is the number of properties an account may hold before
	// the paid unlock is required.
	FreeTierLimit int64 = 5

	// ReasonFreeTierExceeded is reported with every denial.
	ReasonFreeTierExceeded = "free tier exceeded"
)

// QuotaDecision is the outcome of a quota check.
type QuotaDecision struct {
	Allowed             bool   `json:"allowed"`
	Count               int64  `json:"count"`
	Limit               int64  `json:"limit"`
	EntitlementUnlocked bool   `json:"entitlement_unlocked"`
	Reason              string `json:"reason,omitempty"`
}

// QuotaService decides whether an account may create another property.
// Every call reads current state; nothing is cached between calls.
type QuotaService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewQuotaService constructs a QuotaService.
func NewQuotaService(db *gorm.DB, log *zap.Logger) *QuotaService {
	return &QuotaService{db: db, log: log}
}

// CanCreateResource reports whether accountID may create one more property.
func (s *QuotaService) CanCreateResource(ctx context.Context, accountID uuid.UUID) (*QuotaDecision, error) {
	return decide(s.db.WithContext(ctx), accountID, false)
}

// CreateWithinQuota runs create inside a transaction that holds the account
// row lock, after re-checking the quota under that lock. Concurrent creators
// for one account are serialized, so the boundary cannot be crossed twice.
// create must use the given tx for its writes.
func (s *QuotaService) CreateWithinQuota(ctx context.Context, accountID uuid.UUID, create func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		decision, err := decide(tx, accountID, true)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			s.log.Info("resource creation denied",
				zap.String("account_id", accountID.String()),
				zap.Int64("count", decision.Count),
			)
			return &QuotaExceededError{
				Count:  decision.Count,
				Limit:  decision.Limit,
				Reason: decision.Reason,
			}
		}
		return create(tx)
	})
}

func decide(db *gorm.DB, accountID uuid.UUID, lock bool) (*QuotaDecision, error) {
	account, err := findActiveAccount(db, accountID, lock)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.Property{}).
		Where("account_id = ? AND is_deleted = ?", accountID, false).
		Count(&count).Error; err != nil {
		return nil, err
	}

	decision := &QuotaDecision{
		Count:               count,
		Limit:               FreeTierLimit,
		EntitlementUnlocked: account.EntitlementUnlocked,
	}
	switch {
	case count < FreeTierLimit:
		decision.Allowed = true
	case account.EntitlementUnlocked:
		decision.Allowed = true
	default:
		decision.Reason = ReasonFreeTierExceeded
	}
	return decision, nil
}
