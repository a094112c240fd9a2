package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/rentdesk/internal/database"
	"github.com/example/rentdesk/internal/models"
	"github.com/example/rentdesk/internal/utils"
)

// AccountStore is the only path through which account rows are read and
// mutated. Blocked and soft-deleted accounts are invisible to lookups so that
// callers can never tell them apart from unknown ones.
type AccountStore struct {
	db *gorm.DB
}

// NewAccountStore constructs an AccountStore.
func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

// NewAccount carries the fields accepted at registration.
type NewAccount struct {
	Name  string
	Email string
	Phone string
}

// Create registers a new account.
func (s *AccountStore) Create(ctx context.Context, input NewAccount) (*models.Account, error) {
	account := models.Account{Name: strings.TrimSpace(input.Name)}
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" {
		account.Email = &email
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		account.Phone = &phone
	}
	if account.Email == nil && account.Phone == nil {
		return nil, ErrIdentifierRequired
	}

	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	return &account, nil
}

// FindByIdentifier returns the active account whose email or phone matches.
func (s *AccountStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentifierRequired
	}

	var account models.Account
	err := s.active(s.db.WithContext(ctx)).
		Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByID returns the active account with the given ID.
func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return findActiveAccount(s.db.WithContext(ctx), id, false)
}

// FindForSession loads a non-deleted account including blocked ones, so
// that authenticated requests can be refused with a specific reason.
func (s *AccountStore) FindForSession(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// SetOTP stores a fresh code, replacing any earlier one.
func (s *AccountStore) SetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"otp_code":       code,
			"otp_expires_at": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ConsumeOTP clears the stored code if it still equals code and records the
// login time. It reports false when another request consumed or replaced the
// code first.
func (s *AccountStore) ConsumeOTP(ctx context.Context, id uuid.UUID, code string, loginAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND otp_code = ?", id, code).
		Updates(map[string]any{
			"otp_code":       nil,
			"otp_expires_at": nil,
			"last_login_at":  loginAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetBlocked blocks or unblocks a non-deleted account. A blocked account can
// neither request codes nor use an existing session.
func (s *AccountStore) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*models.Account, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("blocked", blocked)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAccountNotFound
	}
	return s.FindForSession(ctx, id)
}

// SetAdmin grants or revokes the admin role for the active account behind
// identifier.
func (s *AccountStore) SetAdmin(ctx context.Context, identifier string, admin bool) (*models.Account, error) {
	account, err := s.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", account.ID).
		Update("is_admin", admin).Error; err != nil {
		return nil, err
	}
	account.IsAdmin = admin
	return account, nil
}

// ListAccounts returns non-deleted accounts, blocked ones included, newest
// first. search matches name, email or phone.
func (s *AccountStore) ListAccounts(ctx context.Context, search string, page utils.Pagination) ([]models.Account, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("is_deleted = ?", false)

	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []models.Account
	if err := query.Order("created_at desc").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (s *AccountStore) active(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ? AND blocked = ?", false, false)
}

// findActiveAccount loads an account, optionally taking a row lock when db is
// a transaction.
func findActiveAccount(db *gorm.DB, id uuid.UUID, lock bool) (*models.Account, error) {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var account models.Account
	err := db.Where("id = ? AND is_deleted = ? AND blocked = ?", id, false, false).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// unlockEntitlement flips the paid flag. It must run inside the transaction
// that marks the order paid.
func unlockEntitlement(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Model(&models.Account{}).
		Where("id = ?", id).
		Update("entitlement_unlocked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
