package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/rentdesk/internal/models"
	"github.com/example/rentdesk/internal/utils"
)

// NewProperty carries the fields a landlord supplies when listing a property.
type NewProperty struct {
	Name       string
	Address    string
	City       string
	State      string
	ZipCode    string
	Type       string
	RentAmount int64
	Status     string
}

// PropertyService manages the resource that the free tier counts.
type PropertyService struct {
	db    *gorm.DB
	quota *QuotaService
	log   *zap.Logger
}

// NewPropertyService constructs a PropertyService.
func NewPropertyService(db *gorm.DB, quota *QuotaService, log *zap.Logger) *PropertyService {
	return &PropertyService{db: db, quota: quota, log: log}
}

// Create stores a property if the owner's quota allows one more.
func (s *PropertyService) Create(ctx context.Context, accountID uuid.UUID, input NewProperty) (*models.Property, error) {
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "available"
	}
	property := models.Property{
		AccountID:  accountID,
		Name:       strings.TrimSpace(input.Name),
		Address:    strings.TrimSpace(input.Address),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		ZipCode:    strings.TrimSpace(input.ZipCode),
		Type:       strings.TrimSpace(input.Type),
		RentAmount: input.RentAmount,
		Status:     status,
	}

	err := s.quota.CreateWithinQuota(ctx, accountID, func(tx *gorm.DB) error {
		return tx.Create(&property).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("property created",
		zap.String("account_id", accountID.String()),
		zap.String("property_id", property.ID.String()),
	)
	return &property, nil
}

// List returns the account's non-deleted properties, newest first.
func (s *PropertyService) List(ctx context.Context, accountID uuid.UUID, page utils.Pagination) ([]models.Property, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("account_id = ? AND is_deleted = ?", accountID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var properties []models.Property
	if err := query.Order("created_at desc").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&properties).Error; err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

// Delete soft-deletes a property, which frees one slot of the free tier.
func (s *PropertyService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ? AND account_id = ? AND is_deleted = ?", id, accountID, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
