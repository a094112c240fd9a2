package models

import "github.com/google/uuid"

// Property is the billable resource counted against the free tier.
type Property struct {
	BaseModel
	AccountID  uuid.UUID `gorm:"type:uuid;index;not null" json:"account_id"`
	Name       string    `gorm:"not null" json:"name"`
	Address    string    `gorm:"not null" json:"address"`
	City       string    `gorm:"not null" json:"city"`
	State      string    `gorm:"not null" json:"state"`
	ZipCode    string    `gorm:"not null" json:"zip_code"`
	Type       string    `gorm:"not null" json:"type"`
	RentAmount int64     `gorm:"not null" json:"rent_amount"`
	Status     string    `gorm:"not null;default:available" json:"status"`
	IsDeleted  bool      `gorm:"not null;default:false;index" json:"-"`
}
