package models

import "time"

// Account represents an operator who manages rental properties.
type Account struct {
	BaseModel
	Name                string     `json:"name"`
	Email               *string    `gorm:"uniqueIndex" json:"email"`
	Phone               *string    `gorm:"uniqueIndex" json:"phone"`
	OTPCode             *string    `gorm:"column:otp_code" json:"-"`
	OTPExpiresAt        *time.Time `gorm:"column:otp_expires_at" json:"-"`
	Blocked             bool       `gorm:"not null;default:false" json:"blocked"`
	IsAdmin             bool       `gorm:"not null;default:false" json:"is_admin"`
	EntitlementUnlocked bool       `gorm:"not null;default:false" json:"entitlement_unlocked"`
	IsDeleted           bool       `gorm:"not null;default:false;index" json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// HasPendingOTP reports whether a code is stored and still valid at now.
func (a *Account) HasPendingOTP(now time.Time) bool {
	if a.OTPCode == nil || a.OTPExpiresAt == nil {
		return false
	}
	return now.Before(*a.OTPExpiresAt)
}
