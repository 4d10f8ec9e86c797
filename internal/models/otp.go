package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OTPPurposeEmailVerification = "email_verification"
	OTPPurposePasswordReset     = "password_reset"
)

// OTPVerification is a single challenge. At most one unverified row exists
// per (project, email, purpose).
type OTPVerification struct {
	ID        uint      `gorm:"primaryKey"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_otp_lookup,priority:1"`
	Email     string    `gorm:"size:255;not null;index:idx_otp_lookup,priority:2"`
	Purpose   string    `gorm:"size:50;not null;index:idx_otp_lookup,priority:3"`
	OTPCode   string    `gorm:"size:6;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Verified  bool      `gorm:"not null"`
	Attempts  int       `gorm:"not null"`
	CreatedAt time.Time
	Project   Project `gorm:"constraint:OnDelete:CASCADE"`
}

func (OTPVerification) TableName() string {
	return "otp_verifications"
}
