package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken stores device tokens (FCM) and other long-lived bearer values
// owned by a user.
type AuthToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string     `gorm:"type:text;not null" json:"-"`
	Type      string     `gorm:"size:50;not null" json:"type"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	User      User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

const AuthTokenTypeFCM = "fcm_token"

func (AuthToken) TableName() string {
	return "auth_tokens"
}
