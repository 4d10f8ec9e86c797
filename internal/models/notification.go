package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	NotificationEmail = "email"
	NotificationPush  = "push"

	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID *uuid.UUID     `gorm:"type:uuid;index" json:"project_id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Type      string         `gorm:"size:20;not null" json:"type"`
	Status    string         `gorm:"size:20;not null" json:"status"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Error     string         `gorm:"type:text" json:"error,omitempty"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
