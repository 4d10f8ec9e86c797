package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EventUserRegistered = "user.registered"
	EventLogin          = "auth.login"
	EventLoginFailed    = "auth.login_failed"
	EventLogout         = "auth.logout"
	EventPasswordReset  = "auth.password_reset"
)

type AnalyticsEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID *uuid.UUID     `gorm:"type:uuid;index" json:"project_id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	EventType string         `gorm:"size:100;not null;index" json:"event_type"`
	SiteName  string         `gorm:"size:100" json:"site_name"`
	Meta      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"meta"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	User      *User          `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
