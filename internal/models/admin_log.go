package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AdminLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   *uuid.UUID     `gorm:"type:uuid;index" json:"project_id"`
	AdminUserID *uuid.UUID     `gorm:"type:uuid;index" json:"admin_user_id"`
	ActionType  string         `gorm:"size:100;not null" json:"action_type"`
	TargetType  string         `gorm:"size:50" json:"target_type"`
	TargetID    string         `gorm:"size:100" json:"target_id"`
	Meta        datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"meta"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	AdminUser   *User          `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}
