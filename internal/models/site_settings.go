package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SiteSettings holds per-project display settings. A project without a row
// uses DefaultSiteSettings.
type SiteSettings struct {
	ProjectID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"project_id"`
	DisplayName       string         `gorm:"size:255" json:"display_name"`
	AllowRegistration bool           `gorm:"not null" json:"allow_registration"`
	ConfigJSON        datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"config_json"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Project           Project        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func DefaultSiteSettings(projectID uuid.UUID, name string) SiteSettings {
	return SiteSettings{
		ProjectID:         projectID,
		DisplayName:       name,
		AllowRegistration: true,
		ConfigJSON:        []byte("{}"),
	}
}

func (SiteSettings) TableName() string {
	return "site_settings"
}
