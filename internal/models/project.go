package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is a tenant. The API key is generated at creation and never changes.
type Project struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"size:255;not null;uniqueIndex" json:"name"`
	APIKey        string         `gorm:"size:255;not null;uniqueIndex" json:"api_key"`
	IsMaintenance bool           `gorm:"not null" json:"is_maintenance"`
	FeatureFlags  datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"feature_flags"`
	Config        datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"config"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Project) TableName() string {
	return "projects"
}
