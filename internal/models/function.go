package models

import (
	"time"

	"github.com/google/uuid"
)

// Function is the persisted copy of a catalog capability. Rows are upserted
// from the code-defined catalog at startup.
type Function struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Domain        string    `gorm:"size:50;not null;index" json:"domain"`
	FunctionName  string    `gorm:"size:100;not null;uniqueIndex" json:"function_name"`
	Description   string    `gorm:"size:500" json:"description"`
	RequiresAuth  bool      `gorm:"not null" json:"requires_auth"`
	RateLimitTier string    `gorm:"size:20;not null" json:"rate_limit_tier"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Function) TableName() string {
	return "function_registry"
}

// ProjectFunction overrides a capability for one project. A missing row
// means the capability is enabled with its tier limit.
type ProjectFunction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProjectID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_function,priority:1" json:"project_id"`
	FunctionID      uint      `gorm:"not null;uniqueIndex:idx_project_function,priority:2" json:"function_id"`
	IsEnabled       bool      `gorm:"not null" json:"is_enabled"`
	CustomRateLimit *int      `json:"custom_rate_limit"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Project         Project   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Function        Function  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (ProjectFunction) TableName() string {
	return "project_functions"
}
