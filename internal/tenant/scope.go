package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForProject returns a GORM scope that filters by project_id.
func ForProject(projectID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("project_id = ?", projectID)
	}
}
