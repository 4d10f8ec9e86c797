package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin action types.
const (
	ActionUpdateUser        = "update_user"
	ActionDeleteUser        = "delete_user"
	ActionToggleFunction    = "toggle_function"
	ActionUpdateOrigins     = "update_origins"
	ActionToggleMaintenance = "toggle_maintenance"
	ActionUpdateFlags       = "update_feature_flags"
	ActionCreateProject     = "create_project"
	ActionDeleteProject     = "delete_project"
	ActionUpdateSettings    = "update_settings"
)

// AuditService appends admin action records.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db, now: time.Now}
}

// Record is best effort: a failed write is logged and the action stands.
func (s *AuditService) Record(ctx context.Context, projectID uuid.UUID, adminID uuid.UUID, action, targetType, targetID string, meta map[string]any) {
	entry := models.AdminLog{
		ProjectID:   &projectID,
		AdminUserID: &adminID,
		ActionType:  action,
		TargetType:  targetType,
		TargetID:    targetID,
		Meta:        encodeMeta(meta),
		Timestamp:   s.now(),
	}
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; err != nil {
		slog.Warn("failed to write admin log", "action", action, "error", err)
	}
}

func (s *AuditService) List(ctx context.Context, projectID uuid.UUID, limit int) ([]models.AdminLog, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultEventLimit
	}
	var logs []models.AdminLog
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
