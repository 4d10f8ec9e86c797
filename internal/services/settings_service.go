package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewSettingsService(db *gorm.DB, audit *AuditService) *SettingsService {
	return &SettingsService{db: db, audit: audit}
}

// Get returns the project's settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, t *tenant.Context) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := s.db.WithContext(ctx).Where("project_id = ?", t.ProjectID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := models.DefaultSiteSettings(t.ProjectID, t.Name)
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *SettingsService) Update(ctx context.Context, t *tenant.Context, adminID uuid.UUID, req *dto.UpdateSiteSettingsRequest) (*models.SiteSettings, error) {
	settings, err := s.Get(ctx, t)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, invalid("display_name", "display_name must not be empty")
		}
		settings.DisplayName = name
	}
	if req.AllowRegistration != nil {
		settings.AllowRegistration = *req.AllowRegistration
	}
	if len(req.ConfigJSON) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(req.ConfigJSON, &obj); err != nil || obj == nil {
			return nil, invalid("config_json", "config_json must be a JSON object")
		}
		settings.ConfigJSON = []byte(req.ConfigJSON)
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "allow_registration", "config_json", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, t.ProjectID, adminID, ActionUpdateSettings, "project", t.ProjectID.String(), map[string]any{
		"display_name":       settings.DisplayName,
		"allow_registration": settings.AllowRegistration,
	})
	return settings, nil
}
