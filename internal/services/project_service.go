package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const apiKeyPrefix = "sat_live_"

// GenerateAPIKey returns a prefixed key carrying 24 random bytes.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// ProjectService manages tenants from the platform project.
type ProjectService struct {
	db          *gorm.DB
	audit       *AuditService
	invalidator TenantInvalidator
}

func NewProjectService(db *gorm.DB, audit *AuditService, invalidator TenantInvalidator) *ProjectService {
	return &ProjectService{db: db, audit: audit, invalidator: invalidator}
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (s *ProjectService) Create(ctx context.Context, t *tenant.Context, adminID uuid.UUID, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "Project name is required")
	}

	key, err := GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	cfg, err := json.Marshal(tenant.ProjectConfig{Version: tenant.CurrentConfigVersion})
	if err != nil {
		return nil, err
	}

	project := models.Project{
		Name:         name,
		APIKey:       key,
		FeatureFlags: datatypes.JSON("{}"),
		Config:       cfg,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProjectExists
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.audit.Record(ctx, t.ProjectID, adminID, ActionCreateProject, "project", project.ID.String(), map[string]any{"name": name})
	return &project, nil
}

func (s *ProjectService) SetMaintenance(ctx context.Context, t *tenant.Context, adminID, projectID uuid.UUID, on bool) (*models.Project, error) {
	project, err := s.find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(project).Update("is_maintenance", on).Error; err != nil {
		return nil, err
	}
	project.IsMaintenance = on

	s.invalidator.Invalidate(ctx, project.APIKey)
	s.audit.Record(ctx, t.ProjectID, adminID, ActionToggleMaintenance, "project", projectID.String(), map[string]any{"is_maintenance": on})
	return project, nil
}

func (s *ProjectService) SetFeatureFlags(ctx context.Context, t *tenant.Context, adminID, projectID uuid.UUID, flags map[string]any) (*models.Project, error) {
	if flags == nil {
		return nil, invalid("feature_flags", "feature_flags must be a JSON object")
	}
	project, err := s.find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(flags)
	if err != nil {
		return nil, invalid("feature_flags", "feature_flags must be a JSON object")
	}
	if err := s.db.WithContext(ctx).Model(project).Update("feature_flags", datatypes.JSON(raw)).Error; err != nil {
		return nil, err
	}
	project.FeatureFlags = raw

	s.invalidator.Invalidate(ctx, project.APIKey)
	s.audit.Record(ctx, t.ProjectID, adminID, ActionUpdateFlags, "project", projectID.String(), nil)
	return project, nil
}

// Delete removes the project. Overrides, users, OTP challenges and settings
// go with it through foreign-key cascades.
func (s *ProjectService) Delete(ctx context.Context, t *tenant.Context, adminID, projectID uuid.UUID) error {
	if projectID == t.ProjectID {
		return invalid("id", "The current project cannot delete itself")
	}
	project, err := s.find(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(project).Error; err != nil {
		return err
	}

	s.invalidator.Invalidate(ctx, project.APIKey)
	s.audit.Record(ctx, t.ProjectID, adminID, ActionDeleteProject, "project", projectID.String(), map[string]any{"name": project.Name})
	return nil
}

func (s *ProjectService) find(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}
