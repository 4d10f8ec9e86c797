package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantInvalidator drops cached tenant contexts after a project changes.
type TenantInvalidator interface {
	Invalidate(ctx context.Context, apiKey string)
}

// FunctionView is a registry row merged with a project's override.
type FunctionView struct {
	ID              uint   `json:"id"`
	Domain          string `json:"domain"`
	FunctionName    string `json:"function_name"`
	Description     string `json:"description"`
	RequiresAuth    bool   `json:"requires_auth"`
	RateLimitTier   string `json:"rate_limit_tier"`
	IsEnabled       bool   `json:"is_enabled"`
	CustomRateLimit *int   `json:"custom_rate_limit"`
}

type AdminService struct {
	db          *gorm.DB
	audit       *AuditService
	invalidator TenantInvalidator
}

func NewAdminService(db *gorm.DB, audit *AuditService, invalidator TenantInvalidator) *AdminService {
	return &AdminService{db: db, audit: audit, invalidator: invalidator}
}

// authorizeProject lets platform admins manage any project and everyone
// else only their own.
func authorizeProject(t *tenant.Context, projectID uuid.UUID) error {
	if t.IsPlatform() || t.ProjectID == projectID {
		return nil
	}
	return ErrForeignProject
}

func (s *AdminService) ListUsers(ctx context.Context, t *tenant.Context, limit, offset int) ([]models.User, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	db := s.db.WithContext(ctx).Model(&models.User{}).Scopes(tenant.ForProject(t.ProjectID))
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := s.db.WithContext(ctx).Scopes(tenant.ForProject(t.ProjectID)).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	return users, total, err
}

func (s *AdminService) UpdateUser(ctx context.Context, t *tenant.Context, adminID, userID uuid.UUID, req *dto.UpdateUserRequest) (*models.User, error) {
	updates := map[string]any{}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, invalid("email", "A valid email is required")
		}
		updates["email"] = email
	}
	if req.Role != nil {
		if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
			return nil, invalid("role", "role must be user or admin")
		}
		updates["role"] = *req.Role
	}
	if req.SiteName != nil {
		updates["site_name"] = strings.TrimSpace(*req.SiteName)
	}
	if len(req.Metadata) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(req.Metadata, &obj); err != nil || obj == nil {
			return nil, invalid("metadata", "metadata must be a JSON object")
		}
		updates["metadata"] = datatypes.JSON(req.Metadata)
	}
	if len(updates) == 0 {
		return nil, invalid("body", "No fields to update")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Scopes(tenant.ForProject(t.ProjectID)).
		Where("id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	meta := map[string]any{}
	for k := range updates {
		if k != "metadata" {
			meta[k] = updates[k]
		}
	}
	s.audit.Record(ctx, t.ProjectID, adminID, ActionUpdateUser, "user", userID.String(), meta)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, t *tenant.Context, adminID, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Scopes(tenant.ForProject(t.ProjectID)).
		Where("id = ?", userID).
		Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	s.audit.Record(ctx, t.ProjectID, adminID, ActionDeleteUser, "user", userID.String(), nil)
	return nil
}

func (s *AdminService) ListFunctions(ctx context.Context) ([]models.Function, error) {
	var fns []models.Function
	err := s.db.WithContext(ctx).Order("domain, function_name").Find(&fns).Error
	return fns, err
}

func (s *AdminService) ProjectFunctions(ctx context.Context, t *tenant.Context, projectID uuid.UUID) ([]FunctionView, error) {
	if err := authorizeProject(t, projectID); err != nil {
		return nil, err
	}
	if _, err := s.project(ctx, projectID); err != nil {
		return nil, err
	}

	var rows []functionOverrideRow
	err := s.db.WithContext(ctx).
		Table("function_registry AS fr").
		Select("fr.*, pf.is_enabled AS override_enabled, pf.custom_rate_limit").
		Joins("LEFT JOIN project_functions AS pf ON pf.function_id = fr.id AND pf.project_id = ?", projectID).
		Order("fr.domain, fr.function_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	views := make([]FunctionView, 0, len(rows))
	for _, r := range rows {
		enabled := true
		if r.OverrideEnabled != nil {
			enabled = *r.OverrideEnabled
		}
		views = append(views, FunctionView{
			ID:              r.ID,
			Domain:          r.Domain,
			FunctionName:    r.FunctionName,
			Description:     r.Description,
			RequiresAuth:    r.RequiresAuth,
			RateLimitTier:   r.RateLimitTier,
			IsEnabled:       enabled,
			CustomRateLimit: r.CustomRateLimit,
		})
	}
	return views, nil
}

type functionOverrideRow struct {
	models.Function
	OverrideEnabled *bool
	CustomRateLimit *int
}

// ToggleFunction upserts the (project, function) override in one statement.
// functionRef is a numeric id or a function name. A custom_rate_limit of 0
// clears the override and falls back to the tier budget; leaving it out
// keeps the current value.
func (s *AdminService) ToggleFunction(ctx context.Context, t *tenant.Context, adminID, projectID uuid.UUID, functionRef string, req *dto.ToggleFunctionRequest) (*FunctionView, error) {
	if req.IsEnabled == nil && req.CustomRateLimit == nil {
		return nil, invalid("is_enabled", "is_enabled or custom_rate_limit is required")
	}
	if req.CustomRateLimit != nil && *req.CustomRateLimit < 0 {
		return nil, invalid("custom_rate_limit", "custom_rate_limit must not be negative")
	}
	if err := authorizeProject(t, projectID); err != nil {
		return nil, err
	}

	project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	fn, err := s.function(ctx, functionRef)
	if err != nil {
		return nil, err
	}

	row := models.ProjectFunction{
		ProjectID:  projectID,
		FunctionID: fn.ID,
		IsEnabled:  true,
	}
	columns := []string{"updated_at"}
	if req.IsEnabled != nil {
		row.IsEnabled = *req.IsEnabled
		columns = append(columns, "is_enabled")
	}
	if req.CustomRateLimit != nil {
		if *req.CustomRateLimit > 0 {
			limit := *req.CustomRateLimit
			row.CustomRateLimit = &limit
		}
		columns = append(columns, "custom_rate_limit")
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "function_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to toggle function: %w", err)
	}

	var stored models.ProjectFunction
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND function_id = ?", projectID, fn.ID).
		First(&stored).Error; err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(ctx, project.APIKey)
	s.audit.Record(ctx, t.ProjectID, adminID, ActionToggleFunction, "function", fn.FunctionName, map[string]any{
		"project_id":        projectID.String(),
		"is_enabled":        stored.IsEnabled,
		"custom_rate_limit": stored.CustomRateLimit,
	})

	return &FunctionView{
		ID:              fn.ID,
		Domain:          fn.Domain,
		FunctionName:    fn.FunctionName,
		Description:     fn.Description,
		RequiresAuth:    fn.RequiresAuth,
		RateLimitTier:   fn.RateLimitTier,
		IsEnabled:       stored.IsEnabled,
		CustomRateLimit: stored.CustomRateLimit,
	}, nil
}

// UpdateOrigins replaces a project's allowed origins, keeping the rest of
// its config untouched.
func (s *AdminService) UpdateOrigins(ctx context.Context, t *tenant.Context, adminID, projectID uuid.UUID, origins []string) (*models.Project, error) {
	if err := authorizeProject(t, projectID); err != nil {
		return nil, err
	}
	normalized, err := tenant.NormalizeOrigins(origins)
	if err != nil {
		return nil, invalid("origins", err.Error())
	}

	project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	cfg, err := tenant.ParseProjectConfig(project.Config)
	if err != nil {
		return nil, fmt.Errorf("project %s has invalid config: %w", project.Name, err)
	}
	cfg.Version = tenant.CurrentConfigVersion
	cfg.AllowedOrigins = normalized

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(project).Update("config", datatypes.JSON(raw)).Error; err != nil {
		return nil, fmt.Errorf("failed to update origins: %w", err)
	}
	project.Config = raw

	s.invalidator.Invalidate(ctx, project.APIKey)
	s.audit.Record(ctx, t.ProjectID, adminID, ActionUpdateOrigins, "project", projectID.String(), map[string]any{
		"origins": normalized,
	})
	return project, nil
}

func (s *AdminService) project(ctx context.Context, id uuid.UUID) (*models.Project, error) {
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

func (s *AdminService) function(ctx context.Context, ref string) (*models.Function, error) {
	var fn models.Function
	q := s.db.WithContext(ctx)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("function_name = ?", ref)
	}
	err := q.First(&fn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFunctionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fn, nil
}
