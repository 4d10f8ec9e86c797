package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrProjectNotFound is returned when no project carries the API key.
var ErrProjectNotFound = errors.New("project not found")

// Store reads tenant records.
type Store interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Project, error)
	FunctionStates(ctx context.Context, projectID uuid.UUID) (map[string]FunctionState, error)
	// OriginAllowedAnywhere reports whether any project lists origin.
	OriginAllowedAnywhere(ctx context.Context, origin string) (bool, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByAPIKey(ctx context.Context, apiKey string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project by api key: %w", err)
	}
	return &project, nil
}

type functionStateRow struct {
	FunctionName    string
	IsEnabled       *bool
	CustomRateLimit *int
}

// FunctionStates joins the registry with the project's overrides. A
// capability without an override row is enabled.
func (s *GormStore) FunctionStates(ctx context.Context, projectID uuid.UUID) (map[string]FunctionState, error) {
	var rows []functionStateRow
	err := s.db.WithContext(ctx).
		Table("function_registry AS fr").
		Select("fr.function_name, pf.is_enabled, pf.custom_rate_limit").
		Joins("LEFT JOIN project_functions AS pf ON pf.function_id = fr.id AND pf.project_id = ?", projectID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load function states: %w", err)
	}

	states := make(map[string]FunctionState, len(rows))
	for _, r := range rows {
		st := FunctionState{Enabled: true, CustomRateLimit: r.CustomRateLimit}
		if r.IsEnabled != nil {
			st.Enabled = *r.IsEnabled
		}
		states[r.FunctionName] = st
	}
	return states, nil
}

func (s *GormStore) OriginAllowedAnywhere(ctx context.Context, origin string) (bool, error) {
	db := s.db.WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		query, err := originContainment(db, origin)
		if err != nil {
			return false, err
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return false, fmt.Errorf("reverse origin lookup: %w", err)
		}
		return count > 0, nil
	}

	var configs []datatypes.JSON
	if err := db.Model(&models.Project{}).Pluck("config", &configs).Error; err != nil {
		return false, fmt.Errorf("reverse origin lookup: %w", err)
	}
	for _, raw := range configs {
		cfg, err := ParseProjectConfig(raw)
		if err != nil {
			continue
		}
		if cfg.AllowsOrigin(origin) {
			return true, nil
		}
	}
	return false, nil
}

// originContainment selects projects whose allowed_origins JSON array
// contains origin, using the jsonb containment operator.
func originContainment(db *gorm.DB, origin string) (*gorm.DB, error) {
	needle, err := json.Marshal([]string{origin})
	if err != nil {
		return nil, err
	}
	return db.Model(&models.Project{}).
		Where("config->'allowed_origins' @> ?::jsonb", string(needle)), nil
}
