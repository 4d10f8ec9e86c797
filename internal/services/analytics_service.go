package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultEventLimit = 100

type AnalyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db, now: time.Now}
}

// Record appends an analytics event. Failures are logged and swallowed; an
// audit write never fails the request that caused it.
func (s *AnalyticsService) Record(ctx context.Context, t *tenant.Context, userID *uuid.UUID, eventType string, meta map[string]any) {
	event := models.AnalyticsEvent{
		UserID:    userID,
		EventType: eventType,
		Meta:      encodeMeta(meta),
		Timestamp: s.now(),
	}
	if t != nil {
		pid := t.ProjectID
		event.ProjectID = &pid
		event.SiteName = t.Name
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		slog.Warn("failed to record analytics event", "event", eventType, "error", err)
	}
}

// AuthAttempts lists login, failed login and logout events, newest first.
func (s *AnalyticsService) AuthAttempts(ctx context.Context, projectID uuid.UUID, limit int) ([]models.AnalyticsEvent, error) {
	return s.list(ctx, projectID, limit, models.EventLogin, models.EventLoginFailed, models.EventLogout)
}

func (s *AnalyticsService) UsersRegistered(ctx context.Context, projectID uuid.UUID, limit int) ([]models.AnalyticsEvent, error) {
	return s.list(ctx, projectID, limit, models.EventUserRegistered)
}

func (s *AnalyticsService) list(ctx context.Context, projectID uuid.UUID, limit int, types ...string) ([]models.AnalyticsEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultEventLimit
	}
	var events []models.AnalyticsEvent
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForProject(projectID)).
		Where("event_type IN ?", types).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func encodeMeta(meta map[string]any) []byte {
	if len(meta) == 0 {
		return []byte("{}")
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return []byte("{}")
	}
	return data
}
