package services

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"gorm.io/gorm"
)

type Stats struct {
	Projects      int64 `json:"projects"`
	Users         int64 `json:"users"`
	LoginEvents   int64 `json:"login_events"`
	DeviceTokens  int64 `json:"device_tokens"`
	Notifications int64 `json:"notifications"`
}

type Activity struct {
	ID        uint      `json:"id"`
	UserEmail *string   `json:"user"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type SystemService struct {
	db *gorm.DB
}

func NewSystemService(db *gorm.DB) *SystemService {
	return &SystemService{db: db}
}

// Stats counts platform-wide rows for the platform project, and only the
// caller's rows otherwise.
func (s *SystemService) Stats(ctx context.Context, t *tenant.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	scoped := func(q *gorm.DB) *gorm.DB {
		if t.IsPlatform() {
			return q
		}
		return q.Scopes(tenant.ForProject(t.ProjectID))
	}

	var st Stats
	if t.IsPlatform() {
		if err := db.Model(&models.Project{}).Count(&st.Projects).Error; err != nil {
			return nil, err
		}
	} else {
		st.Projects = 1
	}
	if err := scoped(db.Model(&models.User{})).Count(&st.Users).Error; err != nil {
		return nil, err
	}
	if err := scoped(db.Model(&models.AnalyticsEvent{})).Where("event_type = ?", models.EventLogin).Count(&st.LoginEvents).Error; err != nil {
		return nil, err
	}
	tokens := db.Model(&models.AuthToken{})
	if !t.IsPlatform() {
		tokens = tokens.Joins("JOIN users ON users.id = auth_tokens.user_id").Where("users.project_id = ?", t.ProjectID)
	}
	if err := tokens.Count(&st.DeviceTokens).Error; err != nil {
		return nil, err
	}
	if err := scoped(db.Model(&models.Notification{})).Count(&st.Notifications).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SystemService) RecentActivity(ctx context.Context, t *tenant.Context, limit int) ([]Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	q := s.db.WithContext(ctx).
		Table("analytics_events AS a").
		Select("a.id, u.email AS user_email, a.event_type AS action, a.timestamp").
		Joins("LEFT JOIN users AS u ON u.id = a.user_id")
	if !t.IsPlatform() {
		q = q.Where("a.project_id = ?", t.ProjectID)
	}
	var out []Activity
	err := q.Order("a.timestamp DESC, a.id DESC").Limit(limit).Scan(&out).Error
	return out, err
}
