package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublicUser is the profile visible to any caller holding the project key.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url"`
	SiteName  string    `json:"site_name"`
	CreatedAt time.Time `json:"created_at"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) find(ctx context.Context, t *tenant.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Scopes(tenant.ForProject(t.ProjectID)).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

func (s *UserService) Get(ctx context.Context, t *tenant.Context, id uuid.UUID) (*PublicUser, error) {
	user, err := s.find(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return &PublicUser{
		ID:        user.ID,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		SiteName:  user.SiteName,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Details returns the full user row. Credential columns are never serialized.
func (s *UserService) Details(ctx context.Context, t *tenant.Context, id uuid.UUID) (*models.User, error) {
	return s.find(ctx, t, id)
}

func (s *UserService) Avatar(ctx context.Context, t *tenant.Context, id uuid.UUID) (*string, error) {
	user, err := s.find(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return user.AvatarURL, nil
}

func (s *UserService) Metadata(ctx context.Context, t *tenant.Context, id uuid.UUID) (json.RawMessage, error) {
	user, err := s.find(ctx, t, id)
	if err != nil {
		return nil, err
	}
	if len(user.Metadata) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(user.Metadata), nil
}
