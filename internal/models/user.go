package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User belongs to exactly one project; email and username are unique per project.
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_users_project_email,priority:1;uniqueIndex:idx_users_project_username,priority:1" json:"project_id"`
	Email            string         `gorm:"size:255;not null;uniqueIndex:idx_users_project_email,priority:2" json:"email"`
	Username         *string        `gorm:"size:50;uniqueIndex:idx_users_project_username,priority:2" json:"username"`
	PasswordHash     string         `gorm:"size:255;not null" json:"-"`
	Role             string         `gorm:"size:20;default:'user'" json:"role"`
	OAuthProvider    *string        `gorm:"size:50" json:"oauth_provider,omitempty"`
	OAuthID          *string        `gorm:"size:255" json:"-"`
	AvatarURL        *string        `gorm:"type:text" json:"avatar_url"`
	Metadata         datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	SiteName         string         `gorm:"size:100" json:"site_name"`
	RefreshTokenHash *string        `gorm:"size:255" json:"-"`
	EmailVerified    bool           `gorm:"not null" json:"email_verified"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Project          Project        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (User) TableName() string {
	return "users"
}
