package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// Token is a signed credential and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Session is the outcome of a successful login or session check. Access and
// Refresh are set only when new credentials were minted.
type Session struct {
	User    *models.User
	Access  *Token
	Refresh *Token
}

type AuthOptions struct {
	BcryptCost  int
	RotateOnUse bool
}

type AuthService struct {
	db        *gorm.DB
	issuer    *auth.Issuer
	otp       *OTPService
	analytics *AnalyticsService
	settings  *SettingsService
	opts      AuthOptions
	// Compared against when the email is unknown so both paths pay for bcrypt.
	dummyHash string
}

func NewAuthService(db *gorm.DB, issuer *auth.Issuer, otp *OTPService, analytics *AnalyticsService, settings *SettingsService, opts AuthOptions) (*AuthService, error) {
	dummy, err := auth.HashPassword(uuid.NewString(), opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		db:        db,
		issuer:    issuer,
		otp:       otp,
		analytics: analytics,
		settings:  settings,
		opts:      opts,
		dummyHash: dummy,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, t *tenant.Context, req *dto.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "A valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	settings, err := s.settings.Get(ctx, t)
	if err != nil {
		return nil, err
	}
	if !settings.AllowRegistration {
		return nil, ErrRegistrationClosed
	}

	hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ProjectID:    t.ProjectID,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		SiteName:     t.Name,
		Metadata:     []byte("{}"),
	}
	if username := strings.TrimSpace(req.Username); username != "" {
		user.Username = &username
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.analytics.Record(ctx, t, &user.ID, models.EventUserRegistered, nil)
	return &user, nil
}

// Login verifies the password and mints a token pair. The refresh digest is
// persisted before the pair is returned; if that write fails, login fails.
func (s *AuthService) Login(ctx context.Context, t *tenant.Context, req *dto.LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)

	var user models.User
	err := s.db.WithContext(ctx).Scopes(tenant.ForProject(t.ProjectID)).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auth.CheckPassword(s.dummyHash, req.Password)
		s.analytics.Record(ctx, t, nil, models.EventLoginFailed, map[string]any{"reason": "unknown_email"})
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.analytics.Record(ctx, t, &user.ID, models.EventLoginFailed, map[string]any{"reason": "bad_password"})
		return nil, ErrInvalidCredentials
	}

	sub := subjectOf(&user)
	access, err := s.mintAccess(sub)
	if err != nil {
		return nil, err
	}
	refresh, err := s.mintRefresh(ctx, &user, sub, nil)
	if err != nil {
		return nil, err
	}

	s.analytics.Record(ctx, t, &user.ID, models.EventLogin, nil)
	return &Session{User: &user, Access: access, Refresh: refresh}, nil
}

// CheckSession resolves the user from a valid access token, falling back to
// a silent refresh. Every failure is reported the same way to callers that
// only check for an error; errors.Is distinguishes the cause.
func (s *AuthService) CheckSession(ctx context.Context, t *tenant.Context, accessToken, refreshToken string) (*Session, error) {
	if claims, err := s.issuer.ParseAccess(accessToken); err == nil {
		user, err := s.sessionUser(ctx, t, claims)
		if err != nil {
			return nil, err
		}
		return &Session{User: user}, nil
	}
	return s.Refresh(ctx, t, refreshToken)
}

// Refresh exchanges a refresh token for a new access token. The presented
// token must match the stored digest, so it stops working after logout.
// With RotateOnUse a new refresh token replaces the old one.
func (s *AuthService) Refresh(ctx context.Context, t *tenant.Context, refreshToken string) (*Session, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.sessionUser(ctx, t, claims)
	if err != nil {
		return nil, err
	}
	if !auth.CheckRefresh(user.RefreshTokenHash, refreshToken) {
		return nil, ErrSessionRevoked
	}

	sub := subjectOf(user)
	access, err := s.mintAccess(sub)
	if err != nil {
		return nil, err
	}
	session := &Session{User: user, Access: access}

	if s.opts.RotateOnUse {
		refresh, err := s.mintRefresh(ctx, user, sub, user.RefreshTokenHash)
		if err != nil {
			return nil, err
		}
		session.Refresh = refresh
	}
	return session, nil
}

// Logout clears the stored refresh digest, revoking every refresh token the
// user holds.
func (s *AuthService) Logout(ctx context.Context, t *tenant.Context, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Scopes(tenant.ForProject(t.ProjectID)).
		Where("id = ?", userID).
		Update("refresh_token_hash", nil).Error
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.analytics.Record(ctx, t, &userID, models.EventLogout, nil)
	return nil
}

// ForgotPassword emails a reset code when the account exists. It reports
// success either way.
func (s *AuthService) ForgotPassword(ctx context.Context, t *tenant.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "A valid email is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Scopes(tenant.ForProject(t.ProjectID)).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return s.otp.Send(ctx, t, email, models.OTPPurposePasswordReset)
}

// ResetPassword consumes a password_reset challenge, sets the new password
// and revokes existing sessions.
func (s *AuthService) ResetPassword(ctx context.Context, t *tenant.Context, req *dto.ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	if len(req.NewPassword) < minPasswordLength {
		return invalid("new_password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	if err := s.otp.Verify(ctx, t.ProjectID, email, req.OTP, models.OTPPurposePasswordReset); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword, s.opts.BcryptCost)
	if err != nil {
		return err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Scopes(tenant.ForProject(t.ProjectID)).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOTPInvalid
		}
		return err
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password_hash":      hash,
		"refresh_token_hash": nil,
	}).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.analytics.Record(ctx, t, &user.ID, models.EventPasswordReset, nil)
	return nil
}

func (s *AuthService) UpdateAvatar(ctx context.Context, t *tenant.Context, userID uuid.UUID, avatarURL string) (*models.User, error) {
	u, err := url.Parse(strings.TrimSpace(avatarURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, invalid("avatar_url", "avatar_url must be an http(s) URL")
	}
	link := u.String()

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Scopes(tenant.ForProject(t.ProjectID)).
		Where("id = ?", userID).
		Update("avatar_url", link)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.User(ctx, t, userID)
}

// User loads a user of the tenant.
func (s *AuthService) User(ctx context.Context, t *tenant.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Scopes(tenant.ForProject(t.ProjectID)).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) sessionUser(ctx context.Context, t *tenant.Context, claims *auth.Claims) (*models.User, error) {
	if claims.ProjectID != t.ProjectID.String() {
		return nil, ErrSessionWrongProject
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return s.User(ctx, t, userID)
}

func (s *AuthService) mintAccess(sub auth.Subject) (*Token, error) {
	value, exp, err := s.issuer.IssueAccess(sub)
	if err != nil {
		return nil, err
	}
	return &Token{Value: value, ExpiresAt: exp}, nil
}

// mintRefresh signs a refresh token and stores its digest. When previous is
// set the write only succeeds if the stored digest is still previous, so two
// concurrent rotations cannot both win.
func (s *AuthService) mintRefresh(ctx context.Context, user *models.User, sub auth.Subject, previous *string) (*Token, error) {
	value, exp, err := s.issuer.IssueRefresh(sub)
	if err != nil {
		return nil, err
	}
	digest, err := auth.HashRefresh(value, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID)
	if previous != nil {
		q = q.Where("refresh_token_hash = ?", *previous)
	}
	res := q.Update("refresh_token_hash", digest)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		if previous != nil {
			return nil, ErrSessionRevoked
		}
		return nil, ErrUserNotFound
	}
	user.RefreshTokenHash = &digest
	return &Token{Value: value, ExpiresAt: exp}, nil
}

func subjectOf(user *models.User) auth.Subject {
	return auth.Subject{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ProjectID: user.ProjectID,
	}
}
