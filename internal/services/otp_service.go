package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/notify"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	otpDigits = 6
	otpSpace  = 1_000_000
	// Largest multiple of otpSpace that fits in a uint32; draws at or above
	// it are rejected so every code is equally likely.
	otpRejectAbove = (1 << 32) / otpSpace * otpSpace
)

// GenerateOTP draws a uniformly random 6-digit code from r.
func GenerateOTP(r io.Reader) (string, error) {
	var buf [4]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return "", fmt.Errorf("failed to read randomness: %w", err)
		}
		v := binary.BigEndian.Uint32(buf[:])
		if uint64(v) < otpRejectAbove {
			return fmt.Sprintf("%0*d", otpDigits, v%otpSpace), nil
		}
	}
}

func validPurpose(purpose string) bool {
	return purpose == models.OTPPurposeEmailVerification || purpose == models.OTPPurposePasswordReset
}

type OTPService struct {
	db          *gorm.DB
	notifier    *NotifyService
	ttl         time.Duration
	maxAttempts int
	random      io.Reader
	now         func() time.Time
}

// NewOTPService builds the challenge service. maxAttempts 0 allows unlimited
// wrong guesses until expiry.
func NewOTPService(db *gorm.DB, notifier *NotifyService, ttl time.Duration, maxAttempts int) *OTPService {
	return &OTPService{
		db:          db,
		notifier:    notifier,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		random:      rand.Reader,
		now:         time.Now,
	}
}

func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	s.now = now
	return s
}

// Create replaces any outstanding challenge for (project, email, purpose)
// with a fresh one and returns its code.
func (s *OTPService) Create(ctx context.Context, projectID uuid.UUID, email, purpose string) (string, error) {
	email = normalizeEmail(email)
	if !validPurpose(purpose) {
		return "", invalid("purpose", "Unknown OTP purpose")
	}

	code, err := GenerateOTP(s.random)
	if err != nil {
		return "", err
	}

	challenge := models.OTPVerification{
		ProjectID: projectID,
		Email:     email,
		Purpose:   purpose,
		OTPCode:   code,
		ExpiresAt: s.now().Add(s.ttl),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(tenant.ForProject(projectID)).
			Where("email = ? AND purpose = ? AND verified = ?", email, purpose, false).
			Delete(&models.OTPVerification{}).Error; err != nil {
			return err
		}
		return tx.Create(&challenge).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}
	return code, nil
}

// Verify consumes the outstanding challenge when code matches. A verified
// challenge never reverts.
func (s *OTPService) Verify(ctx context.Context, projectID uuid.UUID, email, code, purpose string) error {
	email = normalizeEmail(email)
	if !validPurpose(purpose) {
		return invalid("purpose", "Unknown OTP purpose")
	}

	db := s.db.WithContext(ctx)
	var challenge models.OTPVerification
	err := db.Scopes(tenant.ForProject(projectID)).
		Where("email = ? AND purpose = ? AND verified = ?", email, purpose, false).
		Order("id DESC").
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOTPInvalid
	}
	if err != nil {
		return err
	}

	if !s.now().Before(challenge.ExpiresAt) {
		return ErrOTPInvalid
	}
	if s.maxAttempts > 0 && challenge.Attempts >= s.maxAttempts {
		return ErrOTPAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(challenge.OTPCode), []byte(code)) != 1 {
		if err := s.spendAttempt(db, challenge.ID); err != nil {
			return err
		}
		return ErrOTPInvalid
	}

	return db.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.OTPVerification{}).
			Where("id = ? AND verified = ?", challenge.ID, false)
		if s.maxAttempts > 0 {
			q = q.Where("attempts < ?", s.maxAttempts)
		}
		res := q.UpdateColumn("verified", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrOTPInvalid
		}
		if purpose == models.OTPPurposeEmailVerification {
			return tx.Model(&models.User{}).
				Scopes(tenant.ForProject(projectID)).
				Where("email = ?", email).
				UpdateColumn("email_verified", true).Error
		}
		return nil
	})
}

// spendAttempt counts one wrong guess. The limit is part of the UPDATE so
// concurrent guesses cannot push the counter past it.
func (s *OTPService) spendAttempt(db *gorm.DB, id uint) error {
	q := db.Model(&models.OTPVerification{}).Where("id = ?", id)
	if s.maxAttempts > 0 {
		q = q.Where("attempts < ?", s.maxAttempts)
	}
	res := q.UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && s.maxAttempts > 0 {
		return ErrOTPAttemptsExceeded
	}
	return nil
}

// Send creates a challenge and emails the code.
func (s *OTPService) Send(ctx context.Context, t *tenant.Context, email, purpose string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "A valid email is required")
	}
	code, err := s.Create(ctx, t.ProjectID, email, purpose)
	if err != nil {
		return err
	}
	return s.notifier.SendEmail(ctx, t.ProjectID, nil, otpEmail(t.Name, normalizeEmail(email), code, purpose, s.ttl))
}

func otpEmail(projectName, to, code, purpose string, ttl time.Duration) notify.Email {
	subject := "Verify your email - " + projectName
	intro := "Your one-time code for email verification is:"
	if purpose == models.OTPPurposePasswordReset {
		subject = "Reset your password - " + projectName
		intro = "Your one-time code for resetting your password is:"
	}
	minutes := int(ttl.Minutes())
	return notify.Email{
		To:      to,
		Subject: subject,
		Text:    fmt.Sprintf("%s %s\nThis code expires in %d minutes.", intro, code, minutes),
		HTML: fmt.Sprintf(`<p>%s</p><p style="font-size:28px;letter-spacing:6px"><strong>%s</strong></p><p>This code expires in %d minutes. If you did not request it, ignore this email.</p>`,
			intro, code, minutes),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
