package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotifyService sends through the configured providers under a bounded
// timeout and logs every attempt.
type NotifyService struct {
	db      *gorm.DB
	email   notify.EmailSender
	push    notify.PushSender
	timeout time.Duration
	now     func() time.Time
}

func NewNotifyService(db *gorm.DB, email notify.EmailSender, push notify.PushSender, timeout time.Duration) *NotifyService {
	return &NotifyService{db: db, email: email, push: push, timeout: timeout, now: time.Now}
}

// SendEmail returns an error wrapping ErrNotificationFailed when the provider
// fails or times out.
func (s *NotifyService) SendEmail(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID, msg notify.Email) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return invalid("to", "A valid recipient email is required")
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.email.SendEmail(sendCtx, msg)

	s.log(ctx, projectID, userID, models.NotificationEmail, map[string]any{"to": msg.To, "subject": msg.Subject}, err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return nil
}

func (s *NotifyService) SendPush(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID, msg notify.Push) error {
	if strings.TrimSpace(msg.Token) == "" {
		return invalid("token", "Device token is required")
	}
	if strings.TrimSpace(msg.Title) == "" {
		return invalid("title", "Title is required")
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.push.SendPush(sendCtx, msg)

	s.log(ctx, projectID, userID, models.NotificationPush, map[string]any{"title": msg.Title, "body": msg.Body}, err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return nil
}

// Subscribe stores a device token for the user. Re-subscribing the same
// token is a no-op.
func (s *NotifyService) Subscribe(ctx context.Context, userID uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalid("token", "Device token is required")
	}

	var existing models.AuthToken
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND token = ?", userID, models.AuthTokenTypeFCM, token).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.db.WithContext(ctx).Create(&models.AuthToken{
		UserID: userID,
		Token:  token,
		Type:   models.AuthTokenTypeFCM,
	}).Error
}

func (s *NotifyService) log(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID, kind string, payload map[string]any, sendErr error) {
	entry := models.Notification{
		ProjectID: &projectID,
		UserID:    userID,
		Type:      kind,
		Status:    models.NotificationSent,
		Payload:   encodeMeta(payload),
		Timestamp: s.now(),
	}
	if sendErr != nil {
		entry.Status = models.NotificationFailed
		entry.Error = sendErr.Error()
		slog.Error("notification delivery failed", "project_id", projectID.String(), "type", kind, "error", sendErr)
	}
	// The request may already be cancelled; the log row is still wanted.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; err != nil {
		slog.Warn("failed to write notification log", "type", kind, "error", err)
	}
}
