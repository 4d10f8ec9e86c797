// Package notify delivers email and push messages through external providers.
package notify

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by senders with no provider credentials.
var ErrNotConfigured = errors.New("notification provider not configured")

type Email struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Push struct {
	Token string
	Title string
	Body  string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg Email) error
}

type PushSender interface {
	SendPush(ctx context.Context, msg Push) error
}
