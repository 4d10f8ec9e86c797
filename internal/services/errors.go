package services

import "errors"

var (
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrRegistrationClosed  = errors.New("registration is disabled for this project")
	ErrSessionRevoked      = errors.New("session has been revoked")
	ErrSessionWrongProject = errors.New("session belongs to another project")
	ErrOTPInvalid          = errors.New("invalid or expired OTP")
	ErrOTPAttemptsExceeded = errors.New("too many OTP attempts")
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectExists       = errors.New("project name already exists")
	ErrFunctionNotFound    = errors.New("function not found")
	ErrNotificationFailed  = errors.New("notification delivery failed")
	ErrForeignProject      = errors.New("admins may only manage their own project")
)

// ValidationError carries a client-facing message for malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
