package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
)

func TestGenerateOTP_RejectsBiasedDraws(t *testing.T) {
	r := bytes.NewReader([]byte{
		0xFF, 0xFF, 0xFF, 0xFF, // above the rejection bound, discarded
		0x00, 0x00, 0x00, 0x2A,
	})
	code, err := GenerateOTP(r)
	require.NoError(t, err)
	assert.Equal(t, "000042", code)
}

func TestGenerateOTP_Format(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateOTP(rand.Reader)
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}

	_, err := GenerateOTP(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestOTP_SecondCreateInvalidatesFirst(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	tc := e.project(t, "alpha", `{}`)
	ctx := context.Background()
	e.otp.random = bytes.NewReader([]byte{0, 0, 0, 1, 0, 0, 0, 2})

	first, err := e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposePasswordReset)
	require.NoError(t, err)
	second, err := e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposePasswordReset)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	var live int64
	require.NoError(t, e.db.Model(&models.OTPVerification{}).Where("verified = ?", false).Count(&live).Error)
	assert.Equal(t, int64(1), live)

	err = e.otp.Verify(ctx, tc.ProjectID, "u@x.com", first, models.OTPPurposePasswordReset)
	assert.ErrorIs(t, err, ErrOTPInvalid)

	require.NoError(t, e.otp.Verify(ctx, tc.ProjectID, "u@x.com", second, models.OTPPurposePasswordReset))

	// Verified is terminal; the same code cannot be used twice.
	err = e.otp.Verify(ctx, tc.ProjectID, "u@x.com", second, models.OTPPurposePasswordReset)
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestOTP_PurposesAreIndependent(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	tc := e.project(t, "alpha", `{}`)
	ctx := context.Background()

	reset, err := e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposePasswordReset)
	require.NoError(t, err)
	_, err = e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	assert.NoError(t, e.otp.Verify(ctx, tc.ProjectID, "u@x.com", reset, models.OTPPurposePasswordReset))
}

func TestOTP_Expiry(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	tc := e.project(t, "alpha", `{}`)
	ctx := context.Background()

	now := time.Now()
	e.otp.WithClock(func() time.Time { return now })

	code, err := e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	err = e.otp.Verify(ctx, tc.ProjectID, "u@x.com", code, models.OTPPurposeEmailVerification)
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestOTP_AttemptLimit(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	tc := e.project(t, "alpha", `{}`)
	ctx := context.Background()
	e.otp.random = bytes.NewReader([]byte{0, 0, 0, 7})

	code, err := e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	require.Equal(t, "000007", code)

	for i := 0; i < 5; i++ {
		err := e.otp.Verify(ctx, tc.ProjectID, "u@x.com", "999999", models.OTPPurposeEmailVerification)
		assert.ErrorIs(t, err, ErrOTPInvalid)
	}
	err = e.otp.Verify(ctx, tc.ProjectID, "u@x.com", code, models.OTPPurposeEmailVerification)
	assert.ErrorIs(t, err, ErrOTPAttemptsExceeded)
}

func TestOTP_AttemptCounterStopsAtLimit(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	tc := e.project(t, "alpha", `{}`)
	ctx := context.Background()

	code, err := e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	var challenge models.OTPVerification
	require.NoError(t, e.db.Where("project_id = ?", tc.ProjectID).First(&challenge).Error)

	// A guess that passed the read check before the last slot was taken.
	require.NoError(t, e.db.Model(&challenge).UpdateColumn("attempts", 4).Error)
	require.NoError(t, e.otp.spendAttempt(e.db, challenge.ID))
	assert.ErrorIs(t, e.otp.spendAttempt(e.db, challenge.ID), ErrOTPAttemptsExceeded)

	var stored models.OTPVerification
	require.NoError(t, e.db.First(&stored, challenge.ID).Error)
	assert.Equal(t, 5, stored.Attempts)

	err = e.otp.Verify(ctx, tc.ProjectID, "u@x.com", code, models.OTPPurposeEmailVerification)
	assert.ErrorIs(t, err, ErrOTPAttemptsExceeded)
}

func TestOTP_UnlimitedAttempts(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	tc := e.project(t, "alpha", `{}`)
	ctx := context.Background()
	e.otp.maxAttempts = 0

	code, err := e.otp.Create(ctx, tc.ProjectID, "u@x.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_ = e.otp.Verify(ctx, tc.ProjectID, "u@x.com", "wrong!", models.OTPPurposeEmailVerification)
	}
	assert.NoError(t, e.otp.Verify(ctx, tc.ProjectID, "u@x.com", code, models.OTPPurposeEmailVerification))
}

func TestOTP_EmailVerificationFlipsUserFlag(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	alpha := e.project(t, "alpha", `{}`)
	beta := e.project(t, "beta", `{}`)
	a := e.register(t, alpha, "u@x.com", "secret123")
	b := e.register(t, beta, "u@x.com", "secret123")
	ctx := context.Background()

	require.NoError(t, e.otp.Send(ctx, alpha, "u@x.com", models.OTPPurposeEmailVerification))

	var challenge models.OTPVerification
	require.NoError(t, e.db.Where("project_id = ?", alpha.ProjectID).First(&challenge).Error)
	require.NoError(t, e.otp.Verify(ctx, alpha.ProjectID, "u@x.com", challenge.OTPCode, models.OTPPurposeEmailVerification))

	var verified, untouched models.User
	require.NoError(t, e.db.First(&verified, "id = ?", a.ID).Error)
	assert.True(t, verified.EmailVerified)
	require.NoError(t, e.db.First(&untouched, "id = ?", b.ID).Error)
	assert.False(t, untouched.EmailVerified, "other projects are untouched")

	err := e.otp.Verify(ctx, alpha.ProjectID, "u@x.com", challenge.OTPCode, models.OTPPurposeEmailVerification)
	assert.ErrorIs(t, err, ErrOTPInvalid, "a verified code cannot be replayed")
}

func TestOTP_ChallengesAreProjectScoped(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	alpha := e.project(t, "alpha", `{}`)
	beta := e.project(t, "beta", `{}`)
	ctx := context.Background()

	code, err := e.otp.Create(ctx, alpha.ProjectID, "u@x.com", models.OTPPurposePasswordReset)
	require.NoError(t, err)

	err = e.otp.Verify(ctx, beta.ProjectID, "u@x.com", code, models.OTPPurposePasswordReset)
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestOTP_UnknownPurpose(t *testing.T) {
	e := newEnv(t, AuthOptions{})
	tc := e.project(t, "alpha", `{}`)

	_, err := e.otp.Create(context.Background(), tc.ProjectID, "u@x.com", "login")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
