package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/notify"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/registry"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []notify.Email
	err  error
}

func (m *captureMailer) SendEmail(_ context.Context, msg notify.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, apiKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, apiKey)
}

type testEnv struct {
	db          *gorm.DB
	resolver    *tenant.Resolver
	issuer      *auth.Issuer
	mailer      *captureMailer
	invalidator *recordingInvalidator
	notifier    *NotifyService
	otp         *OTPService
	analytics   *AnalyticsService
	audit       *AuditService
	settings    *SettingsService
	auth        *AuthService
	admin       *AdminService
	projects    *ProjectService
}

func newEnv(t *testing.T, opts AuthOptions) *testEnv {
	t.Helper()
	db := dbtest.Open(t)

	catalog, err := registry.Default()
	require.NoError(t, err)
	require.NoError(t, registry.Sync(context.Background(), db, catalog))

	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}

	e := &testEnv{
		db:          db,
		resolver:    tenant.NewResolver(tenant.NewGormStore(db)),
		issuer:      auth.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour),
		mailer:      &captureMailer{},
		invalidator: &recordingInvalidator{},
	}
	e.notifier = NewNotifyService(db, e.mailer, notify.Unconfigured{}, time.Second)
	e.otp = NewOTPService(db, e.notifier, 10*time.Minute, 5)
	e.analytics = NewAnalyticsService(db)
	e.audit = NewAuditService(db)
	e.settings = NewSettingsService(db, e.audit)
	e.auth, err = NewAuthService(db, e.issuer, e.otp, e.analytics, e.settings, opts)
	require.NoError(t, err)
	e.admin = NewAdminService(db, e.audit, e.invalidator)
	e.projects = NewProjectService(db, e.audit, e.invalidator)
	return e
}

func (e *testEnv) project(t *testing.T, name, config string) *tenant.Context {
	t.Helper()
	p := &models.Project{
		Name:   name,
		APIKey: "sat_live_" + uuid.NewString(),
		Config: datatypes.JSON(config),
	}
	require.NoError(t, e.db.Create(p).Error)
	tc, err := e.resolver.Resolve(context.Background(), p.APIKey)
	require.NoError(t, err)
	return tc
}

func (e *testEnv) register(t *testing.T, tc *tenant.Context, email, password string) *models.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), tc, &dto.RegisterRequest{Email: email, Password: password})
	require.NoError(t, err)
	return user
}
