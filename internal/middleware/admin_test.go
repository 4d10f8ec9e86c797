package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
)

const operatorEmail = "root@saturn.io"

type adminFixture struct {
	db     *gorm.DB
	issuer *auth.Issuer
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	return &adminFixture{
		db:     dbtest.Open(t),
		issuer: auth.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour),
	}
}

func (f *adminFixture) project(t *testing.T, name string, platform bool) *tenant.Context {
	t.Helper()
	cfg := `{"is_platform":false}`
	if platform {
		cfg = `{"is_platform":true}`
	}
	p := &models.Project{Name: name, APIKey: "sat_live_" + name, Config: datatypes.JSON(cfg)}
	require.NoError(t, f.db.Create(p).Error)

	tc := project(name)
	tc.ProjectID = p.ID
	tc.Config.IsPlatform = platform
	return tc
}

func (f *adminFixture) user(t *testing.T, tc *tenant.Context, email, role string, verified bool) *models.User {
	t.Helper()
	u := &models.User{
		ProjectID:     tc.ProjectID,
		Email:         email,
		PasswordHash:  "unused",
		Role:          role,
		EmailVerified: verified,
		Metadata:      datatypes.JSON(`{}`),
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

// call presents a token for u whose role claim is tokenRole.
func (f *adminFixture) call(t *testing.T, tc *tenant.Context, u *models.User, tokenRole string) *http.Response {
	t.Helper()
	app := newApp()
	app.Use(func(c *fiber.Ctx) error {
		tenant.Set(c, tc)
		return c.Next()
	})
	app.Get("/admin", middleware.RequireSession(f.issuer), middleware.RequireAdmin(f.db, []string{operatorEmail}), ok)

	token, _, err := f.issuer.IssueAccess(auth.Subject{UserID: u.ID, Email: u.Email, Role: tokenRole, ProjectID: tc.ProjectID})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRequireAdmin_StoredRole(t *testing.T) {
	f := newAdminFixture(t)
	tc := f.project(t, "alpha", false)

	admin := f.user(t, tc, "boss@alpha.io", models.RoleAdmin, false)
	assert.Equal(t, http.StatusOK, f.call(t, tc, admin, models.RoleAdmin).StatusCode)

	member := f.user(t, tc, "member@alpha.io", models.RoleUser, true)
	resp := f.call(t, tc, member, models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "the role claim is not trusted")
	assert.Equal(t, "ADMIN_REQUIRED", decode(t, resp).Error.Code)
}

func TestRequireAdmin_OperatorEmail(t *testing.T) {
	f := newAdminFixture(t)
	platform := f.project(t, "saturn", true)
	beta := f.project(t, "beta", false)
	gamma := f.project(t, "gamma", true)

	tests := []struct {
		name   string
		tc     *tenant.Context
		verify bool
		status int
	}{
		{"tenant project", beta, true, http.StatusForbidden},
		{"platform unverified", platform, false, http.StatusForbidden},
		{"platform verified", gamma, true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := f.user(t, tt.tc, operatorEmail, models.RoleUser, tt.verify)
			assert.Equal(t, tt.status, f.call(t, tt.tc, u, models.RoleUser).StatusCode)
		})
	}
}

func TestRequireAdmin_StoreFailureIsInternal(t *testing.T) {
	f := newAdminFixture(t)
	tc := f.project(t, "alpha", false)
	admin := f.user(t, tc, "boss@alpha.io", models.RoleAdmin, true)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp := f.call(t, tc, admin, models.RoleAdmin)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal", decode(t, resp).Error.Kind)
}
