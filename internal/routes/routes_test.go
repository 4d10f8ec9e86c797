package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/auth"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/notify"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/registry"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/routes"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/services"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
)

const (
	operatorEmail = "root@saturn.io"
	password      = "correct-horse-1"
)

type server struct {
	app *fiber.App
	db  *gorm.DB
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := dbtest.Open(t)

	catalog, err := registry.Default()
	require.NoError(t, err)
	require.NoError(t, registry.Sync(context.Background(), db, catalog))

	resolver := tenant.NewResolver(tenant.NewGormStore(db))
	issuer := auth.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
	m := metrics.New(prometheus.NewRegistry())

	notifier := services.NewNotifyService(db, notify.LogSender{}, notify.Unconfigured{}, time.Second)
	otp := services.NewOTPService(db, notifier, 10*time.Minute, 5)
	analytics := services.NewAnalyticsService(db)
	audit := services.NewAuditService(db)
	settings := services.NewSettingsService(db, audit)
	authService, err := services.NewAuthService(db, issuer, otp, analytics, settings, services.AuthOptions{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	routes.Setup(app, routes.Deps{
		Catalog:          catalog,
		Gate:             middleware.NewGate(catalog, ratelimit.New(time.Minute), m),
		Tenants:          resolver,
		Origins:          resolver,
		DashboardOrigins: []string{"http://localhost:5173"},
		Session:          middleware.RequireSession(issuer),
		Admin:            middleware.RequireAdmin(db, []string{operatorEmail}),
		Metrics:          m,
	}, routes.Handlers{
		Health:       handlers.NewHealthHandler(db, catalog),
		Auth:         handlers.NewAuthHandler(authService, handlers.CookieConfig{Secure: true, SameSite: "Lax"}, m),
		OTP:          handlers.NewOTPHandler(otp),
		User:         handlers.NewUserHandler(services.NewUserService(db)),
		Notify:       handlers.NewNotifyHandler(notifier),
		Admin:        handlers.NewAdminHandler(services.NewAdminService(db, audit, resolver), settings),
		Integrations: handlers.NewIntegrationsHandler(services.NewProjectService(db, audit, resolver)),
		System:       handlers.NewSystemHandler(services.NewSystemService(db), analytics, catalog),
	})
	return &server{app: app, db: db}
}

func (s *server) project(t *testing.T, name string, origins ...string) *models.Project {
	t.Helper()
	return s.createProject(t, name, tenant.ProjectConfig{Version: tenant.CurrentConfigVersion, AllowedOrigins: origins})
}

func (s *server) platformProject(t *testing.T, name string) *models.Project {
	t.Helper()
	return s.createProject(t, name, tenant.ProjectConfig{Version: tenant.CurrentConfigVersion, IsPlatform: true})
}

func (s *server) createProject(t *testing.T, name string, config tenant.ProjectConfig) *models.Project {
	t.Helper()
	cfg, err := json.Marshal(config)
	require.NoError(t, err)
	p := &models.Project{
		Name:   name,
		APIKey: "sat_live_" + uuid.NewString(),
		Config: datatypes.JSON(cfg),
	}
	require.NoError(t, s.db.Create(p).Error)
	return p
}

type call struct {
	method  string
	path    string
	apiKey  string
	body    any
	cookies []*http.Cookie
	origin  string
}

type reply struct {
	status  int
	cookies map[string]*http.Cookie
	header  http.Header
	env     struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Kind    string         `json:"kind"`
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
}

func (s *server) do(t *testing.T, c call) reply {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, c.apiKey)
	}
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := reply{status: resp.StatusCode, header: resp.Header, cookies: map[string]*http.Cookie{}}
	for _, ck := range resp.Cookies() {
		r.cookies[ck.Name] = ck
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(raw, &r.env), string(raw))
	}
	return r
}

func (s *server) signup(t *testing.T, p *models.Project, email string) []*http.Cookie {
	t.Helper()
	r := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", apiKey: p.APIKey,
		body: map[string]string{"email": email, "password": password}})
	require.Equal(t, http.StatusCreated, r.status)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", apiKey: p.APIKey,
		body: map[string]string{"email": email, "password": password}})
	require.Equal(t, http.StatusOK, r.status)
	require.Contains(t, r.cookies, middleware.AccessCookie)
	require.Contains(t, r.cookies, middleware.RefreshCookie)
	return []*http.Cookie{r.cookies[middleware.AccessCookie], r.cookies[middleware.RefreshCookie]}
}

func (s *server) promote(t *testing.T, p *models.Project, email string) {
	t.Helper()
	res := s.db.Model(&models.User{}).
		Where("project_id = ? AND email = ?", p.ID, email).
		Update("role", models.RoleAdmin)
	require.NoError(t, res.Error)
	require.EqualValues(t, 1, res.RowsAffected)
}

func TestHealthNeedsNoKey(t *testing.T) {
	s := newServer(t)
	r := s.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, r.status)
}

func TestLoginSetsHTTPOnlyCookies(t *testing.T) {
	s := newServer(t)
	p := s.project(t, "alpha")

	r := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", apiKey: p.APIKey,
		body: map[string]string{"email": "ada@alpha.io", "password": password}})
	require.Equal(t, http.StatusCreated, r.status)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", apiKey: p.APIKey,
		body: map[string]string{"email": "ada@alpha.io", "password": password}})
	require.Equal(t, http.StatusOK, r.status)
	for _, name := range []string{middleware.AccessCookie, middleware.RefreshCookie} {
		ck := r.cookies[name]
		require.NotNil(t, ck, name)
		assert.True(t, ck.HttpOnly, name)
		assert.True(t, ck.Secure, name)
		assert.NotEmpty(t, ck.Value, name)
	}
	assert.NotContains(t, string(r.env.Data), "refresh_token")

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/login", apiKey: p.APIKey,
		body: map[string]string{"email": "ada@alpha.io", "password": "wrong-password"}})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Empty(t, r.cookies)
}

func TestSessionLifecycle(t *testing.T) {
	s := newServer(t)
	p := s.project(t, "alpha")
	cookies := s.signup(t, p, "ada@alpha.io")
	access, refresh := cookies[0], cookies[1]

	r := s.do(t, call{method: http.MethodGet, path: "/api/auth/session", apiKey: p.APIKey, cookies: cookies})
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, string(r.env.Data), `"authenticated":true`)
	assert.Empty(t, r.cookies, "a valid access token needs no new cookies")

	// Without the access cookie the session is restored from the refresh cookie.
	r = s.do(t, call{method: http.MethodGet, path: "/api/auth/session", apiKey: p.APIKey, cookies: []*http.Cookie{refresh}})
	require.Equal(t, http.StatusOK, r.status)
	require.Contains(t, r.cookies, middleware.AccessCookie)
	assert.NotEmpty(t, r.cookies[middleware.AccessCookie].Value)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", apiKey: p.APIKey, cookies: []*http.Cookie{refresh}})
	require.Equal(t, http.StatusOK, r.status)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout", apiKey: p.APIKey, cookies: []*http.Cookie{access, refresh}})
	require.Equal(t, http.StatusOK, r.status)
	assert.Empty(t, r.cookies[middleware.AccessCookie].Value)
	assert.Empty(t, r.cookies[middleware.RefreshCookie].Value)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", apiKey: p.APIKey, cookies: []*http.Cookie{refresh}})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "SESSION_REQUIRED", r.env.Error.Code)
	assert.Equal(t, "No active session", r.env.Message)

	r = s.do(t, call{method: http.MethodGet, path: "/api/auth/session", apiKey: p.APIKey, cookies: []*http.Cookie{refresh}})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	require.Contains(t, r.cookies, middleware.RefreshCookie)
	assert.Empty(t, r.cookies[middleware.RefreshCookie].Value)
}

func TestSessionIsBoundToProject(t *testing.T) {
	s := newServer(t)
	alpha, beta := s.project(t, "alpha"), s.project(t, "beta")
	cookies := s.signup(t, alpha, "ada@alpha.io")

	r := s.do(t, call{method: http.MethodGet, path: "/api/auth/session", apiKey: beta.APIKey, cookies: cookies})
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout", apiKey: beta.APIKey, cookies: cookies})
	assert.Equal(t, http.StatusUnauthorized, r.status)
}

func TestLogoutRequiresSession(t *testing.T) {
	s := newServer(t)
	p := s.project(t, "alpha")
	r := s.do(t, call{method: http.MethodPost, path: "/api/auth/logout", apiKey: p.APIKey})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "SESSION_REQUIRED", r.env.Error.Code)
}

func TestAdminTogglesFunctionOverHTTP(t *testing.T) {
	s := newServer(t)
	p := s.project(t, "alpha")
	owner := s.signup(t, p, "boss@alpha.io")
	member := s.signup(t, p, "member@alpha.io")
	s.promote(t, p, "boss@alpha.io")

	path := "/api/admin/projects/" + p.ID.String() + "/functions/auth.register"
	off := map[string]any{"is_enabled": false}

	r := s.do(t, call{method: http.MethodPatch, path: path, apiKey: p.APIKey, cookies: member, body: off})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "ADMIN_REQUIRED", r.env.Error.Code)

	r = s.do(t, call{method: http.MethodPatch, path: path, apiKey: p.APIKey, cookies: owner, body: off})
	require.Equal(t, http.StatusOK, r.status)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/register", apiKey: p.APIKey,
		body: map[string]string{"email": "late@alpha.io", "password": password}})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "FUNCTION_DISABLED", r.env.Error.Code)
	assert.Equal(t, "Function auth.register is disabled for project alpha", r.env.Message)

	other := s.project(t, "beta")
	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/register", apiKey: other.APIKey,
		body: map[string]string{"email": "late@beta.io", "password": password}})
	assert.Equal(t, http.StatusCreated, r.status, "overrides are per project")

	r = s.do(t, call{method: http.MethodPatch, path: path, apiKey: p.APIKey, cookies: owner, body: map[string]any{"is_enabled": true}})
	require.Equal(t, http.StatusOK, r.status)

	r = s.do(t, call{method: http.MethodPost, path: "/api/auth/register", apiKey: p.APIKey,
		body: map[string]string{"email": "late@alpha.io", "password": password}})
	assert.Equal(t, http.StatusCreated, r.status)
}

func TestCORSFollowsProjectOrigins(t *testing.T) {
	s := newServer(t)
	p := s.project(t, "alpha", "https://app.alpha.io")

	r := s.do(t, call{method: http.MethodOptions, path: "/api/auth/login", apiKey: p.APIKey, origin: "https://app.alpha.io"})
	assert.Equal(t, http.StatusNoContent, r.status)
	assert.Equal(t, "https://app.alpha.io", r.header.Get("Access-Control-Allow-Origin"))

	// Browsers send preflights without custom headers.
	r = s.do(t, call{method: http.MethodOptions, path: "/api/auth/login", origin: "https://app.alpha.io"})
	assert.Equal(t, http.StatusNoContent, r.status)

	r = s.do(t, call{method: http.MethodOptions, path: "/api/auth/login", origin: "https://evil.io"})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Empty(t, r.header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownAPIKey(t *testing.T) {
	s := newServer(t)
	r := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", apiKey: "sat_live_nope",
		body: map[string]string{"email": "a@b.io", "password": password}})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "invalid_credential", r.env.Error.Kind)
}

func TestOperatorEmailDoesNotGrantTenantAdmin(t *testing.T) {
	s := newServer(t)
	beta := s.project(t, "beta")
	s.signup(t, beta, "customer@beta.io")
	squatter := s.signup(t, beta, operatorEmail)

	r := s.do(t, call{method: http.MethodGet, path: "/api/admin/users", apiKey: beta.APIKey, cookies: squatter})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "ADMIN_REQUIRED", r.env.Error.Code)
	assert.NotContains(t, string(r.env.Data), "customer@beta.io")
}

func TestOperatorEmailOnPlatformRequiresVerification(t *testing.T) {
	s := newServer(t)
	platform := s.platformProject(t, "saturn")
	s.project(t, "alpha")
	operator := s.signup(t, platform, operatorEmail)

	r := s.do(t, call{method: http.MethodGet, path: "/api/integrations", apiKey: platform.APIKey, cookies: operator})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "ADMIN_REQUIRED", r.env.Error.Code)

	r = s.do(t, call{method: http.MethodPost, path: "/api/otp/send", apiKey: platform.APIKey,
		body: map[string]string{"email": operatorEmail}})
	require.Equal(t, http.StatusOK, r.status)
	var challenge models.OTPVerification
	require.NoError(t, s.db.Where("project_id = ? AND email = ?", platform.ID, operatorEmail).First(&challenge).Error)

	r = s.do(t, call{method: http.MethodPost, path: "/api/otp/verify", apiKey: platform.APIKey,
		body: map[string]string{"email": operatorEmail, "otp": challenge.OTPCode}})
	require.Equal(t, http.StatusOK, r.status)

	r = s.do(t, call{method: http.MethodGet, path: "/api/integrations", apiKey: platform.APIKey, cookies: operator})
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, string(r.env.Data), "alpha")
}
