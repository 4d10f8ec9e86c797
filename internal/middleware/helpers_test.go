package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saturn-platform/internal/tenant"
)

type fakeResolver map[string]*tenant.Context

func (f fakeResolver) Resolve(_ context.Context, key string) (*tenant.Context, error) {
	if t, ok := f[key]; ok {
		return t, nil
	}
	return nil, tenant.ErrProjectNotFound
}

type fakeOrigins map[string]bool

func (f fakeOrigins) OriginAllowedAnywhere(_ context.Context, origin string) (bool, error) {
	return f[origin], nil
}

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
}

func project(name string, origins ...string) *tenant.Context {
	return &tenant.Context{
		ProjectID: uuid.New(),
		Name:      name,
		Config:    tenant.ProjectConfig{Version: tenant.CurrentConfigVersion, AllowedOrigins: origins},
		Functions: map[string]tenant.FunctionState{},
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   *struct {
		Kind    string         `json:"kind"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func ok(c *fiber.Ctx) error { return c.SendString("ok") }
