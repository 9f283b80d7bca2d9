package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pagpeter/obsidian-extensions/internal/bootstrap"
	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/serverutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, token string) *Server {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{
			LogFilePath:        filepath.Join(t.TempDir(), "app.log"),
			CorsAllowedOrigins: "app://obsidian.md",
			APIToken:           token,
		},
		Anki:     config.AnkiConfig{ConnectURL: "http://127.0.0.1:1"},
		Sokrates: config.SokratesConfig{Endpoint: "http://127.0.0.1:1/api/evaluateSubmission"},
	}
	c := bootstrap.NewContainer(context.Background(), nil, cfg, logger.NewNopLogger(), nil)
	t.Cleanup(c.Close)
	return New(cfg, c)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := srv.GetApp().Test(httptest.NewRequest("GET", "/api/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body serverutils.BaseResponse[map[string]interface{}]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body.Data["copilot"])
}

func TestCopilotRoutesAbsentWithoutKey(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := srv.GetApp().Test(httptest.NewRequest("GET", "/api/copilot/v1/status", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestSokratesWithoutTokenIsUnauthorized(t *testing.T) {
	srv := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/api/sokrates/v1/evaluate", strings.NewReader(`{"submission":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestGuardedRoutes(t *testing.T) {
	srv := newTestServer(t, "secret")

	req := httptest.NewRequest("GET", "/api/sokrates/v1/feedback", nil)
	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/sokrates/v1/feedback", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAddrDefaultsToLoopback(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		want     string
		loopback bool
	}{
		{"default", "127.0.0.1", "127.0.0.1:3000", true},
		{"empty host", "", "127.0.0.1:3000", true},
		{"localhost", "localhost", "localhost:3000", true},
		{"ipv6 loopback", "::1", "[::1]:3000", true},
		{"all interfaces", "0.0.0.0", "0.0.0.0:3000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &Server{cfg: &config.Config{App: config.AppConfig{Host: tt.host, Port: "3000"}}}
			assert.Equal(t, tt.want, srv.Addr())
			assert.Equal(t, tt.loopback, isLoopback(srv.Addr()))
		})
	}
}

func TestLoadedConfigBindsLoopback(t *testing.T) {
	t.Setenv("APP_PORT", "4000")
	t.Setenv("APP_HOST", "")
	srv := &Server{cfg: config.Load()}
	assert.Equal(t, "127.0.0.1:4000", srv.Addr())
}
