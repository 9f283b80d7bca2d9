package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{LogFilePath: filepath.Join(t.TempDir(), "app.log")},
		Gemini: config.GeminiConfig{
			Model:    "gemini-test",
			CacheTTL: time.Hour,
		},
		Anki:     config.AnkiConfig{ConnectURL: "http://127.0.0.1:1", ModelName: "Basic", ExportTag: "obsidian-export"},
		Sokrates: config.SokratesConfig{Endpoint: "http://127.0.0.1:1/api/evaluateSubmission"},
	}
}

func TestNewContainerWithoutOptionalInfrastructure(t *testing.T) {
	c := NewContainer(context.Background(), nil, testConfig(t), logger.NewNopLogger(), nil)
	defer c.Close()

	assert.Nil(t, c.CopilotService)
	assert.Nil(t, c.CopilotController)
	require.NotNil(t, c.AnkiService)
	require.NotNil(t, c.SokratesService)
	assert.NotNil(t, c.AnkiController)
	assert.NotNil(t, c.SokratesController)
	assert.NotNil(t, c.NoticeHandler)
	assert.NotNil(t, c.WebSocketHub)

	// In-memory history is wired when no database is given.
	history, err := c.SokratesService.History(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Zero(t, history.Total)

	// Without a token the Sokrates call fails before any request is made.
	_, err = c.SokratesService.Evaluate(context.Background(), &dto.SokratesEvaluateRequest{Submission: "x"})
	assert.Error(t, err)
}

func TestNewContainerWithGeminiKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Gemini.APIKey = "test-key"

	c := NewContainer(context.Background(), nil, cfg, logger.NewNopLogger(), nil)
	defer c.Close()

	require.NotNil(t, c.CopilotService)
	assert.NotNil(t, c.CopilotController)
	status := c.CopilotService.Status(context.Background())
	assert.Equal(t, "gemini-test", status.Model)
	assert.False(t, status.Bound)
}
