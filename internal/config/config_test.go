package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "closing.db", cfg.Store.Path)
	assert.Equal(t, "https://brasilapi.com.br/api/cnpj/v1", cfg.Registry.BaseURL)
	assert.Equal(t, 3, cfg.Enrich.DelaySecs)
	assert.Equal(t, 60, cfg.Enrich.BackoffSecs)
	assert.Equal(t, "artifacts", cfg.Model.ArtifactDir)
	assert.Equal(t, 100, cfg.Model.NEstimators)
	assert.InDelta(t, 0.1, cfg.Model.LearningRate, 0.001)
	assert.Equal(t, 3, cfg.Model.MaxDepth)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/closing
log:
  level: debug
  format: console
server:
  port: 9090
enrich:
  delay_secs: 1
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/closing", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Enrich.DelaySecs)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.Enrich.BackoffSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CLOSING_STORE_DRIVER", "postgres")
	t.Setenv("CLOSING_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CLOSING_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config populated like Load with no overrides.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "closing.db"
	cfg.Registry.BaseURL = "https://brasilapi.com.br/api/cnpj/v1"
	cfg.Enrich.DelaySecs = 3
	cfg.Enrich.BackoffSecs = 60
	cfg.Model.ArtifactDir = "artifacts"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateTrain(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("train"))

	cfg.Model.ArtifactDir = ""
	err := cfg.Validate("train")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.artifact_dir is required")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.Driver = "postgres"
	err := cfg.Validate("train")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/closing"
	assert.NoError(t, cfg.Validate("train"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("train")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateExport_RequiresNotion(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.token is required")
	assert.Contains(t, err.Error(), "notion.prediction_db is required")

	cfg.Notion.Token = "ntn_token"
	cfg.Notion.PredictionDB = "db-id"
	assert.NoError(t, cfg.Validate("export"))
}

func TestValidateAssistant_RequiresKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("assistant")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
