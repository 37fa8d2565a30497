package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("MONGO_URI", "mongodb://db:27017/crm")
	t.Setenv("FRONTEND_ORIGIN", "https://example.com, https://www.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "crm", cfg.MongoDB)
	assert.Equal(t, LeadStoreMongo, cfg.LeadStore)
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.FrontendOrigins)
	assert.Equal(t, 8*time.Second, cfg.LeadSubmitTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow())
}

func TestLoadRejectsUnknownLeadStore(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("LEAD_STORE", "postgres")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("LOG_LEVEL", "chatty")
	_, err := Load()
	assert.Error(t, err)
}

func TestMongoDBFromURI(t *testing.T) {
	assert.Equal(t, "leads", mongoDBFromURI("mongodb://localhost:27017/leads"))
	assert.Equal(t, "a", mongoDBFromURI("mongodb://localhost:27017/a/b"))
	assert.Equal(t, "", mongoDBFromURI("mongodb://localhost:27017"))
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nTAXS_A=from-file\nTAXS_B=\"quoted\"\n"), 0o600))
	t.Setenv("TAXS_A", "from-env")
	t.Setenv("TAXS_B", "")
	require.NoError(t, os.Unsetenv("TAXS_B"))

	loadDotEnv(path)
	t.Cleanup(func() { os.Unsetenv("TAXS_B") })

	assert.Equal(t, "from-env", os.Getenv("TAXS_A"))
	assert.Equal(t, "quoted", os.Getenv("TAXS_B"))
}
