package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.RateLimitRPS)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, 50051, cfg.GRPC.Port)
	assert.Equal(t, 2, cfg.Worker.Count)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "https://api.cloudinary.com/v1_1", cfg.AssetHost.BaseURL)
	assert.False(t, cfg.AssetHost.Enabled())
	assert.Equal(t, "/", cfg.SignUp.RedirectPath)
	assert.Equal(t, time.Second, cfg.SignUp.RedirectDelay)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REPORTS_URL", "https://feed.example.com/api/reports")
	t.Setenv("SIGNUP_URL", "https://feed.example.com/api/signup")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "3s")
	t.Setenv("ASSET_HOST_CLOUD_NAME", "demo-cloud")
	t.Setenv("ASSET_HOST_UPLOAD_PRESET", "unsigned-preset")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SIGNUP_REDIRECT_DELAY", "2s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://feed.example.com/api/reports", cfg.Upstream.ReportsURL)
	assert.Equal(t, "https://feed.example.com/api/signup", cfg.Upstream.SignUpURL)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.AssetHost.Enabled())
	assert.Equal(t, "demo-cloud", cfg.AssetHost.CloudName)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2*time.Second, cfg.SignUp.RedirectDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"relative reports url", "REPORTS_URL", "/api/reports"},
		{"external redirect", "SIGNUP_REDIRECT_PATH", "https://evil.example.com"},
		{"zero workers", "WORKER_COUNT", "0"},
		{"preset without cloud", "ASSET_HOST_UPLOAD_PRESET", "preset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
