package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	GRPC      GRPCConfig
	Worker    WorkerConfig
	Upstream  UpstreamConfig
	AssetHost AssetHostConfig
	SignUp    SignUpConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	RateLimitRPS  int
	CORSOrigins   []string
	MaxUploadSize int64
}

type GRPCConfig struct {
	Port int
}

// WorkerConfig sizes the image upload pool.
type WorkerConfig struct {
	Count      int
	BufferSize int
}

type UpstreamConfig struct {
	ReportsURL string
	SignUpURL  string
	Timeout    time.Duration
}

// AssetHostConfig carries the image host account. Never hard-code these.
type AssetHostConfig struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
}

func (a AssetHostConfig) Enabled() bool {
	return a.CloudName != "" && a.UploadPreset != ""
}

type SignUpConfig struct {
	RedirectPath  string
	RedirectDelay time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:  getEnvInt("RATE_LIMIT_RPS", 5),
			CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"*"}),
			MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Upstream: UpstreamConfig{
			ReportsURL: getEnv("REPORTS_URL", "http://localhost:4000/api/reports"),
			SignUpURL:  getEnv("SIGNUP_URL", "http://localhost:4000/api/auth/signup"),
			Timeout:    getEnvDuration("HTTP_CLIENT_TIMEOUT", 15*time.Second),
		},
		AssetHost: AssetHostConfig{
			BaseURL:      getEnv("ASSET_HOST_BASE_URL", "https://api.cloudinary.com/v1_1"),
			CloudName:    os.Getenv("ASSET_HOST_CLOUD_NAME"),
			UploadPreset: os.Getenv("ASSET_HOST_UPLOAD_PRESET"),
		},
		SignUp: SignUpConfig{
			RedirectPath:  getEnv("SIGNUP_REDIRECT_PATH", "/"),
			RedirectDelay: getEnvDuration("SIGNUP_REDIRECT_DELAY", time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/disaster-feed.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPC.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if c.Server.MaxUploadSize < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("WORKER_BUFFER_SIZE must not be negative")
	}

	for name, raw := range map[string]string{
		"REPORTS_URL":         c.Upstream.ReportsURL,
		"SIGNUP_URL":          c.Upstream.SignUpURL,
		"ASSET_HOST_BASE_URL": c.AssetHost.BaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("HTTP_CLIENT_TIMEOUT must be positive")
	}

	if (c.AssetHost.CloudName == "") != (c.AssetHost.UploadPreset == "") {
		return fmt.Errorf("ASSET_HOST_CLOUD_NAME and ASSET_HOST_UPLOAD_PRESET must be set together")
	}

	if !strings.HasPrefix(c.SignUp.RedirectPath, "/") || strings.HasPrefix(c.SignUp.RedirectPath, "//") {
		return fmt.Errorf("SIGNUP_REDIRECT_PATH must be a local path: %q", c.SignUp.RedirectPath)
	}
	if c.SignUp.RedirectDelay < 0 {
		return fmt.Errorf("SIGNUP_REDIRECT_DELAY must not be negative")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
