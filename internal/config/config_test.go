package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLoadDefaults デフォルト値
func TestLoadDefaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("DB_PORT", "")

	cfg, err := Load()
	req.NoError(err)

	req.Equal("8080", cfg.ServerPort)
	req.Equal("development", cfg.Env)
	req.False(cfg.UsesSQL())
	req.Equal("3306", cfg.DBPort)
	req.Equal(5*time.Second, cfg.DBQueryTimeout)
	req.Equal(10000, cfg.DedupCacheSize)
	req.Equal([]string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
}

// TestLoadTrimsOrigins ALLOWED_ORIGINS の分割
func TestLoadTrimsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " http://a.example , ,http://b.example ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

// TestLoadPostgresDefaults postgres のデフォルトポート
func TestLoadPostgresDefaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("DB_DRIVER", "PostgreSQL")
	t.Setenv("DB_PORT", "")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(DriverPostgres, cfg.DBDriver)
	req.Equal("5432", cfg.DBPort)
	req.True(cfg.UsesSQL())
}

// TestLoadRejectsUnknownDriver 未対応ドライバー
func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

// TestLoadOverrides 環境変数による上書き
func TestLoadOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("WS_PONG_WAIT", "15s")
	t.Setenv("PUBLIC_BASE_URL", "https://cdn.example/")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(15*time.Second, cfg.WSPongWait)
	req.Equal("https://cdn.example", cfg.PublicBaseURL)
}

// TestDefaultJWTSecret 組み込みシークレットの検出
func TestDefaultJWTSecret(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "")
	req.NoError(os.Unsetenv("JWT_SECRET"))
	t.Setenv("ENV", "production")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(DefaultJWTSecret, cfg.JWTSecret)
	req.True(cfg.UsesDefaultJWTSecret())
	req.False(cfg.IsDevelopment())

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err = Load()
	req.NoError(err)
	req.False(cfg.UsesDefaultJWTSecret())

	req.True(Config{Env: "Development"}.IsDevelopment())
}
