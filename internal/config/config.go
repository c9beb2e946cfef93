package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
)

const defaultAllowedOrigins = "http://localhost:3000,http://127.0.0.1:3000"

// DefaultJWTSecret is the JWT_SECRET tag default. Keep the two in sync.
const DefaultJWTSecret = "dev-only-change-me-socialhub-secret"

// EnvDevelopment is the ENV value for local runs.
const EnvDevelopment = "development"

// Supported relational drivers. An empty driver selects the embedded store.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	// データベース接続設定
	DBDriver       string        `env:"DB_DRIVER"`
	DBHost         string        `env:"DB_HOST,default=localhost"`
	DBPort         string        `env:"DB_PORT"`
	DBUser         string        `env:"DB_USER"`
	DBPassword     string        `env:"DB_PASSWORD"`
	DBName         string        `env:"DB_NAME"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS,default=20"`
	DBQueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT,default=5s"`

	// 組み込みストア
	BadgerPath string `env:"BADGER_PATH"`

	// サーバー設定
	ServerPort string `env:"SERVER_PORT,default=8080"`
	Env        string `env:"ENV,default=development"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`

	// 画像ストレージ
	ImageDir       string `env:"IMAGE_DIR,default=./images"`
	PublicBaseURL  string `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES,default=10485760"`

	// 認証トークン
	JWTSecret string        `env:"JWT_SECRET,default=dev-only-change-me-socialhub-secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`

	// リアルタイム
	DedupCacheSize int           `env:"DEDUP_CACHE_SIZE,default=10000"`
	WSSendQueue    int           `env:"WS_SEND_QUEUE,default=64"`
	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT,default=10s"`
	WSPongWait     time.Duration `env:"WS_PONG_WAIT,default=60s"`
	// trueの場合、/ws は token クエリのJWTが sender と一致する接続のみ受け付ける
	WSRequireToken bool `env:"WS_REQUIRE_TOKEN,default=false"`

	// CORS設定
	AllowedOriginsRaw string `env:"ALLOWED_ORIGINS"`
	AllowedOrigins    []string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case "", DriverMySQL, DriverPostgres:
	case "pgx", "postgresql":
		cfg.DBDriver = DriverPostgres
	default:
		return Config{}, fmt.Errorf("config: unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.DBPort == "" {
		cfg.DBPort = defaultPort(cfg.DBDriver)
	}

	// tag values are comma separated, so the origin list default is applied here
	if strings.TrimSpace(cfg.AllowedOriginsRaw) == "" {
		cfg.AllowedOriginsRaw = defaultAllowedOrigins
	}
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOriginsRaw)

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return cfg, nil
}

// UsesDefaultJWTSecret reports whether tokens would be signed with the built-in secret.
func (c Config) UsesDefaultJWTSecret() bool { return c.JWTSecret == DefaultJWTSecret }

// IsDevelopment reports whether ENV is development.
func (c Config) IsDevelopment() bool { return strings.EqualFold(c.Env, EnvDevelopment) }

// UsesSQL reports whether a relational database is configured.
func (c Config) UsesSQL() bool { return c.DBDriver != "" }

func defaultPort(driver string) string {
	switch driver {
	case DriverPostgres:
		return "5432"
	default:
		return "3306"
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
