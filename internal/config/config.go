package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"

	VisionNone   = "none"
	VisionClaude = "claude"
)

type Config struct {
	ListenAddr     string
	PersistBackend string
	DBPath         string
	PostgresDSN    string
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Endpoint     string
	S3PathStyle    bool
	VisionBackend  string
	ClaudeAPIKey   string
	ClaudeModel    string
	LogLevel       string
	LogFile        string
	LogFormat      string
	PersistTimeout time.Duration

	parseErrs []error
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory fill in variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		PersistBackend: getEnv("PERSIST_BACKEND", BackendSQLite),
		DBPath:         getEnv("DB_PATH", "/data/pantry.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Prefix:       getEnv("S3_PREFIX", "pantry/"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		VisionBackend:  getEnv("VISION_BACKEND", VisionNone),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	pathStyle, err := strconv.ParseBool(getEnv("S3_PATH_STYLE", "false"))
	if err != nil {
		cfg.parseErrs = append(cfg.parseErrs, fmt.Errorf("S3_PATH_STYLE: %w", err))
	}
	cfg.S3PathStyle = pathStyle

	timeout, err := time.ParseDuration(getEnv("PERSIST_TIMEOUT", "5s"))
	if err != nil {
		cfg.parseErrs = append(cfg.parseErrs, fmt.Errorf("PERSIST_TIMEOUT: %w", err))
		timeout = 5 * time.Second
	}
	cfg.PersistTimeout = timeout

	return cfg
}

// Validate reports unparseable values, unknown backends and missing keys the
// selected backends require.
func (c *Config) Validate() error {
	if len(c.parseErrs) > 0 {
		return c.parseErrs[0]
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("PERSIST_TIMEOUT must be positive")
	}

	switch c.PersistBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH required for sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN required for postgres backend")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET required for s3 backend")
		}
	default:
		return fmt.Errorf("unknown PERSIST_BACKEND %q", c.PersistBackend)
	}

	switch c.VisionBackend {
	case VisionNone:
	case VisionClaude:
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY required for claude vision backend")
		}
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
