package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	ImageBackendDisk  = "disk"
	ImageBackendMinio = "minio"

	defaultMaxFileSize = 5 << 20
)

// Config is the process configuration. YAML keys mirror the environment
// variables; the environment wins when both are set.
type Config struct {
	Addr           string        `yaml:"addr"`
	DatabaseDSN    string        `yaml:"databaseDSN"`
	StoreDriver    string        `yaml:"storeDriver"`
	DBTimeout      time.Duration `yaml:"dbTimeout"`
	UploadDir      string        `yaml:"uploadDir"`
	UploadURL      string        `yaml:"uploadURLPrefix"`
	MaxFileSize    int64         `yaml:"maxFileSize"`
	ImageBackend   string        `yaml:"imageBackend"`
	MinioEndpoint  string        `yaml:"minioEndpoint"`
	MinioAccessKey string        `yaml:"minioAccessKey"`
	MinioSecretKey string        `yaml:"minioSecretKey"`
	MinioBucket    string        `yaml:"minioBucket"`
	MinioUseSSL    bool          `yaml:"minioUseSSL"`
	DefaultOwnerID string        `yaml:"defaultOwnerID"`
	LogLevel       string        `yaml:"logLevel"`
	LogFormat      string        `yaml:"logFormat"`
	CORSOrigins    []string      `yaml:"corsAllowedOrigins"`
	RateLimitRPS   float64       `yaml:"rateLimitRPS"`
	RateLimitBurst int           `yaml:"rateLimitBurst"`
	EnableHSTS     bool          `yaml:"enableHSTS"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:           ":8080",
		StoreDriver:    StoreDriverPostgres,
		DBTimeout:      3 * time.Second,
		UploadDir:      "uploads",
		UploadURL:      "/uploads/",
		MaxFileSize:    defaultMaxFileSize,
		ImageBackend:   ImageBackendDisk,
		DefaultOwnerID: "default-user",
		LogLevel:       "info",
		LogFormat:      "json",
		CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}
}

// LoadEnvFiles reads .env and .env.local. Variables already present in the
// process environment are never overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration from defaults, the optional YAML file at path
// (falling back to CONFIG_PATH) and the environment, in that order.
func Load(path string) (Config, error) {
	LoadEnvFiles()

	cfg := Defaults()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("APP_ADDR", &cfg.Addr)
	setString("DB_DSN", &cfg.DatabaseDSN)
	setString("STORE_DRIVER", &cfg.StoreDriver)
	setString("UPLOAD_DIR", &cfg.UploadDir)
	setString("UPLOAD_URL_PREFIX", &cfg.UploadURL)
	setString("IMAGE_BACKEND", &cfg.ImageBackend)
	setString("MINIO_ENDPOINT", &cfg.MinioEndpoint)
	setString("MINIO_ACCESS_KEY", &cfg.MinioAccessKey)
	setString("MINIO_SECRET_KEY", &cfg.MinioSecretKey)
	setString("MINIO_BUCKET", &cfg.MinioBucket)
	setString("DEFAULT_OWNER_ID", &cfg.DefaultOwnerID)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FORMAT", &cfg.LogFormat)

	if v := os.Getenv("DB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: DB_TIMEOUT: %w", err)
		}
		cfg.DBTimeout = d
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: MAX_FILE_SIZE: %w", err)
		}
		cfg.MaxFileSize = n
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = n
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		cfg.MinioUseSSL = v == "true"
	}
	if v := os.Getenv("ENABLE_HSTS"); v != "" {
		cfg.EnableHSTS = v == "true"
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	return nil
}

// Validate reports the first setting that makes the configuration unusable.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: DB_DSN is required for the postgres store driver")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q (want postgres or memory)", c.StoreDriver)
	}

	switch c.ImageBackend {
	case ImageBackendDisk:
		if c.UploadDir == "" {
			return errors.New("config: UPLOAD_DIR is required for the disk image backend")
		}
	case ImageBackendMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "" {
			return errors.New("config: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required for the minio image backend")
		}
	default:
		return fmt.Errorf("config: unknown IMAGE_BACKEND %q (want disk or minio)", c.ImageBackend)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("config: MAX_FILE_SIZE must be positive")
	}
	if c.DBTimeout <= 0 {
		return errors.New("config: DB_TIMEOUT must be positive")
	}
	if !strings.HasPrefix(c.UploadURL, "/") || !strings.HasSuffix(c.UploadURL, "/") {
		return fmt.Errorf("config: UPLOAD_URL_PREFIX %q must start and end with /", c.UploadURL)
	}
	if c.DefaultOwnerID == "" {
		return errors.New("config: DEFAULT_OWNER_ID must not be empty")
	}
	return nil
}

// RedactDSN hides the credentials of a URL-style connection string so it
// can be logged.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
