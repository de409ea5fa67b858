package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DriverMinIO selects the MinIO object store backend.
	DriverMinIO = "minio"
	// DriverS3 selects the AWS S3 object store backend.
	DriverS3 = "s3"
)

// Config aggregates runtime configuration for the StoreIt API.
type Config struct {
	Server      ServerConfig
	Postgres    PostgresConfig
	ObjectStore ObjectStoreConfig
	Auth        AuthConfig
	Storage     StorageConfig
	ViewCache   ViewCacheConfig
	Metrics     MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Migrate  bool
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MigrationURL returns the DSN in the form expected by the pgx/v5 migrate driver.
func (p PostgresConfig) MigrationURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// ObjectStoreConfig selects and configures the bucket backend.
type ObjectStoreConfig struct {
	Driver        string
	PublicBaseURL string
	MinIO         MinIOConfig
	S3            S3Config
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// S3Config carries AWS S3 settings. Credentials come from the default AWS chain.
type S3Config struct {
	Region   string
	Bucket   string
	Endpoint string
}

// BucketName returns the bucket of the selected driver.
func (o ObjectStoreConfig) BucketName() string {
	if o.Driver == DriverS3 {
		return o.S3.Bucket
	}
	return o.MinIO.Bucket
}

// AuthConfig groups identity verification settings.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
}

// StorageConfig holds per-user storage policy.
type StorageConfig struct {
	CapacityBytes  int64
	MaxUploadBytes int64
}

// ViewCacheConfig sizes the per-path view cache.
type ViewCacheConfig struct {
	Size int
	TTL  time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:           getString("STOREIT_API_HOST", "0.0.0.0"),
			Port:           getInt("STOREIT_API_PORT", 8080),
			ReadTimeout:    getDuration("STOREIT_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDuration("STOREIT_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getDuration("STOREIT_API_IDLE_TIMEOUT", 60*time.Second),
			CORSOrigins:    getList("STOREIT_CORS_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitRPS:   getFloat("STOREIT_RATE_LIMIT_RPS", 10),
			RateLimitBurst: getInt("STOREIT_RATE_LIMIT_BURST", 20),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "storeit_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "storeit"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
			Migrate:  getBool("POSTGRES_MIGRATE", true),
		},
		ObjectStore: ObjectStoreConfig{
			Driver:        strings.ToLower(getString("OBJECT_STORE_DRIVER", DriverMinIO)),
			PublicBaseURL: strings.TrimRight(getString("OBJECT_PUBLIC_BASE_URL", "http://localhost:9000"), "/"),
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getString("MINIO_ROOT_USER", "storeit"),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
				Bucket:          getString("MINIO_BUCKET", "storeit"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
			S3: S3Config{
				Region:   getString("AWS_REGION", "us-east-1"),
				Bucket:   getString("AWS_BUCKET_NAME", "storeit"),
				Endpoint: getString("S3_ENDPOINT", ""),
			},
		},
		Auth: AuthConfig{
			TokenSecret: getString("STOREIT_JWT_SECRET", "change-me-to-a-32-byte-secret"),
			Issuer:      getString("STOREIT_JWT_ISSUER", ""),
		},
		Storage: StorageConfig{
			CapacityBytes:  getInt64("STOREIT_CAPACITY_BYTES", 2*1024*1024*1024),
			MaxUploadBytes: getInt64("STOREIT_MAX_UPLOAD_BYTES", 50*1024*1024),
		},
		ViewCache: ViewCacheConfig{
			Size: getInt("STOREIT_VIEW_CACHE_SIZE", 512),
			TTL:  getDuration("STOREIT_VIEW_CACHE_TTL", 30*time.Second),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("STOREIT_METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.ObjectStore.Driver {
	case DriverMinIO, DriverS3:
	default:
		return fmt.Errorf("unsupported OBJECT_STORE_DRIVER %q", c.ObjectStore.Driver)
	}
	if c.ObjectStore.BucketName() == "" {
		return fmt.Errorf("object store bucket name is required")
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("STOREIT_JWT_SECRET is required")
	}
	if len(c.Server.CORSOrigins) == 0 {
		return fmt.Errorf("STOREIT_CORS_ORIGINS must list at least one origin")
	}
	if c.Storage.CapacityBytes <= 0 {
		return fmt.Errorf("STOREIT_CAPACITY_BYTES must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
