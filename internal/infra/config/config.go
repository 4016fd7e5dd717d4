// internal/infra/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Catalog backends.
const (
	CatalogFirestore = "firestore"
	CatalogSupabase  = "supabase"
	CatalogKV        = "kv"
)

// KV drivers.
const (
	KVMemory   = "memory"
	KVRedis    = "redis"
	KVPostgres = "postgres"
)

// Config holds the whole application configuration (environment variables).
type Config struct {
	Port   string `envconfig:"PORT" default:"8080"`
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	// Remote product collection
	CatalogBackend           string `envconfig:"CATALOG_BACKEND" default:"firestore"`
	FirestoreProjectID       string `envconfig:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `envconfig:"FIRESTORE_CREDENTIALS_FILE"`
	GCPCreds                 string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	ProductCollection        string `envconfig:"PRODUCT_COLLECTION" default:"product"`
	ContactCollection        string `envconfig:"CONTACT_COLLECTION" default:"contact_messages"`
	SupabaseURL              string `envconfig:"SUPABASE_URL"`
	SupabaseAPIKey           string `envconfig:"SUPABASE_API_KEY"`

	// Client-scoped key/value state
	KVDriver    string `envconfig:"KV_DRIVER" default:"memory"`
	RedisURL    string `envconfig:"REDIS_URL"`
	DatabaseDSN string `envconfig:"DATABASE_DSN"`

	// Session guard
	SessionTimeout       time.Duration `envconfig:"SESSION_TIMEOUT" default:"30m"`
	SessionCheckInterval time.Duration `envconfig:"SESSION_CHECK_INTERVAL" default:"60s"`

	// Admin authentication
	AdminPasswordHash   string `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminPasswordSecret string `envconfig:"ADMIN_PASSWORD_SECRET"`
	FirebaseAuthEnabled bool   `envconfig:"FIREBASE_AUTH_ENABLED" default:"false"`

	// Images / mail / http
	ImageBucket    string `envconfig:"IMAGE_BUCKET"`
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	SendGridFrom   string `envconfig:"SENDGRID_FROM"`
	ContactInbox   string `envconfig:"CONTACT_INBOX"`
	CORSOrigin     string `envconfig:"CORS_ORIGIN" default:"*"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is a local-dev convenience; a missing file is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.CatalogBackend = strings.ToLower(strings.TrimSpace(c.CatalogBackend))
	c.KVDriver = strings.ToLower(strings.TrimSpace(c.KVDriver))
	c.ProductCollection = strings.TrimSpace(c.ProductCollection)
	c.ImageBucket = strings.TrimSpace(c.ImageBucket)
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.CatalogBackend {
	case CatalogFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT_ID is required for catalog backend %q", c.CatalogBackend)
		}
	case CatalogSupabase:
		if c.SupabaseURL == "" || c.SupabaseAPIKey == "" {
			return fmt.Errorf("config: SUPABASE_URL and SUPABASE_API_KEY are required for catalog backend %q", c.CatalogBackend)
		}
	case CatalogKV:
	default:
		return fmt.Errorf("config: unknown CATALOG_BACKEND %q", c.CatalogBackend)
	}

	switch c.KVDriver {
	case KVMemory:
	case KVRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL is required for KV_DRIVER=redis")
		}
	case KVPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("config: DATABASE_DSN is required for KV_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unknown KV_DRIVER %q", c.KVDriver)
	}

	if c.SessionTimeout <= 0 {
		return fmt.Errorf("config: SESSION_TIMEOUT must be positive")
	}
	if c.SessionCheckInterval <= 0 {
		return fmt.Errorf("config: SESSION_CHECK_INTERVAL must be positive")
	}
	return nil
}

// CredentialsFile returns the explicit credentials file, if any.
// FIRESTORE_CREDENTIALS_FILE wins over GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) CredentialsFile() string {
	if v := strings.TrimSpace(c.FirestoreCredentialsFile); v != "" {
		return v
	}
	return strings.TrimSpace(c.GCPCreds)
}

// UsesFirestore reports whether any component needs a Firestore client.
func (c *Config) UsesFirestore() bool {
	return c.CatalogBackend == CatalogFirestore || c.FirestoreProjectID != ""
}
