package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "kv")
	t.Setenv("KV_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SessionTimeout != 30*time.Minute {
		t.Errorf("SessionTimeout = %v, want 30m", cfg.SessionTimeout)
	}
	if cfg.SessionCheckInterval != time.Minute {
		t.Errorf("SessionCheckInterval = %v, want 1m", cfg.SessionCheckInterval)
	}
	if cfg.ProductCollection != "product" {
		t.Errorf("ProductCollection = %q, want product", cfg.ProductCollection)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			CatalogBackend:       CatalogKV,
			KVDriver:             KVMemory,
			SessionTimeout:       time.Minute,
			SessionCheckInterval: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "kv + memory", mutate: func(*Config) {}},
		{name: "firestore without project", mutate: func(c *Config) { c.CatalogBackend = CatalogFirestore }, wantErr: true},
		{name: "firestore with project", mutate: func(c *Config) {
			c.CatalogBackend = CatalogFirestore
			c.FirestoreProjectID = "p"
		}},
		{name: "supabase missing key", mutate: func(c *Config) {
			c.CatalogBackend = CatalogSupabase
			c.SupabaseURL = "https://x.supabase.co"
		}, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.CatalogBackend = "mongo" }, wantErr: true},
		{name: "redis without url", mutate: func(c *Config) { c.KVDriver = KVRedis }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.KVDriver = KVPostgres }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.SessionTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredentialsFilePriority(t *testing.T) {
	c := Config{GCPCreds: "/adc.json"}
	if got := c.CredentialsFile(); got != "/adc.json" {
		t.Fatalf("got %q", got)
	}
	c.FirestoreCredentialsFile = "/fs.json"
	if got := c.CredentialsFile(); got != "/fs.json" {
		t.Fatalf("got %q", got)
	}
}
