package config

import (
	"strings"
	"testing"
)

func productionConfig() *Config {
	return &Config{
		Environment:        EnvProduction,
		LogLevel:           "info",
		CORSAllowedOrigins: "https://tracker.example.com",
		SnapshotDriver:     SnapshotDriverFile,
		SnapshotPath:       "data/SupplyChainItems.json",
		EventsDriver:       EventsDriverChannel,
	}
}

func TestValidateForProduction_NonProductionIsNoop(t *testing.T) {
	cfg := &Config{Environment: EnvDevelopment, LogLevel: "debug", CORSAllowedOrigins: "*"}
	if err := ValidateForProduction(cfg); err != nil {
		t.Fatalf("expected nil for development config, got %v", err)
	}
}

func TestValidateForProduction_Valid(t *testing.T) {
	if err := ValidateForProduction(productionConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateForProduction_Violations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"debug logging", func(c *Config) { c.LogLevel = "debug" }, "LOG_LEVEL"},
		{"wildcard cors", func(c *Config) { c.CORSAllowedOrigins = " * " }, "CORS_ALLOWED_ORIGINS"},
		{"empty snapshot path", func(c *Config) { c.SnapshotPath = "  " }, "SNAPSHOT_PATH"},
		{"postgres snapshot without url", func(c *Config) {
			c.SnapshotDriver = SnapshotDriverPostgres
			c.DatabaseURL = ""
		}, "DATABASE_URL"},
		{"s3 snapshot without bucket", func(c *Config) {
			c.SnapshotDriver = SnapshotDriverS3
			c.S3Key = "items.json"
		}, "S3_BUCKET"},
		{"postgres events without url", func(c *Config) { c.EventsDriver = EventsDriverPostgres }, "DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := productionConfig()
			tt.mutate(cfg)
			err := ValidateForProduction(cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected %q in error, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}
