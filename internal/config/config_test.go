package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "CORS_ALLOWED_ORIGINS", "DATABASE_URL", "JWT_SECRET",
		"BOOKSTORE_PORT", "ORDERS_PORT", "RELAY_PORT", "SIGNALR_MODE",
		"BOOKSTORE_DEMO_TOKEN", "TRACING_SAMPLE_RATE", "SIGNALR_HUB_URL", "RELAY_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BookStorePort != 7072 || cfg.Server.OrdersPort != 7071 || cfg.Server.RelayPort != 5000 {
		t.Errorf("unexpected default ports: %+v", cfg.Server)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty DATABASE_URL to select the memory store, got %q", cfg.Database.URL)
	}
	if cfg.Orders.JWT.Secret != DefaultOrdersJWTSecret {
		t.Errorf("Orders secret = %q", cfg.Orders.JWT.Secret)
	}
	if cfg.Orders.JWT.Expiry != time.Hour || cfg.Orders.JWT.ClockSkew != 5*time.Second {
		t.Errorf("unexpected orders JWT timings: %+v", cfg.Orders.JWT)
	}
	if cfg.BookStore.JWT.Issuer != "BookStoreApi" || cfg.BookStore.JWT.Audience != "BookStoreClient" {
		t.Errorf("unexpected bookstore JWT: %+v", cfg.BookStore.JWT)
	}
	if cfg.BookStore.DemoToken != DefaultBookStoreDemoToken {
		t.Errorf("DemoToken = %q", cfg.BookStore.DemoToken)
	}
	if cfg.Notifications.Mode != "local" || cfg.Notifications.HubURL != "http://localhost:5000" {
		t.Errorf("unexpected notifications: %+v", cfg.Notifications)
	}
	if len(cfg.Relay.AllowedOrigins) != 3 {
		t.Errorf("expected 3 relay origins, got %v", cfg.Relay.AllowedOrigins)
	}
}

func TestLoad_ProductionCORS_EmptyOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "12345678901234567890123456789012")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error when CORS_ALLOWED_ORIGINS is empty in production, got nil")
	}
	if !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
		t.Errorf("Expected error message to mention CORS_ALLOWED_ORIGINS, got: %v", err)
	}
}

func TestLoad_ProductionCORS_ValidOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com, https://app.example.com")
	t.Setenv("JWT_SECRET", "12345678901234567890123456789012")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error with valid CORS_ALLOWED_ORIGINS, got: %v", err)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 allowed origins, got %d", len(cfg.CORS.AllowedOrigins))
	}
	if cfg.CORS.AllowAllOrigins {
		t.Error("Expected AllowAllOrigins to be false in production")
	}
}

func TestLoad_ProductionRejectsDevSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoad_DevelopmentCORS_AllowsAll(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error in development, got: %v", err)
	}
	if !cfg.CORS.AllowAllOrigins {
		t.Error("Expected AllowAllOrigins to be true in development")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"port out of range", "ORDERS_PORT", "70000", "ORDERS_PORT"},
		{"sample rate", "TRACING_SAMPLE_RATE", "1.5", "TRACING_SAMPLE_RATE"},
		{"notification mode", "SIGNALR_MODE", "carrier-pigeon", "SIGNALR_MODE"},
		{"hub url without host", "SIGNALR_HUB_URL", "relay.local:5000", "SIGNALR_HUB_URL"},
		{"cors origin with path", "CORS_ALLOWED_ORIGINS", "https://app.example.com/app", "CORS_ALLOWED_ORIGINS"},
		{"relay origin without scheme", "RELAY_ALLOWED_ORIGINS", "localhost:5001", "RELAY_ALLOWED_ORIGINS"},
		{"non-numeric port", "BOOKSTORE_PORT", "abc", "BOOKSTORE_PORT"},
		{"non-numeric expiry", "JWT_EXPIRY_MINUTES", "an hour", "JWT_EXPIRY_MINUTES"},
		{"non-numeric sample rate", "TRACING_SAMPLE_RATE", "most", "TRACING_SAMPLE_RATE"},
		{"non-boolean flag", "TRACING_ENABLED", "sometimes", "TRACING_ENABLED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_EmptyDemoTokenDisables(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKSTORE_DEMO_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BookStore.DemoToken != "" {
		t.Errorf("expected demo token disabled, got %q", cfg.BookStore.DemoToken)
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := "orders_port: 9001\nrelay_port: 9002\nsignalr_mode: none\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RELAY_PORT", "9100")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.OrdersPort != 9001 {
		t.Errorf("OrdersPort = %d, want 9001 from file", cfg.Server.OrdersPort)
	}
	if cfg.Server.RelayPort != 9100 {
		t.Errorf("RelayPort = %d, want env override 9100", cfg.Server.RelayPort)
	}
	if cfg.Notifications.Mode != "none" {
		t.Errorf("Mode = %q, want none", cfg.Notifications.Mode)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
