package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("AGENTS_ENABLED", "")
	t.Setenv("VIEW_HISTORY_RETENTION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v", cfg.JWTTTL)
	}
	if cfg.JWTSecret == "" {
		t.Error("development should fall back to a dev secret")
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if !cfg.AgentsEnabled || cfg.ViewHistoryRetention != 90*24*time.Hour {
		t.Errorf("agents enabled=%v retention=%v", cfg.AgentsEnabled, cfg.ViewHistoryRetention)
	}
}

func TestLoadRejectsBadAgentSettings(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	t.Run("retention", func(t *testing.T) {
		t.Setenv("VIEW_HISTORY_RETENTION", "forever")
		if _, err := Load(); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("enabled flag", func(t *testing.T) {
		t.Setenv("AGENTS_ENABLED", "maybe")
		if _, err := Load(); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_TTL_MINUTES", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric JWT_TTL_MINUTES")
	}
}
