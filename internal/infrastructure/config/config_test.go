package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.StorageDriver != "dynamodb" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Tables.Budgets != "budgets" || cfg.Tables.Orders != "orders" {
		t.Fatalf("unexpected table names: %+v", cfg.Tables)
	}
	if cfg.Gemini.Timeout != 45*time.Second {
		t.Fatalf("expected 45s assistant timeout, got %s", cfg.Gemini.Timeout)
	}
	if cfg.Payments.DepositRate != 0.30 {
		t.Fatalf("expected 0.30 deposit rate, got %v", cfg.Payments.DepositRate)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ASSISTANT_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://traiteur.fr, https://admin.traiteur.fr")
	t.Setenv("PAYMENT_GATEWAY_MOCK", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.StorageDriver != "memory" || !cfg.Payments.Mock {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Gemini.Timeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.Gemini.Timeout)
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[1] != "https://admin.traiteur.fr" {
		t.Fatalf("unexpected origins %v", origins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("deposit rate", func(t *testing.T) {
		t.Setenv("DEPOSIT_RATE", "1.5")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error")
		}
	})
}
