package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ChainDefault != "reject" {
		t.Errorf("ChainDefault = %q, want reject", cfg.ChainDefault)
	}
	if cfg.PendingTTL != 24*time.Hour {
		t.Errorf("PendingTTL = %v, want 24h", cfg.PendingTTL)
	}
	if cfg.BaseReward != 10 {
		t.Errorf("BaseReward = %d, want 10", cfg.BaseReward)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PENDING_TTL", "2h")
	t.Setenv("BASE_REWARD", "25")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.PendingTTL != 2*time.Hour {
		t.Errorf("PendingTTL = %v, want 2h", cfg.PendingTTL)
	}
	if cfg.BaseReward != 25 {
		t.Errorf("BaseReward = %d, want 25", cfg.BaseReward)
	}
	if !cfg.MinioUseSSL {
		t.Error("MinioUseSSL = false, want true")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("BASE_REWARD", "lots")
	t.Setenv("PENDING_TTL", "soon")

	cfg := Load()

	if cfg.BaseReward != 10 {
		t.Errorf("BaseReward = %d, want default 10", cfg.BaseReward)
	}
	if cfg.PendingTTL != 24*time.Hour {
		t.Errorf("PendingTTL = %v, want default 24h", cfg.PendingTTL)
	}
}

func TestDSN(t *testing.T) {
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "waste")

	got := Load().DSN()
	want := "bot:s3cret@tcp(db.internal:3306)/waste?parseTime=true"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
