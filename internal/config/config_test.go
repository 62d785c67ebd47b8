package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"PORT", "NOTIFY_DRIVER", "NOTIFY_TIMEOUT", "SWEEP_CONCURRENCY", "CRON_RECURRENCES"} {
			t.Setenv(key, "")
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.NotifyDriver != "smtp" {
			t.Errorf("expected smtp driver, got %s", cfg.NotifyDriver)
		}
		if cfg.NotifyTimeout != 10*time.Second {
			t.Errorf("expected 10s notify timeout, got %s", cfg.NotifyTimeout)
		}
		if cfg.SweepConcurrency != 4 {
			t.Errorf("expected sweep concurrency 4, got %d", cfg.SweepConcurrency)
		}
		if cfg.CronRecurrences != "0 0 * * *" {
			t.Errorf("expected midnight cron, got %q", cfg.CronRecurrences)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("NOTIFY_DRIVER", "AMQP")
		t.Setenv("NOTIFY_TIMEOUT", "3s")
		t.Setenv("SWEEP_CONCURRENCY", "8")
		t.Setenv("SCHEDULER_ENABLED", "false")
		t.Setenv("REDIS_DB", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.NotifyDriver != "amqp" {
			t.Errorf("expected amqp driver, got %s", cfg.NotifyDriver)
		}
		if cfg.NotifyTimeout != 3*time.Second {
			t.Errorf("expected 3s, got %s", cfg.NotifyTimeout)
		}
		if cfg.SweepConcurrency != 8 {
			t.Errorf("expected 8, got %d", cfg.SweepConcurrency)
		}
		if cfg.SchedulerEnabled {
			t.Error("expected scheduler to be disabled")
		}
		if cfg.RedisDB != 2 {
			t.Errorf("expected redis db 2, got %d", cfg.RedisDB)
		}
	})

	t.Run("invalid_values_fall_back", func(t *testing.T) {
		t.Setenv("NOTIFY_TIMEOUT", "soon")
		t.Setenv("SWEEP_CONCURRENCY", "0")
		t.Setenv("JWT_EXPIRES_IN", "-1h")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.NotifyTimeout != 10*time.Second {
			t.Errorf("expected fallback 10s, got %s", cfg.NotifyTimeout)
		}
		if cfg.SweepConcurrency != 1 {
			t.Errorf("expected fallback 1, got %d", cfg.SweepConcurrency)
		}
		if cfg.JWTExpirationDur != 24*time.Hour {
			t.Errorf("expected fallback 24h, got %s", cfg.JWTExpirationDur)
		}
	})
}
