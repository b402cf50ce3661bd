package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.MongoDatabase != "advolink" {
		t.Fatalf("mongo database %q", cfg.MongoDatabase)
	}
	if cfg.TaskStream != "tasks:stream" || cfg.ConsumerGroup != "tasks:workers" {
		t.Fatalf("broker defaults %q / %q", cfg.TaskStream, cfg.ConsumerGroup)
	}
	if cfg.WorkerPoolSize != 5 {
		t.Fatalf("pool size %d", cfg.WorkerPoolSize)
	}
	if cfg.CaseCallTimeout != 20*time.Second || cfg.BookingCallTimeout != 20*time.Second {
		t.Fatalf("call timeouts %v / %v", cfg.CaseCallTimeout, cfg.BookingCallTimeout)
	}
	if !cfg.ReminderEnabled || cfg.ReminderWindow != 24*time.Hour {
		t.Fatalf("reminder defaults %v / %v", cfg.ReminderEnabled, cfg.ReminderWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "12")
	t.Setenv("CASE_CALL_TIMEOUT_SEC", "5")
	t.Setenv("REMINDER_ENABLED", "false")

	cfg := Load()
	if cfg.WorkerPoolSize != 12 {
		t.Fatalf("pool size %d", cfg.WorkerPoolSize)
	}
	if cfg.CaseCallTimeout != 5*time.Second {
		t.Fatalf("case call timeout %v", cfg.CaseCallTimeout)
	}
	if cfg.ReminderEnabled {
		t.Fatal("reminder override ignored")
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "many")

	cfg := Load()
	if cfg.WorkerPoolSize != 5 {
		t.Fatalf("pool size %d, want default", cfg.WorkerPoolSize)
	}
}
