package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreSQLite)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0 (pool picks NumCPU)", cfg.Workers)
	}
	if cfg.MaxQueueSize != 1000 {
		t.Errorf("MaxQueueSize = %d, want 1000", cfg.MaxQueueSize)
	}
	if cfg.InitTimeout != 10*time.Second {
		t.Errorf("InitTimeout = %v, want 10s", cfg.InitTimeout)
	}
	if cfg.MaxDocFreq != 0.85 {
		t.Errorf("MaxDocFreq = %v, want 0.85", cfg.MaxDocFreq)
	}
	if cfg.MaxFeatures != 384 {
		t.Errorf("MaxFeatures = %d, want 384", cfg.MaxFeatures)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MILLER_STORE", StoreMemory)
	t.Setenv("MILLER_WORKERS", "4")
	t.Setenv("MILLER_MAX_QUEUE_SIZE", "50")
	t.Setenv("MILLER_QUERY_TIMEOUT", "2s")
	t.Setenv("MILLER_MAX_DOC_FREQ", "0.5")
	t.Setenv("MILLER_HTTP_ADDR", ":9000")

	cfg := Load()
	if cfg.Store != StoreMemory {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreMemory)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.MaxQueueSize != 50 {
		t.Errorf("MaxQueueSize = %d, want 50", cfg.MaxQueueSize)
	}
	if cfg.QueryTimeout != 2*time.Second {
		t.Errorf("QueryTimeout = %v, want 2s", cfg.QueryTimeout)
	}
	if cfg.MaxDocFreq != 0.5 {
		t.Errorf("MaxDocFreq = %v, want 0.5", cfg.MaxDocFreq)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want :9000", cfg.HTTPAddr)
	}
}

func TestDurationBareMilliseconds(t *testing.T) {
	t.Setenv("MILLER_WORKER_TIMEOUT", "1500")
	cfg := Load()
	if cfg.WorkerTimeout != 1500*time.Millisecond {
		t.Errorf("WorkerTimeout = %v, want 1.5s", cfg.WorkerTimeout)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MILLER_MAX_QUEUE_SIZE", "not-a-number")
	t.Setenv("MILLER_MAX_DOC_FREQ", "also-bad")
	t.Setenv("MILLER_INIT_TIMEOUT", "bogus")

	cfg := Load()
	if cfg.MaxQueueSize != 1000 {
		t.Errorf("MaxQueueSize = %d, want default 1000", cfg.MaxQueueSize)
	}
	if cfg.MaxDocFreq != 0.85 {
		t.Errorf("MaxDocFreq = %v, want default 0.85", cfg.MaxDocFreq)
	}
	if cfg.InitTimeout != 10*time.Second {
		t.Errorf("InitTimeout = %v, want default 10s", cfg.InitTimeout)
	}
}
