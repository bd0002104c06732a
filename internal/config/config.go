package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backend selectors.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config is the environment-driven configuration for the embedding
// service. Every field has a default; invalid numeric values fall back
// to their defaults rather than failing startup.
type Config struct {
	// Storage
	Store  string // "sqlite" or "memory"
	DBPath string

	// Pool
	Workers       int
	MaxQueueSize  int
	InitTimeout   time.Duration
	WorkerTimeout time.Duration
	QueryTimeout  time.Duration

	// Engine
	MinDocFreq  int
	MaxDocFreq  float64
	MaxFeatures int

	// HTTP daemon
	HTTPAddr       string
	RateLimitRPS   float64
	RateLimitBurst int

	// Shutdown
	DrainTimeout time.Duration
}

// Load reads configuration from a .env file (when present) and the
// environment. Keys are MILLER_-prefixed.
func Load() *Config {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	return &Config{
		Store:  getEnv("MILLER_STORE", StoreSQLite),
		DBPath: getEnv("MILLER_DB_PATH", "./data/embeddings.db"),

		Workers:       getEnvInt("MILLER_WORKERS", 0), // 0 = runtime.NumCPU
		MaxQueueSize:  getEnvInt("MILLER_MAX_QUEUE_SIZE", 1000),
		InitTimeout:   getEnvDuration("MILLER_INIT_TIMEOUT", 10*time.Second),
		WorkerTimeout: getEnvDuration("MILLER_WORKER_TIMEOUT", 30*time.Second),
		QueryTimeout:  getEnvDuration("MILLER_QUERY_TIMEOUT", 5*time.Second),

		MinDocFreq:  getEnvInt("MILLER_MIN_DOC_FREQ", 1),
		MaxDocFreq:  getEnvFloat("MILLER_MAX_DOC_FREQ", 0.85),
		MaxFeatures: getEnvInt("MILLER_MAX_FEATURES", 384),

		HTTPAddr:       getEnv("MILLER_HTTP_ADDR", ":8080"),
		RateLimitRPS:   getEnvFloat("MILLER_RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("MILLER_RATE_LIMIT_BURST", 20),

		DrainTimeout: getEnvDuration("MILLER_DRAIN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration parses Go duration syntax ("30s", "1m30s"); bare
// integers are taken as milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
