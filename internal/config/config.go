package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Data directory: sqlite database and extracted page images.
	DataDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int
	PageWorkers  int // bounded per-document page extraction pool

	// Upload / fetch limits
	MaxDocumentBytes int64
	FetchTimeout     time.Duration
	FetchMaxAttempts int

	// Chunking defaults
	TargetChunkTokens int
	MinChunkTokens    int
	MaxChunkTokens    int
	OverlapPercent    float64
	EnableDedupe      bool

	// Image extraction
	EnableImageExtraction bool
	ImageDPI              int

	// Job state
	JobTTL time.Duration
}

// fileConfig is the optional YAML overlay, read before env vars are applied.
type fileConfig struct {
	Port                  string  `yaml:"port"`
	DataDir               string  `yaml:"data_dir"`
	WorkerCount           int     `yaml:"worker_count"`
	MaxQueueSize          int     `yaml:"max_queue_size"`
	PageWorkers           int     `yaml:"page_workers"`
	MaxDocumentBytes      int64   `yaml:"max_document_bytes"`
	TargetChunkTokens     int     `yaml:"target_chunk_size_tokens"`
	MinChunkTokens        int     `yaml:"min_chunk_size_tokens"`
	MaxChunkTokens        int     `yaml:"max_chunk_size_tokens"`
	OverlapPercent        float64 `yaml:"overlap_percentage"`
	EnableDedupe          *bool   `yaml:"enable_dedupe"`
	EnableImageExtraction *bool   `yaml:"enable_image_extraction"`
	ImageDPI              int     `yaml:"image_dpi"`
}

// Load builds the configuration from defaults, an optional YAML file
// (PLANCHUNK_CONFIG), and environment variables, in that order. The
// returned value is threaded through the orchestrator as-is and never
// modified afterwards.
func Load() (Config, error) {
	cfg := Config{
		Port:    "8090",
		DataDir: "data",

		WorkerCount:  4,
		MaxQueueSize: 100,
		PageWorkers:  4,

		MaxDocumentBytes: 500 * 1024 * 1024,
		FetchTimeout:     60 * time.Second,
		FetchMaxAttempts: 3,

		TargetChunkTokens: 3000,
		MinChunkTokens:    2000,
		MaxChunkTokens:    4000,
		OverlapPercent:    17.5,
		EnableDedupe:      true,

		EnableImageExtraction: true,
		ImageDPI:              300,

		JobTTL: 1 * time.Hour,
	}

	if path := os.Getenv("PLANCHUNK_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = os.Getenv("PLANCHUNK_API_KEY")
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.PageWorkers = envInt("PAGE_WORKERS", cfg.PageWorkers)

	cfg.MaxDocumentBytes = envInt64("MAX_DOCUMENT_BYTES", cfg.MaxDocumentBytes)
	cfg.FetchTimeout = envDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.FetchMaxAttempts = envInt("FETCH_MAX_ATTEMPTS", cfg.FetchMaxAttempts)

	cfg.TargetChunkTokens = envInt("TARGET_CHUNK_SIZE_TOKENS", cfg.TargetChunkTokens)
	cfg.MinChunkTokens = envInt("MIN_CHUNK_SIZE_TOKENS", cfg.MinChunkTokens)
	cfg.MaxChunkTokens = envInt("MAX_CHUNK_SIZE_TOKENS", cfg.MaxChunkTokens)
	cfg.OverlapPercent = envFloat("OVERLAP_PERCENTAGE", cfg.OverlapPercent)
	cfg.EnableDedupe = envBool("ENABLE_DEDUPE", cfg.EnableDedupe)

	cfg.EnableImageExtraction = envBool("ENABLE_IMAGE_EXTRACTION", cfg.EnableImageExtraction)
	cfg.ImageDPI = envInt("IMAGE_DPI", cfg.ImageDPI)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.WorkerCount > 0 {
		c.WorkerCount = fc.WorkerCount
	}
	if fc.MaxQueueSize > 0 {
		c.MaxQueueSize = fc.MaxQueueSize
	}
	if fc.PageWorkers > 0 {
		c.PageWorkers = fc.PageWorkers
	}
	if fc.MaxDocumentBytes > 0 {
		c.MaxDocumentBytes = fc.MaxDocumentBytes
	}
	if fc.TargetChunkTokens > 0 {
		c.TargetChunkTokens = fc.TargetChunkTokens
	}
	if fc.MinChunkTokens > 0 {
		c.MinChunkTokens = fc.MinChunkTokens
	}
	if fc.MaxChunkTokens > 0 {
		c.MaxChunkTokens = fc.MaxChunkTokens
	}
	if fc.OverlapPercent > 0 {
		c.OverlapPercent = fc.OverlapPercent
	}
	if fc.EnableDedupe != nil {
		c.EnableDedupe = *fc.EnableDedupe
	}
	if fc.EnableImageExtraction != nil {
		c.EnableImageExtraction = *fc.EnableImageExtraction
	}
	if fc.ImageDPI > 0 {
		c.ImageDPI = fc.ImageDPI
	}
	return nil
}

// clamp restores defaults for values that ended up out of range.
func (c *Config) clamp() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = 4
	}
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = 500 * 1024 * 1024
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 60 * time.Second
	}
	if c.FetchMaxAttempts <= 0 {
		c.FetchMaxAttempts = 3
	}
	if c.TargetChunkTokens <= 0 {
		c.TargetChunkTokens = 3000
	}
	if c.MinChunkTokens <= 0 {
		c.MinChunkTokens = 2000
	}
	if c.MaxChunkTokens <= c.TargetChunkTokens {
		c.MaxChunkTokens = c.TargetChunkTokens + 1000
	}
	if c.OverlapPercent <= 0 || c.OverlapPercent >= 100 {
		c.OverlapPercent = 17.5
	}
	if c.ImageDPI <= 0 {
		c.ImageDPI = 300
	}
	if c.JobTTL <= 0 {
		c.JobTTL = 1 * time.Hour
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PLANCHUNK_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
