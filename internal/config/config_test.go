package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8090" {
		t.Errorf("Port = %q, want 8090", cfg.Port)
	}
	if cfg.TargetChunkTokens != 3000 || cfg.MinChunkTokens != 2000 || cfg.MaxChunkTokens != 4000 {
		t.Errorf("chunk budget = %d/%d/%d, want 3000/2000/4000",
			cfg.TargetChunkTokens, cfg.MinChunkTokens, cfg.MaxChunkTokens)
	}
	if cfg.OverlapPercent != 17.5 {
		t.Errorf("OverlapPercent = %v, want 17.5", cfg.OverlapPercent)
	}
	if cfg.MaxDocumentBytes != 500*1024*1024 {
		t.Errorf("MaxDocumentBytes = %d, want 500MB", cfg.MaxDocumentBytes)
	}
	if !cfg.EnableDedupe || !cfg.EnableImageExtraction {
		t.Error("dedupe and image extraction should default on")
	}
	if cfg.ImageDPI != 300 {
		t.Errorf("ImageDPI = %d, want 300", cfg.ImageDPI)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("JobTTL = %v, want 1h", cfg.JobTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PLANCHUNK_API_KEY", "secret")
	t.Setenv("TARGET_CHUNK_SIZE_TOKENS", "1500")
	t.Setenv("MAX_CHUNK_SIZE_TOKENS", "2500")
	t.Setenv("OVERLAP_PERCENTAGE", "10")
	t.Setenv("ENABLE_DEDUPE", "false")
	t.Setenv("IMAGE_DPI", "150")
	t.Setenv("JOB_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("APIKey = %q, want secret", cfg.APIKey)
	}
	if cfg.TargetChunkTokens != 1500 || cfg.MaxChunkTokens != 2500 {
		t.Errorf("chunk budget = %d/%d, want 1500/2500", cfg.TargetChunkTokens, cfg.MaxChunkTokens)
	}
	if cfg.OverlapPercent != 10 {
		t.Errorf("OverlapPercent = %v, want 10", cfg.OverlapPercent)
	}
	if cfg.EnableDedupe {
		t.Error("EnableDedupe should be off")
	}
	if cfg.ImageDPI != 150 {
		t.Errorf("ImageDPI = %d, want 150", cfg.ImageDPI)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("JobTTL = %v, want 30m", cfg.JobTTL)
	}
}

func TestLoadYAMLOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
port: "9500"
data_dir: /tmp/planchunk
target_chunk_size_tokens: 1200
overlap_percentage: 5
enable_image_extraction: false
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PLANCHUNK_CONFIG", path)
	// env wins over file
	t.Setenv("PORT", "9600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9600" {
		t.Errorf("Port = %q, want env override 9600", cfg.Port)
	}
	if cfg.DataDir != "/tmp/planchunk" {
		t.Errorf("DataDir = %q, want /tmp/planchunk", cfg.DataDir)
	}
	if cfg.TargetChunkTokens != 1200 {
		t.Errorf("TargetChunkTokens = %d, want 1200", cfg.TargetChunkTokens)
	}
	if cfg.OverlapPercent != 5 {
		t.Errorf("OverlapPercent = %v, want 5", cfg.OverlapPercent)
	}
	if cfg.EnableImageExtraction {
		t.Error("EnableImageExtraction should be off from YAML")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("PLANCHUNK_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestClampRestoresSaneValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("OVERLAP_PERCENTAGE", "150")
	t.Setenv("MAX_CHUNK_SIZE_TOKENS", "100") // below target

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want clamped default 4", cfg.WorkerCount)
	}
	if cfg.OverlapPercent != 17.5 {
		t.Errorf("OverlapPercent = %v, want clamped default 17.5", cfg.OverlapPercent)
	}
	if cfg.MaxChunkTokens <= cfg.TargetChunkTokens {
		t.Errorf("MaxChunkTokens = %d not above target %d", cfg.MaxChunkTokens, cfg.TargetChunkTokens)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without API key")
	}
	cfg.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with key: %v", err)
	}
}
