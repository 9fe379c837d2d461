package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Pipeline defaults, overridable per request where the handler allows it.
	MaxWorkingSide    int
	MaxRawSide        int
	BinarizeThreshold int
	ClusterTarget     int
	ArtifactBudget    int

	// Artifact persistence. Directory is used unless Azure credentials are set.
	ArtifactDir      string
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// UseAzureArtifacts reports whether output images go to blob storage
// instead of the local artifact directory.
func (c *Config) UseAzureArtifacts() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		MaxWorkingSide:     int(parseIntOrDefault("MAX_WORKING_SIDE", 800)),
		MaxRawSide:         int(parseIntOrDefault("MAX_RAW_SIDE", 20000)),
		BinarizeThreshold:  int(parseIntOrDefault("BINARIZE_THRESHOLD", 140)),
		ClusterTarget:      int(parseIntOrDefault("CLUSTER_TARGET", 8)),
		ArtifactBudget:     int(parseIntOrDefault("ARTIFACT_BUDGET_BYTES", 400*1024)),
		ArtifactDir:        getEnvOrDefault("ARTIFACT_DIR", "artifacts"),
		AzureAccountName:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:    os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:     getEnvOrDefault("AZURE_STORAGE_CONTAINER", "analysis-artifacts"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.AnalysisTimeout)
	}
	if cfg.MaxWorkingSide < 16 || cfg.MaxWorkingSide > cfg.MaxRawSide {
		return nil, fmt.Errorf("MAX_WORKING_SIDE out of range: %d", cfg.MaxWorkingSide)
	}
	if cfg.BinarizeThreshold < 0 || cfg.BinarizeThreshold > 255 {
		return nil, fmt.Errorf("BINARIZE_THRESHOLD must be in [0,255] (got %d)", cfg.BinarizeThreshold)
	}
	if cfg.ClusterTarget < 1 || cfg.ClusterTarget > 64 {
		return nil, fmt.Errorf("CLUSTER_TARGET must be in [1,64] (got %d)", cfg.ClusterTarget)
	}
	if cfg.ArtifactBudget <= 0 {
		return nil, fmt.Errorf("ARTIFACT_BUDGET_BYTES must be > 0 (got %d)", cfg.ArtifactBudget)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
