package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/pixelshrink/internal/domain"
	"golang.org/x/image/draw"
)

type Config struct {
	Output   domain.OutputSpec
	Pipeline PipelineConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Upload   UploadConfig
	Storage  StorageConfig
}

type PipelineConfig struct {
	MetadataTimeout time.Duration
	Interpolator    string
}

// Resampler maps Interpolator onto a draw kernel. Unknown names select
// bilinear.
func (p PipelineConfig) Resampler() draw.Interpolator {
	switch strings.ToLower(strings.TrimSpace(p.Interpolator)) {
	case "nearest":
		return draw.NearestNeighbor
	case "approxbilinear":
		return draw.ApproxBiLinear
	case "catmullrom":
		return draw.CatmullRom
	default:
		return draw.BiLinear
	}
}

type MetricsConfig struct {
	// TextFile is where the Prometheus textfile is written after a run.
	// Empty disables the export.
	TextFile string
}

type TracingConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

type UploadConfig struct {
	Enabled bool
	Prefix  string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() Config {
	return Config{
		Output: domain.OutputSpec{
			Type:    env("PIXELSHRINK_OUTPUT_TYPE", ""),
			Width:   envInt("PIXELSHRINK_MAX_WIDTH", domain.DefaultOutputWidth),
			Height:  envInt("PIXELSHRINK_MAX_HEIGHT", domain.DefaultOutputHeight),
			Quality: envFloat("PIXELSHRINK_QUALITY", domain.DefaultOutputQuality),
		},
		Pipeline: PipelineConfig{
			MetadataTimeout: envDuration("PIXELSHRINK_METADATA_TIMEOUT", 2*time.Second),
			Interpolator:    env("PIXELSHRINK_INTERPOLATOR", "bilinear"),
		},
		Metrics: MetricsConfig{
			TextFile: env("PIXELSHRINK_METRICS_FILE", ""),
		},
		Tracing: TracingConfig{
			Exporter:     env("PIXELSHRINK_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		Upload: UploadConfig{
			Enabled: envBool("PIXELSHRINK_UPLOAD", false),
			Prefix:  env("PIXELSHRINK_UPLOAD_PREFIX", "results"),
		},
		Storage: StorageConfig{
			Endpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "pixelshrink-results"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
