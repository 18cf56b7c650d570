package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // AGENTTRACE_DATABASE_URL (required)
	HTTPAddr    string // AGENTTRACE_HTTP_ADDR (default ":8080")
	NATSURL     string // AGENTTRACE_NATS_URL (optional, empty = no bus mirror)
	AuthToken   string // AGENTTRACE_AUTH_TOKEN (optional, empty = auth disabled)

	// StreamQueueSize is the per-subscriber delivery queue depth for the
	// broadcast hub. AGENTTRACE_STREAM_QUEUE (default 64).
	StreamQueueSize int

	// Archive settings
	ArchiveInterval   time.Duration // AGENTTRACE_ARCHIVE_INTERVAL (0 = disabled)
	ArchiveS3Bucket   string        // AGENTTRACE_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // AGENTTRACE_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // AGENTTRACE_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // AGENTTRACE_ARCHIVE_S3_KEY (default "agenttrace/events.jsonl")
	ArchiveDir        string        // AGENTTRACE_ARCHIVE_DIR (enables local snapshots when set)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("AGENTTRACE_DATABASE_URL"),
		HTTPAddr:          envOrDefault("AGENTTRACE_HTTP_ADDR", ":8080"),
		NATSURL:           os.Getenv("AGENTTRACE_NATS_URL"),
		AuthToken:         os.Getenv("AGENTTRACE_AUTH_TOKEN"),
		ArchiveS3Bucket:   os.Getenv("AGENTTRACE_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("AGENTTRACE_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("AGENTTRACE_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("AGENTTRACE_ARCHIVE_S3_KEY", "agenttrace/events.jsonl"),
		ArchiveDir:        os.Getenv("AGENTTRACE_ARCHIVE_DIR"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("AGENTTRACE_DATABASE_URL is required")
	}

	queueStr := envOrDefault("AGENTTRACE_STREAM_QUEUE", "64")
	n, err := strconv.Atoi(queueStr)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("AGENTTRACE_STREAM_QUEUE: must be a positive integer, got %q", queueStr)
	}
	c.StreamQueueSize = n

	if intervalStr := os.Getenv("AGENTTRACE_ARCHIVE_INTERVAL"); intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("AGENTTRACE_ARCHIVE_INTERVAL: %w", err)
		}
		c.ArchiveInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
