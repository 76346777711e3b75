// Package storage keeps archived grade reports in blob storage: the local
// filesystem, S3 (or an S3-compatible store) or Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a report blob does not exist.
var ErrNotFound = errors.New("report not found")

// Client abstracts blob storage for archived reports.
// Blobs are keyed "<userID>/reports/<reportID>.json".
type Client interface {
	PutReport(ctx context.Context, userID, reportID string, data []byte) error
	GetReport(ctx context.Context, userID, reportID string) ([]byte, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend   string // "local", "s3" or "gcs"
	Path      string // local base directory
	S3        S3Config
	GCSBucket string
}

// New creates the Client for cfg.Backend.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Backend {
	case "", "local":
		if cfg.Path == "" {
			return nil, fmt.Errorf("local storage requires a path")
		}
		return NewLocal(cfg.Path), nil
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		return NewS3(ctx, cfg.S3)
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("gcs storage requires a bucket")
		}
		return NewGCS(ctx, cfg.GCSBucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func key(userID, reportID string) (string, error) {
	for _, part := range []string{userID, reportID} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid storage key component %q", part)
		}
	}
	return userID + "/reports/" + reportID + ".json", nil
}

// Local implements Client using the local filesystem.
// Useful for development, the CLI and testing.
type Local struct {
	BaseDir string
}

// NewLocal creates a Local store rooted at the given directory.
func NewLocal(baseDir string) *Local {
	return &Local{BaseDir: baseDir}
}

func (s *Local) path(userID, reportID string) (string, error) {
	k, err := key(userID, reportID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.BaseDir, filepath.FromSlash(k)), nil
}

// PutReport stores a report blob.
func (s *Local) PutReport(ctx context.Context, userID, reportID string, data []byte) error {
	path, err := s.path(userID, reportID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetReport retrieves a report blob.
func (s *Local) GetReport(ctx context.Context, userID, reportID string) ([]byte, error) {
	path, err := s.path(userID, reportID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", reportID, ErrNotFound)
	}
	return data, err
}
