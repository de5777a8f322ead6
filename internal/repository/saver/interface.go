package saver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"TrendRadar/internal/domain/models"
)

// Saver writes a labeled dataset snapshot to a local file. The export
// is a convenience copy; the database remains the source of truth.
type Saver interface {
	Save(ctx context.Context, rows []models.LabeledSignal, path string) error
	Extension() string
}

// New creates an implementation by format (json, parquet).
// Returns nil if the format is not supported.
func New(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// ForPath picks a Saver from the file extension of path.
func ForPath(path string) (Saver, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	s := New(ext)
	if s == nil {
		return nil, fmt.Errorf("saver: unsupported format %q (use: json, parquet)", ext)
	}
	return s, nil
}
