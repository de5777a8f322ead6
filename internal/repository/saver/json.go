package saver

import (
	"context"
	"encoding/json"
	"os"

	"TrendRadar/internal/domain/models"
)

// JSONSaver writes the dataset as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(ctx context.Context, rows []models.LabeledSignal, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
