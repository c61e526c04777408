package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aixiera/phosphene-web/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Saver stores a percept under its implant's file name and returns where it went
type Saver interface {
	Save(key models.Implant, p *models.Percept) (string, error)
}

// DirSaver writes <key>.png files into a directory, creating it when needed
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(key models.Implant, p *models.Percept) (string, error) {
	if p == nil || len(p.PNG) == 0 {
		return "", fmt.Errorf("no result for %s", key)
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, key.Filename())
	if err := os.WriteFile(path, p.PNG, 0644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", key, err)
	}

	logger.Debug("Saved percept", zap.String("implant", string(key)), zap.String("path", path), zap.Int("bytes", len(p.PNG)))
	return path, nil
}

// SaveAll saves every populated entry concurrently. Paths come back in display order
func SaveAll(ctx context.Context, saver Saver, results models.ResultSet) ([]string, error) {
	keys := results.PopulatedKeys()
	paths := make([]string, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		p := results.Get(key)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := saver.Save(key, p)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
