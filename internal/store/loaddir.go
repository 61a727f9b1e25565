package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// LoadDir loads every *.har file in dir concurrently with up to workers
// goroutines. Files that fail to parse are logged and skipped; the count
// of successfully loaded traces is returned. A missing directory is an
// error, an empty one is not.
func (s *Store) LoadDir(ctx context.Context, dir string, workers int) (int, error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	loaded := make(chan struct{}, len(names))
	for _, de := range names {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".har") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := s.Load(path); err != nil {
				slog.Warn("skipping HAR file", slog.String("path", path), slog.String("error", err.Error()))
				return nil
			}
			loaded <- struct{}{}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(loaded)

	count := 0
	for range loaded {
		count++
	}
	return count, nil
}
