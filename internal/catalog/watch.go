package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog file at path into h whenever it is written or
// replaced, until ctx is done. A file that fails to load is logged and the
// previous catalog stays in place.
func Watch(ctx context.Context, path string, h *Holder, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are seen too.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	target := filepath.Clean(path)
	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				c, err := Load(path)
				if err != nil {
					logger.Warn("catalog reload failed", "path", path, "err", err)
					continue
				}
				h.Set(c)
				logger.Info("catalog reloaded", "path", path, "products", len(c.order))
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("catalog watcher error", "err", err)
			}
		}
	}()
	return nil
}
