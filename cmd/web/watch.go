package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchTemplates invalidates the template cache whenever a .tmpl file under
// dir (or dir/partials) changes. It returns when ctx is done.
func watchTemplates(ctx context.Context, dir string, rend *renderer, logger *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template watcher: %w", err)
	}
	defer w.Close()

	for _, d := range []string{dir, filepath.Join(dir, "partials")} {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("template watcher: watch %s: %w", d, err)
		}
	}
	logger.Info("watching templates", zap.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".tmpl") || ev.Op == fsnotify.Chmod {
				continue
			}
			rend.Invalidate()
			logger.Debug("templates invalidated", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("template watcher error", zap.Error(err))
		}
	}
}
