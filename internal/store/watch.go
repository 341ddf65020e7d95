package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/huangsam/qmetrics/internal/logging"
	"go.uber.org/zap"
)

// Watch calls onChange whenever a *.json file in dir is written, created, removed or renamed.
// It blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, logger *zap.Logger, onChange func(path string)) error {
	logger = logging.OrNop(logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("watching results directory", zap.String("dir", dir))

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&relevant == 0 || !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			logger.Debug("results changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			onChange(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
