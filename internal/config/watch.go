package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/medtracker/pkg/logger"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// A reload that fails (invalid YAML, failed validation) is logged and
// onChange is not called; the previous config stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	log := logger.Named("config")
	log.Info(ctx, "watching config file", logger.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so Create counts as a write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFrom(ctx, path)
			if err != nil {
				log.Error(ctx, "config reload failed; keeping previous config", logger.String("path", path), logger.Error(err))
				continue
			}

			log.Info(ctx, "config reloaded", logger.String("path", path))
			onChange(cfg)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(ctx, "config watcher error", logger.Error(err))
		}
	}
}
