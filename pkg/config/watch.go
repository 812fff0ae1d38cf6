package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/kyco-project/kyco/internal/logger"
)

// WatchLogLevel watches configPath for changes and applies the file's
// logging.level to the running logger without requiring a restart. Other
// configuration fields are immutable for the lifetime of the process and
// are intentionally not reloaded here. The watcher stops when ctx is
// cancelled.
func WatchLogLevel(ctx context.Context, configPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(configPath); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reloadLogLevel(configPath)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WarnCtx(ctx, "config watch error", logger.Err(err))
			}
		}
	}()

	return nil
}

func reloadLogLevel(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		logger.Warn("config reload failed, keeping current log level", logger.Err(err))
		return
	}
	logger.SetLevel(cfg.Logging.Level)
	logger.Info("log level reloaded", "level", cfg.Logging.Level)
}
