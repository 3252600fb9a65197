package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reloads the config file whenever it changes on disk and sends
// the result to onReload. Events are debounced because editors fire
// several writes per save. Watch blocks until the context is cancelled.
func Watch(ctx context.Context, logger zerolog.Logger, onReload func(*Config)) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(configDir); err != nil {
		return err
	}

	log := logger.With().Str("component", "config-watch").Logger()
	configPath := filepath.Join(configDir, "config.yaml")

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != configPath || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				cfg, err := Load()
				if err != nil {
					log.Warn().Err(err).Msg("Config reload failed, keeping previous config")
					return
				}
				log.Info().Msg("Config reloaded")
				onReload(cfg)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}
