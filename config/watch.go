package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"AriaFM/logger"
)

// Watch starts a watcher on the .env file in the working directory and
// triggers an explicit Reload whenever it changes. Returns a stop function.
// Errors setting up the watcher are non-fatal: the server keeps running
// with the snapshot it booted with.
func Watch() (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file itself so editors that
	// replace the file (rename+create) don't silently drop the watch.
	if err := watcher.Add("."); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != ".env" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				Reload()
				logger.Info("Configuration reloaded",
					logger.String("trigger", strings.ToLower(event.Op.String())))
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error", logger.ErrorField(watchErr))
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
