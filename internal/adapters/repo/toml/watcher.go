package toml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 100 * time.Millisecond

// Watcher reports changes to the state file made by other processes. The
// parent directory is watched because saves replace the file by rename.
type Watcher struct {
	path string
	log  zerolog.Logger
}

func NewWatcher(repo *Repository, logger zerolog.Logger) *Watcher {
	return &Watcher{
		path: repo.Path(),
		log:  logger.With().Str("component", "state-watcher").Logger(),
	}
}

// Watch blocks until ctx is done, calling onChange after each write or
// replacement of the state file.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create state watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch state directory: %w", err)
	}

	w.log.Info().Str("path", w.path).Msg("Watching state file for changes")
	w.handleEvents(ctx, watcher.Events, watcher.Errors, onChange)
	return nil
}

func (w *Watcher) handleEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, onChange func()) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Let the writer finish before reading.
			select {
			case <-time.After(watchDebounce):
			case <-ctx.Done():
				return
			}
			w.log.Debug().Str("event", event.Op.String()).Msg("Detected state file change")
			onChange()

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("State watcher error")

		case <-ctx.Done():
			return
		}
	}
}
