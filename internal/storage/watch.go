package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is invoked after the watched slot was changed by another
// writer.
type ChangeCallback func(key string)

const watchDebounce = 150 * time.Millisecond

// Watch observes the file backing store's slot and calls cb whenever its
// content changes to something store did not write itself. Bursts of events
// are coalesced. It blocks until ctx is cancelled.
func Watch(ctx context.Context, fs *FS, store *Store, logger *slog.Logger, cb ChangeCallback) error {
	slot, err := fs.SlotPath(store.Key())
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: atomic writes replace the slot file, which would
	// drop a watch placed on the file itself.
	if err := w.Add(fs.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("slot", slot))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			data, readErr := os.ReadFile(slot)
			if readErr != nil && !errors.Is(readErr, os.ErrNotExist) {
				logger.Warn("watcher: read failed", slog.String("slot", slot), slog.String("error", readErr.Error()))
				continue
			}
			if store.Seen(data) {
				continue
			}
			store.remember(data)
			logger.Debug("watcher: external change", slog.String("key", store.Key()))
			if cb != nil {
				cb(store.Key())
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != slot {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
