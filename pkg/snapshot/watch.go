package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/campusnav/pkg/logging"
)

// DefaultDebounce is how long Watch waits for writes to settle
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads h whenever the file behind its FileStore changes, until ctx
// is cancelled. The parent directory is watched so the rename performed by
// FileStore.Save is seen. Bursts of events within debounce collapse into one
// reload.
func (h *Holder) Watch(ctx context.Context, debounce time.Duration) error {
	fs, ok := h.store.(*FileStore)
	if !ok {
		return fmt.Errorf("%w: watch needs a file store", ErrUnsupportedScheme)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	target, err := filepath.Abs(fs.Path())
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	go h.watchLoop(ctx, watcher, target, debounce)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, debounce time.Duration) {
	defer watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			swapped, err := h.Reload(ctx)
			if err == nil {
				h.logger.Debug("snapshot file changed",
					logging.Path(target),
					logging.Bool("swapped", swapped))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn("snapshot watcher error", logging.Error(err))
		}
	}
}
