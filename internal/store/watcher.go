package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDebounce is how long the watcher waits for a burst of file events
// to settle before reloading.
var ReloadDebounce = 200 * time.Millisecond

// ErrNotWatchable is returned by Watch for catalogs that are not local files.
var ErrNotWatchable = errors.New("store: only file catalogs can be watched")

// EventCallback is called after every watcher-driven reload that changed
// the catalog or failed. err is nil on success.
type EventCallback func(snap *Snapshot, err error)

// Watch reloads the catalog whenever its file changes, until ctx is
// cancelled.
//
// The parent directory is watched rather than the file itself: editors and
// atomic writers replace the file by rename, which would drop a watch on
// the old inode.
func Watch(ctx context.Context, s *Store, logger *slog.Logger, cb EventCallback) error {
	src, ok := s.Source().(*FileSource)
	if !ok {
		return ErrNotWatchable
	}
	target, err := src.Path()
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("watcher: catalog directory missing, not watching",
			slog.String("catalog", filepath.Join(src.dir, src.path)))
		return nil
	}
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(target)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("catalog", target))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(ReloadDebounce)
			timerCh = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(ReloadDebounce)
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
			changed, reloadErr := s.Reload(ctx)
			if reloadErr != nil {
				if cb != nil {
					cb(s.Snapshot(), reloadErr)
				}
				continue
			}
			if changed && cb != nil {
				cb(s.Snapshot(), nil)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("watcher: catalog event", slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
