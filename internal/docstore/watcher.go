package docstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/sislog/internal/observability"
)

// Watch follows the database file and its write-ahead log until ctx is
// cancelled. Activity from any process schedules a debounced rescan of
// every subscribed collection; collections whose contents did not change
// are not redelivered.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return err
	}

	watched := map[string]struct{}{
		filepath.Base(abs):          {},
		filepath.Base(abs) + "-wal": {},
	}

	s.logger.Info("docstore: watcher started", slog.String("path", abs))

	var rescanTimer *time.Timer
	var rescanCh <-chan time.Time

	scheduleRescan := func() {
		if rescanTimer == nil {
			rescanTimer = time.NewTimer(s.debounce)
			rescanCh = rescanTimer.C
		} else {
			rescanTimer.Reset(s.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rescanTimer != nil {
				rescanTimer.Stop()
			}
			s.logger.Info("docstore: watcher stopped")
			return nil

		case <-rescanCh:
			observability.RecordRescan()
			s.logger.Debug("docstore: rescan")
			s.notify("")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, ok := watched[filepath.Base(ev.Name)]; !ok {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				scheduleRescan()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("docstore: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
