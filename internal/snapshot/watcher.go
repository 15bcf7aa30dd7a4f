package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/asheshgoplani/tabdeck/internal/platform"
)

// Watcher calls a function whenever the snapshot file changes. Bursts of
// file events are coalesced and callbacks are rate limited.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	limiter  *rate.Limiter
	onChange func()

	pending   chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWatcher watches path and calls onChange at most perSecond times a
// second. The directory holding path must exist.
func NewWatcher(path string, perSecond float64, onChange func()) (*Watcher, error) {
	if perSecond <= 0 {
		perSecond = 4
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("snapshot: watcher: %w", err)
	}
	// The extension replaces the file by rename, so the directory is
	// watched rather than the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("snapshot: watch %s: %w", filepath.Dir(path), err)
	}

	if warning := platform.WatchWarning(path); warning != "" {
		snapLog.Warn("watch_unreliable", slog.String("path", path), slog.String("reason", warning))
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     filepath.Clean(path),
		fs:       fsw,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		onChange: onChange,
		pending:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	w.wg.Add(2)
	go w.eventLoop()
	go w.dispatchLoop()
	return w, nil
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.pending <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			snapLog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) dispatchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.pending:
			if err := w.limiter.Wait(w.ctx); err != nil {
				return
			}
			snapLog.Debug("snapshot_changed", slog.String("path", w.path))
			w.onChange()
		}
	}
}

// Close stops the watcher and waits for its goroutines. Safe to call more
// than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.cancel()
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}
