package catalog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	apperrors "github.com/rencanakan/ahsmatch/internal/errors"
)

// DefaultWatchDebounce batches the event bursts spreadsheet editors emit
// on save into a single reload.
const DefaultWatchDebounce = 500 * time.Millisecond

type watchState struct {
	fsw    *fsnotify.Watcher
	done   chan struct{}
	reload chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts reloading the catalog when its file changes. The parent
// directory is watched so editors that replace the file on save are still
// seen. Events are debounced; unchanged content is skipped by fingerprint
// inside Load. Close stops the watcher.
func (r *CSVRepository) Watch(debounce time.Duration) error {
	if r.watch != nil {
		return nil
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.NewCatalogError("watch", r.path, err)
	}
	if err := fsw.Add(filepath.Dir(r.path)); err != nil {
		fsw.Close()
		return apperrors.NewCatalogError("watch", r.path, err)
	}

	w := &watchState{
		fsw:    fsw,
		done:   make(chan struct{}),
		reload: make(chan struct{}, 1),
	}
	r.watch = w

	r.wg.Add(1)
	go r.watchLoop(w, debounce)

	r.log.Info("watching catalog file",
		zap.String("path", r.path), zap.Duration("debounce", debounce))
	return nil
}

// Close stops the watcher goroutine, if any, and waits for it to exit.
// Safe to call multiple times and without a prior Watch.
func (r *CSVRepository) Close() error {
	r.closeOnce.Do(func() {
		if r.watch == nil {
			return
		}
		close(r.watch.done)
		r.watch.mu.Lock()
		if r.watch.timer != nil {
			r.watch.timer.Stop()
		}
		r.watch.mu.Unlock()
		if err := r.watch.fsw.Close(); err != nil {
			r.log.Warn("closing catalog watcher", zap.Error(err))
		}
	})
	r.wg.Wait()
	return nil
}

func (r *CSVRepository) watchLoop(w *watchState, debounce time.Duration) {
	defer r.wg.Done()
	target := filepath.Clean(r.path)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(debounce, func() {
				select {
				case w.reload <- struct{}{}:
				default:
				}
			})
			w.mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			r.log.Warn("catalog watcher error", zap.Error(err))

		case <-w.reload:
			if err := r.Load(); err != nil {
				r.log.Warn("catalog reload failed",
					zap.String("path", r.path), zap.Error(err))
			}
		}
	}
}
