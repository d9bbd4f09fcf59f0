// Package watcher reports settled changes to individual files using fsnotify.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a set of files for changes.
// Files are watched through their parent directory so that editors which
// replace a file by renaming a temp file over it are still observed.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	files   map[string]bool          // watched file paths
	pending map[string]*pendingEvent // path -> pending event info
	mu      sync.Mutex               // protects files and pending

	events   chan Event
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// pendingEvent tracks a file that may still be changing
type pendingEvent struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fw,
		files:   make(map[string]bool),
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a file to be monitored. The file itself need not exist yet,
// but its directory must.
func (w *Watcher) Watch(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w.mu.Lock()
	w.files[path] = true
	w.mu.Unlock()

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add watch: %w", err)
	}

	w.logger.Debug("added watch", "path", path)
	return nil
}

// Start begins watching for events.
// This method blocks until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.processEvents(ctx)

	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return nil
}

// Events returns the channel for receiving file system events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, pending := range w.pending {
			pending.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()

		close(w.events)
		close(w.errors)
	})
	return err
}

// processEvents processes fsnotify events
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watcher error dropped", "error", err)
			}
		}
	}
}

// handleFsnotifyEvent filters to watched files and debounces writes
func (w *Watcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.cancelPending(path)
		w.emitEvent(Event{Type: EventRemoved, Path: path})
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.startSettling(path)
	}
}

// startSettling begins the settling process for a file
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		w.logger.Warn("failed to stat file", "path", path, "error", err)
		delete(w.pending, path)
		return
	}

	pending := &pendingEvent{
		size:    info.Size(),
		modTime: info.ModTime(),
	}
	pending.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		w.checkSettled(path)
	})
	w.pending[path] = pending
}

// checkSettled emits once the file's size and mtime stop changing
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, exists := w.pending[path]
	if !exists {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.emitEvent(Event{Type: EventRemoved, Path: path})
		return
	}

	if info.Size() != pending.size || !info.ModTime().Equal(pending.modTime) {
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		return
	}

	delete(w.pending, path)
	w.emitEvent(Event{
		Type:    EventModified,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// cancelPending cancels a pending event
func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
		delete(w.pending, path)
	}
}

// emitEvent sends an event to the events channel
func (w *Watcher) emitEvent(event Event) {
	select {
	case <-w.done:
		return
	default:
	}

	select {
	case w.events <- event:
	case <-w.done:
	}
}
