package alert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"nova-drive-be/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// FileFeed reads the JSON document the vision pipeline writes to disk. Once
// Start is called the parsed snapshot is cached and refreshed on file events;
// before that, or after the watcher fails, every Current call reads the file.
type FileFeed struct {
	path   string
	logger logger.ILogger

	mu      sync.RWMutex
	cached  Snapshot
	valid   bool
	watcher *fsnotify.Watcher
	doneCh  chan struct{}
}

func NewFileFeed(path string, log logger.ILogger) *FileFeed {
	return &FileFeed{path: path, logger: log}
}

// Start watches the directory holding the file so atomic replaces are seen.
// It is non-blocking; the watch ends with ctx or Close.
func (f *FileFeed) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return fmt.Errorf("create alert dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	f.mu.Lock()
	f.watcher = watcher
	f.doneCh = make(chan struct{})
	f.mu.Unlock()

	f.reload()
	go f.run(ctx, watcher)

	f.logger.Info("AlertFeed", "Watching alert file", map[string]interface{}{
		"path": f.path,
	})
	return nil
}

func (f *FileFeed) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(f.doneCh)
	target := filepath.Clean(f.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				f.reload()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.invalidate()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Error("AlertFeed", "Watcher error", map[string]interface{}{
				"error": err.Error(),
			})
			f.invalidate()
		}
	}
}

func (f *FileFeed) reload() {
	snap, err := f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		// A half-written file is common; keep reading from disk until it parses.
		f.valid = false
		return
	}
	f.cached, f.valid = snap, true
}

func (f *FileFeed) invalidate() {
	f.mu.Lock()
	f.valid = false
	f.mu.Unlock()
}

func (f *FileFeed) read() (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoData
		}
		return Snapshot{}, fmt.Errorf("read alert file: %w", err)
	}
	return Parse(data)
}

func (f *FileFeed) Current(context.Context) (Snapshot, error) {
	f.mu.RLock()
	snap, ok := f.cached, f.valid
	f.mu.RUnlock()
	if ok {
		return snap, nil
	}
	return f.read()
}

// Close stops the watcher and waits for the event loop to exit.
func (f *FileFeed) Close() error {
	f.mu.Lock()
	w, done := f.watcher, f.doneCh
	f.watcher = nil
	f.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}
