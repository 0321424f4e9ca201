package mockapi

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hiredesk/internal/logging"
)

// FixtureWatcher reloads a fixtures file into a Server when it changes on disk.
// It watches the parent directory so editors that replace the file on save
// are still seen.
type FixtureWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	server      *Server
	path        string
	pending     time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	reloads     int
}

// NewFixtureWatcher creates a watcher for path feeding server.
func NewFixtureWatcher(path string, server *Server) (*FixtureWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FixtureWatcher{
		watcher:     w,
		server:      server,
		path:        abs,
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce changes how long writes must settle before a reload.
func (fw *FixtureWatcher) SetDebounce(d time.Duration) {
	fw.mu.Lock()
	fw.debounceDur = d
	fw.mu.Unlock()
}

// Reloads returns how many successful reloads have happened.
func (fw *FixtureWatcher) Reloads() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.reloads
}

// Start begins watching. It is non-blocking.
func (fw *FixtureWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", fw.path, err)
	}
	logging.Mock("watching fixtures %s", fw.path)

	go fw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (fw *FixtureWatcher) Stop() {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		fw.watcher.Close()
		return
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.stopCh)
	<-fw.doneCh

	if err := fw.watcher.Close(); err != nil {
		logging.MockError("fixture watcher: error closing: %v", err)
	}
}

func (fw *FixtureWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logging.MockDebug("fixture watcher: %s", event)
			fw.mu.Lock()
			fw.pending = time.Now()
			fw.mu.Unlock()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.MockError("fixture watcher: %v", err)

		case <-ticker.C:
			fw.processPending()
		}
	}
}

func (fw *FixtureWatcher) processPending() {
	fw.mu.Lock()
	if fw.pending.IsZero() || time.Since(fw.pending) < fw.debounceDur {
		fw.mu.Unlock()
		return
	}
	fw.pending = time.Time{}
	fw.mu.Unlock()

	f, err := LoadFixtures(fw.path)
	if err != nil {
		// keep serving the previous fixtures
		logging.MockWarn("fixture reload failed: %v", err)
		return
	}
	fw.server.Load(f)

	fw.mu.Lock()
	fw.reloads++
	fw.mu.Unlock()
}
