package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"harmonia/internal/logging"
)

// InboxWatcher watches .harmonia/inbox/*.json for telemetry drops and
// ingests them into the hub. Ingested files are renamed with a .done
// suffix so re-runs do not double-count.
type InboxWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	hub         *Hub
	inboxDir    string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	// Stats for debugging
	filesIngested int
	errors        int
}

// NewInboxWatcher creates a watcher for workspace/.harmonia/inbox.
func NewInboxWatcher(workspaceDir string, hub *Hub) (*InboxWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &InboxWatcher{
		watcher:     watcher,
		hub:         hub,
		inboxDir:    filepath.Join(workspaceDir, ".harmonia", "inbox"),
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // settle window for partial writes
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the inbox directory. Non-blocking.
// Files already sitting in the inbox are ingested immediately.
func (iw *InboxWatcher) Start(ctx context.Context) error {
	iw.mu.Lock()
	if iw.running {
		iw.mu.Unlock()
		return nil // Already running
	}
	iw.running = true
	iw.mu.Unlock()

	if err := os.MkdirAll(iw.inboxDir, 0755); err != nil {
		logging.Get(logging.CategoryTelemetry).Warn("InboxWatcher: failed to create inbox dir %s: %v", iw.inboxDir, err)
	}

	if err := iw.watcher.Add(iw.inboxDir); err != nil {
		logging.Get(logging.CategoryTelemetry).Warn("InboxWatcher: initial watch failed: %v", err)
	} else {
		logging.Telemetry("InboxWatcher: watching %s", iw.inboxDir)
	}

	// Sweep anything that arrived before we started watching.
	if entries, err := os.ReadDir(iw.inboxDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				iw.ingest(filepath.Join(iw.inboxDir, e.Name()))
			}
		}
	}

	go iw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (iw *InboxWatcher) Stop() {
	iw.mu.Lock()
	if !iw.running {
		iw.mu.Unlock()
		return
	}
	iw.running = false
	iw.mu.Unlock()

	close(iw.stopCh)
	<-iw.doneCh

	if err := iw.watcher.Close(); err != nil {
		logging.Get(logging.CategoryTelemetry).Error("InboxWatcher: error closing watcher: %v", err)
	}
	logging.Telemetry("InboxWatcher: stopped")
}

// run is the main event loop.
func (iw *InboxWatcher) run(ctx context.Context) {
	defer close(iw.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-iw.stopCh:
			return

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			iw.handleEvent(event)

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryTelemetry).Error("InboxWatcher error: %v", err)
			iw.mu.Lock()
			iw.errors++
			iw.mu.Unlock()

		case <-debounceTicker.C:
			iw.processDebounced()
		}
	}
}

func (iw *InboxWatcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	logging.TelemetryDebug("InboxWatcher: event for %s", event.Name)
	iw.mu.Lock()
	iw.debounceMap[event.Name] = time.Now()
	iw.mu.Unlock()
}

// processDebounced ingests files whose writes have settled.
func (iw *InboxWatcher) processDebounced() {
	iw.mu.Lock()
	now := time.Now()
	toProcess := make([]string, 0)
	for path, eventTime := range iw.debounceMap {
		if now.Sub(eventTime) >= iw.debounceDur {
			toProcess = append(toProcess, path)
			delete(iw.debounceMap, path)
		}
	}
	iw.mu.Unlock()

	for _, path := range toProcess {
		iw.ingest(path)
	}
}

func (iw *InboxWatcher) ingest(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Get(logging.CategoryTelemetry).Error("InboxWatcher: read failed for %s: %v", path, err)
			iw.mu.Lock()
			iw.errors++
			iw.mu.Unlock()
		}
		return
	}

	if err := iw.hub.ImportJSON(data); err != nil {
		logging.Get(logging.CategoryTelemetry).Error("InboxWatcher: ingest failed for %s: %v", path, err)
		iw.mu.Lock()
		iw.errors++
		iw.mu.Unlock()
		return
	}

	if err := os.Rename(path, path+".done"); err != nil {
		logging.Get(logging.CategoryTelemetry).Warn("InboxWatcher: could not mark %s done: %v", path, err)
	}

	iw.mu.Lock()
	iw.filesIngested++
	iw.mu.Unlock()
	logging.Telemetry("InboxWatcher: ingested %s", filepath.Base(path))
}

// Ingested returns how many files have been ingested.
func (iw *InboxWatcher) Ingested() int {
	iw.mu.Lock()
	defer iw.mu.Unlock()
	return iw.filesIngested
}
