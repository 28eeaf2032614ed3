// Package watcher observes a workspace's directory tree for markdown
// changes. It polls on a fixed interval instead of using OS-native change
// notifications, which keeps behavior uniform across platforms and catches
// editors that save via rename/temp-file swaps.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mdview/mdv/internal/bus"
	"github.com/mdview/mdv/internal/logging"
)

// Watcher polls one workspace root and publishes the workspace id on the
// reload bus whenever a markdown file is created, modified, or removed. It
// runs on its own goroutine, never touches the registry, and holds no lock
// while walking the tree.
type Watcher struct {
	workspaceID string
	root        string
	interval    time.Duration
	reload      *bus.Bus[string]
	log         logging.Logger

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// fileState is the per-file fingerprint compared between polls.
type fileState struct {
	modTime time.Time
	size    int64
}

// New creates a watcher for a canonical workspace root.
func New(workspaceID, root string, interval time.Duration, reload *bus.Bus[string], log logging.Logger) *Watcher {
	return &Watcher{
		workspaceID: workspaceID,
		root:        root,
		interval:    interval,
		reload:      reload,
		log:         log.WithComponent("watcher").With("workspace_id", workspaceID),
		done:        make(chan struct{}),
	}
}

// Start launches the polling goroutine.
func (w *Watcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	go w.run(ctx)
}

// Stop bars further publishes synchronously and signals the goroutine to
// exit; the poll loop itself may take up to one interval to wind down.
// Stop is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Done is closed when the polling goroutine has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	snapshot, err := w.scan()
	if err != nil {
		// Root vanished or is unreadable: a soft failure. The workspace
		// stays registered and browsable, just without live reload.
		w.log.Warn(ctx, err, "watcher failed to initialize, stopping")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next, err := w.scan()
			if err != nil {
				w.log.Warn(ctx, err, "watcher poll failed, stopping")
				return
			}
			if changed(snapshot, next) {
				w.publish()
			}
			snapshot = next
		}
	}
}

// scan walks the tree and fingerprints every markdown file. Dot-entries
// are skipped; unreadable subtrees are ignored. Only an error on the root
// itself is fatal to the watcher.
func (w *Watcher) scan() (map[string]fileState, error) {
	states := make(map[string]fileState)

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return err
			}
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != w.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(name) != ".md" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		states[path] = fileState{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (w *Watcher) publish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.reload.Publish(w.workspaceID)
}

// changed reports whether two snapshots differ: files added, removed, or
// with a new mtime or size.
func changed(prev, next map[string]fileState) bool {
	if len(prev) != len(next) {
		return true
	}
	for path, state := range next {
		old, ok := prev[path]
		if !ok || !old.modTime.Equal(state.modTime) || old.size != state.size {
			return true
		}
	}
	return false
}
