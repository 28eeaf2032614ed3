package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mdview/mdv/internal/apperr"
	"github.com/mdview/mdv/internal/bus"
	"github.com/mdview/mdv/internal/logging"
	"github.com/mdview/mdv/internal/watcher"
)

// Registry owns the set of active workspaces. Lookups run concurrently;
// registration and removal are exclusive. No lock is held across disk I/O:
// canonicalization happens before the lock is taken, and callers read file
// contents from descriptor copies after it is released.
type Registry struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace

	reload   *bus.Bus[string]
	interval time.Duration
	log      logging.Logger
}

// NewRegistry creates an empty registry whose watchers publish to reload.
func NewRegistry(reload *bus.Bus[string], interval time.Duration, log logging.Logger) *Registry {
	return &Registry{
		workspaces: make(map[string]*Workspace),
		reload:     reload,
		interval:   interval,
		log:        log.WithComponent("registry"),
	}
}

// Register canonicalizes path, derives its deterministic id, and inserts a
// workspace with a freshly started change watcher. Registering a root that
// canonicalizes to an existing workspace is idempotent: the existing
// descriptor is returned and no second watcher is started.
func (r *Registry) Register(path string) (Descriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Descriptor{}, apperr.InvalidPathf("cannot resolve %q", path)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Descriptor{}, apperr.InvalidPathf("cannot canonicalize %q", path)
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return Descriptor{}, apperr.InvalidPathf("%q is not a directory", path)
	}

	id, name := identify(canonical)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.workspaces[id]; ok {
		return existing.Descriptor(), nil
	}

	w := watcher.New(id, canonical, r.interval, r.reload, r.log)
	w.Start()

	ws := &Workspace{ID: id, Name: name, Root: canonical, watcher: w}
	r.workspaces[id] = ws
	r.log.Info(context.Background(), "workspace registered",
		"workspace_id", id, "root", canonical)

	return ws.Descriptor(), nil
}

// Unregister removes a workspace and reports whether it was present. On
// removal the watcher is stopped before returning, so no reload event for
// the id is published afterward. Unknown ids are not an error.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	ws, ok := r.workspaces[id]
	if ok {
		delete(r.workspaces, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	ws.watcher.Stop()
	r.log.Info(context.Background(), "workspace unregistered", "workspace_id", id)
	return true
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, ok := r.workspaces[id]
	if !ok {
		return Descriptor{}, false
	}
	return ws.Descriptor(), true
}

// List returns a snapshot of all workspaces, ordered by id for stable
// status output.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Descriptor, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		result = append(result, ws.Descriptor())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Close stops every watcher. Used on server shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	workspaces := make([]*Workspace, 0, len(r.workspaces))
	for id, ws := range r.workspaces {
		workspaces = append(workspaces, ws)
		delete(r.workspaces, id)
	}
	r.mu.Unlock()

	for _, ws := range workspaces {
		ws.watcher.Stop()
	}
}
