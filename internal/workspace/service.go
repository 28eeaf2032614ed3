package workspace

import (
	"context"
	"path/filepath"
	"time"

	"github.com/mdview/mdv/internal/apperr"
	"github.com/mdview/mdv/internal/bus"
	"github.com/mdview/mdv/internal/logging"
	"github.com/mdview/mdv/internal/remote"
)

// Service orchestrates the workspace registry and the two broadcast buses.
// It is the only type HTTP handlers talk to.
type Service struct {
	registry *Registry
	reload   *bus.Bus[string]
	commands *bus.Bus[remote.Command]
	log      logging.Logger
}

// ActiveFile is the result of resolving an editor-reported path.
type ActiveFile struct {
	URL         string
	WorkspaceID string
}

// NewService wires a registry to fresh reload and command buses.
func NewService(watchInterval time.Duration, log logging.Logger) *Service {
	reload := bus.New[string](bus.DefaultCapacity)
	return &Service{
		registry: NewRegistry(reload, watchInterval, log),
		reload:   reload,
		commands: bus.New[remote.Command](bus.DefaultCapacity),
		log:      log.WithComponent("sync"),
	}
}

// Register adds a workspace for path, starting its watcher. Idempotent per
// canonical root.
func (s *Service) Register(path string) (Descriptor, error) {
	return s.registry.Register(path)
}

// Unregister removes a workspace and stops its watcher.
func (s *Service) Unregister(id string) bool {
	return s.registry.Unregister(id)
}

// Lookup returns the descriptor for a workspace id.
func (s *Service) Lookup(id string) (Descriptor, bool) {
	return s.registry.Lookup(id)
}

// List snapshots all registered workspaces.
func (s *Service) List() []Descriptor {
	return s.registry.List()
}

// SubscribeReload subscribes to reload events. Each event is the id of the
// workspace whose markdown changed; consumers filter to their own id.
func (s *Service) SubscribeReload() (<-chan string, func()) {
	return s.reload.Subscribe()
}

// SubscribeCommands subscribes to the global remote-command stream.
func (s *Service) SubscribeCommands() (<-chan remote.Command, func()) {
	return s.commands.Subscribe()
}

// CommandSubscribers returns the number of live command-bus subscriptions,
// i.e. connected websocket clients.
func (s *Service) CommandSubscribers() int {
	return s.commands.SubscriberCount()
}

// ReloadSubscribers returns the number of live reload-bus subscriptions,
// i.e. open SSE streams.
func (s *Service) ReloadSubscribers() int {
	return s.reload.SubscriberCount()
}

// Scroll broadcasts a scroll-sync command to all viewers.
func (s *Service) Scroll(percent int) {
	s.commands.Publish(remote.Scroll{Percent: percent})
}

// ResolveActive maps an absolute path reported by an editor to the
// workspace containing it and broadcasts Focus then Navigate so connected
// viewers follow along. When several registered roots contain the path the
// longest (most specific) canonical root wins, which keeps nested roots
// deterministic.
func (s *Service) ResolveActive(path string) (ActiveFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ActiveFile{}, apperr.InvalidPathf("cannot resolve %q", path)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return ActiveFile{}, apperr.InvalidPathf("cannot canonicalize %q", path)
	}

	var best Descriptor
	found := false
	for _, d := range s.registry.List() {
		if within(d.Root, canonical) && (!found || len(d.Root) > len(best.Root)) {
			best = d
			found = true
		}
	}
	if !found {
		return ActiveFile{}, apperr.ErrNotInAnyWorkspace
	}

	rel, err := filepath.Rel(best.Root, canonical)
	if err != nil {
		return ActiveFile{}, apperr.ErrNotInAnyWorkspace
	}

	url := ViewURL(best.ID)
	relSlash := ""
	if rel != "." {
		relSlash = filepath.ToSlash(rel)
		url += "/" + relSlash
	}

	// Focus first, then Navigate: subscribers see them in this order.
	s.commands.Publish(remote.Focus{WorkspaceID: best.ID, FilePath: relSlash})
	s.commands.Publish(remote.Navigate{URL: url})

	s.log.Debug(context.Background(), "active file resolved",
		"workspace_id", best.ID, "url", url)

	return ActiveFile{URL: url, WorkspaceID: best.ID}, nil
}

// Close stops all watchers and terminates both buses, ending every
// subscriber stream.
func (s *Service) Close() {
	s.registry.Close()
	s.reload.Close()
	s.commands.Close()
}
