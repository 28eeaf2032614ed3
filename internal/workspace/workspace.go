// Package workspace implements the core of the mdv server: the registry of
// watched directory roots, path confinement, and the synchronization
// service that ties registrations, change watchers, and the broadcast
// buses together.
package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/mdview/mdv/internal/watcher"
)

// Workspace is a registered directory root. Root is canonical and absolute
// and is never re-resolved after registration. The watcher is owned
// exclusively by the workspace and stops when the workspace is removed.
type Workspace struct {
	ID      string
	Name    string
	Root    string
	watcher *watcher.Watcher
}

// Descriptor is the read-only view of a workspace handed to callers.
type Descriptor struct {
	ID   string
	Name string
	Root string
}

// Descriptor returns the workspace's public view.
func (w *Workspace) Descriptor() Descriptor {
	return Descriptor{ID: w.ID, Name: w.Name, Root: w.Root}
}

// ViewURL returns the browse URL for a workspace id.
func ViewURL(id string) string {
	return "/view/" + id
}

// identify derives the deterministic id and display name for a canonical
// root: the root's last path segment plus four hex digits of a hash of the
// full canonical path, so distinct roots sharing a basename stay distinct.
func identify(canonicalRoot string) (id, name string) {
	name = filepath.Base(canonicalRoot)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "workspace"
	}
	sum := xxhash.Sum64String(canonicalRoot)
	return fmt.Sprintf("%s-%04x", name, sum&0xffff), name
}
