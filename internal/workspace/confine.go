package workspace

import (
	"path/filepath"
	"strings"

	"github.com/mdview/mdv/internal/apperr"
)

// Resolve joins a caller-supplied relative path onto a workspace root and
// canonicalizes the result, accepting it only if it stays at or below the
// root's own canonical form. The root is re-canonicalized on every call
// because symlinks under it can change between registration and request.
//
// Canonicalization requires the target to exist on disk, so nonexistent
// paths are rejected alongside traversal attempts, and both surface as the
// same generic not-found.
func Resolve(root, requested string) (string, error) {
	cleaned := strings.TrimLeft(requested, "/")
	full := filepath.Join(root, cleaned)

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", apperr.ErrNotFound
	}

	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", apperr.ErrNotFound
	}

	if !within(canonicalRoot, resolved) {
		return "", apperr.ErrNotFound
	}
	return resolved, nil
}

// within reports whether path equals root or is a descendant of it. Both
// arguments must already be canonical.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
