// Package apperr defines the error taxonomy shared by the workspace core
// and the HTTP layer. Rejections that stem from path confinement are folded
// into NotFound on purpose so responses never disclose whether a path exists
// outside a workspace root.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidPath marks input that cannot be canonicalized or is not a
	// directory. Always a client error, never fatal.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound covers unknown workspace ids, paths resolving outside
	// their root, and entities missing on disk, uniformly.
	ErrNotFound = errors.New("not found")

	// ErrNotInAnyWorkspace is reported by active-file resolution when no
	// registered workspace root contains the given path.
	ErrNotInAnyWorkspace = errors.New("file not in any registered workspace")
)

// InvalidPathf wraps ErrInvalidPath with a caller-facing message.
func InvalidPathf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidPath)...)
}

// HTTPStatus maps a taxonomy error to its response status. Unrecognized
// errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotInAnyWorkspace):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
