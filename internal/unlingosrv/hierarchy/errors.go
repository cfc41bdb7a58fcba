// Package hierarchy implements the tenant-scoped entity model: workspaces
// own projects, projects own namespaces, screenshots and releases, and so on
// down to languages and key mappings. Every operation re-verifies the
// ownership chain from the workspace down to its target; nothing is cached
// across requests.
package hierarchy

import (
	"net/http"

	"github.com/unlingo/unlingo/internal/common/apperrors"
)

var (
	ErrHierarchy = apperrors.New("unable to process request").SetStatusCode(http.StatusInternalServerError)

	// ErrUnauthenticated means no org identity was present on the request.
	ErrUnauthenticated = ErrHierarchy.New("not authenticated").SetStatusCode(http.StatusUnauthorized)

	// ErrAccessDenied means the target exists but its ownership chain does
	// not resolve to the caller's workspace. It surfaces with the same
	// status as a missing record so existence never leaks across tenants.
	ErrAccessDenied = ErrHierarchy.New("not found").SetStatusCode(http.StatusNotFound)

	// ErrValidation covers format, length and pattern violations.
	ErrValidation = ErrHierarchy.New("invalid input").SetStatusCode(http.StatusBadRequest)

	// ErrInvalidReference rejects a release manifest pair whose namespace or
	// version does not belong where the manifest claims.
	ErrInvalidReference = ErrHierarchy.New("manifest references an unknown namespace or version").SetStatusCode(http.StatusBadRequest)
)
