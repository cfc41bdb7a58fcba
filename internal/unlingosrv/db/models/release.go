package models

import (
	"time"

	"github.com/google/uuid"
)

// ReleaseEntry pins one namespace to one of its versions.
type ReleaseEntry struct {
	NamespaceID uuid.UUID `json:"namespaceId"`
	VersionID   uuid.UUID `json:"versionId"`
}

// Release is a named, tagged manifest of (namespace, version) pairs under a
// project. The manifest is a frozen snapshot of identifiers; it references,
// never owns, the records it points at.
type Release struct {
	ReleaseID   uuid.UUID      `json:"releaseId"`
	ProjectID   uuid.UUID      `json:"projectId"`
	WorkspaceID uuid.UUID      `json:"workspaceId"`
	Name        string         `json:"name"`
	Tag         string         `json:"tag"`
	Manifest    []ReleaseEntry `json:"manifest"`
	CreatedAt   time.Time      `json:"createdAt"`
}
