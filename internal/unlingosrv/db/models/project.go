package models

import (
	"time"

	"github.com/google/uuid"
)

// Project belongs to exactly one workspace. Name is unique per workspace.
type Project struct {
	ProjectID       uuid.UUID `json:"projectId"`
	WorkspaceID     uuid.UUID `json:"workspaceId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	IdentityRef     string    `json:"identityRef"`
	UsageNamespaces int       `json:"usageNamespaces"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Namespace belongs to exactly one project.
type Namespace struct {
	NamespaceID    uuid.UUID `json:"namespaceId"`
	ProjectID      uuid.UUID `json:"projectId"`
	WorkspaceID    uuid.UUID `json:"workspaceId"`
	Name           string    `json:"name"`
	UsageVersions  int       `json:"usageVersions"`
	UsageLanguages int       `json:"usageLanguages"`
	CreatedAt      time.Time `json:"createdAt"`
}
