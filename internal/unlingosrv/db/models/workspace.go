package models

import (
	"time"

	"github.com/google/uuid"
)

// Limits holds the per-plan ceilings for a workspace. A zero value means the
// corresponding resource cannot be created at all.
type Limits struct {
	Projects             int `json:"projects"`
	NamespacesPerProject int `json:"namespacesPerProject"`
	LanguagesPerVersion  int `json:"languagesPerVersion"`
	VersionsPerNamespace int `json:"versionsPerNamespace"`
	Requests             int `json:"requests"`
}

// Workspace is the tenant root. OrgID binds the workspace to exactly one
// external organization identity.
type Workspace struct {
	WorkspaceID   uuid.UUID `json:"workspaceId"`
	OrgID         string    `json:"orgId"`
	ContactEmail  string    `json:"contactEmail"`
	Limits        Limits    `json:"limits"`
	UsageProjects int       `json:"usageProjects"`
	CreatedAt     time.Time `json:"createdAt"`
}
