package models

import (
	"time"

	"github.com/google/uuid"
)

// NamespaceVersion is a snapshot point under a namespace. Version is a
// semantic version string or the literal "main", unique per namespace.
// PrimaryLanguageID references the first language created under the version;
// it serves as the copy-source template for later languages.
type NamespaceVersion struct {
	VersionID         uuid.UUID `json:"versionId"`
	NamespaceID       uuid.UUID `json:"namespaceId"`
	WorkspaceID       uuid.UUID `json:"workspaceId"`
	Version           string    `json:"version"`
	SchemaBlobID      string    `json:"schemaBlobId,omitempty"`
	SchemaSize        int64     `json:"schemaSize"`
	PrimaryLanguageID uuid.UUID `json:"primaryLanguageId,omitempty"`
	UsageLanguages    int       `json:"usageLanguages"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Language is a leaf under a namespace version. Code is unique per version.
// FileBlobID is empty until a translation file has been uploaded.
type Language struct {
	LanguageID  uuid.UUID `json:"languageId"`
	VersionID   uuid.UUID `json:"versionId"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	Code        string    `json:"code"`
	FileBlobID  string    `json:"fileBlobId,omitempty"`
	FileSize    int64     `json:"fileSize"`
	CreatedAt   time.Time `json:"createdAt"`
}
