package models

import (
	"time"

	"github.com/google/uuid"
)

// Screenshot belongs to exactly one project. Name is unique per project.
// The image blob is uploaded before the record is created.
type Screenshot struct {
	ScreenshotID uuid.UUID `json:"screenshotId"`
	ProjectID    uuid.UUID `json:"projectId"`
	WorkspaceID  uuid.UUID `json:"workspaceId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageBlobID  string    `json:"imageBlobId"`
	ImageSize    int64     `json:"imageSize"`
	MimeType     string    `json:"mimeType"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ScreenshotContainer is a rectangular region on a screenshot. Position and
// size are percentages of the image dimensions, not pixels.
type ScreenshotContainer struct {
	ContainerID     uuid.UUID `json:"containerId"`
	ScreenshotID    uuid.UUID `json:"screenshotId"`
	WorkspaceID     uuid.UUID `json:"workspaceId"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ScreenshotKeyMapping assigns a translation key, for a given version and
// language, to a container. Unique per (container, version, language, key).
type ScreenshotKeyMapping struct {
	MappingID      uuid.UUID `json:"mappingId"`
	ContainerID    uuid.UUID `json:"containerId"`
	WorkspaceID    uuid.UUID `json:"workspaceId"`
	VersionID      uuid.UUID `json:"versionId"`
	LanguageID     uuid.UUID `json:"languageId"`
	TranslationKey string    `json:"translationKey"`
	CreatedAt      time.Time `json:"createdAt"`
}
