package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

type CreateScreenshotRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
	MimeType    string `json:"mimeType" validate:"required,max=64"`
	Width       int    `json:"width" validate:"gt=0"`
	Height      int    `json:"height" validate:"gt=0"`
}

// CreateScreenshot uploads the image blob first and rolls it back if any
// later validation or insert fails, so a rejected create leaves no blob
// behind.
func CreateScreenshot(ctx context.Context, workspaceID, projectID uuid.UUID, req *CreateScreenshotRequest, image []byte) (*models.Screenshot, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, ErrValidation.Msg("image content is empty")
	}
	if len(image) > objectstore.MaxBlobSize {
		return nil, ErrValidation.Msg("image exceeds the 10 MiB limit")
	}
	if _, err := db.DB(ctx).GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	blobID, err := objectstore.Default().Put(ctx, image, req.MimeType)
	if err != nil {
		return nil, err
	}
	screenshot := &models.Screenshot{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		ImageBlobID: blobID,
		ImageSize:   int64(len(image)),
		MimeType:    req.MimeType,
		Width:       req.Width,
		Height:      req.Height,
	}
	if err := db.DB(ctx).CreateScreenshot(ctx, screenshot); err != nil {
		if derr := objectstore.Default().Delete(ctx, blobID); derr != nil {
			log.Ctx(ctx).Warn().Str("blob_id", blobID).Msg("failed to roll back screenshot blob")
		}
		return nil, err
	}
	log.Ctx(ctx).Info().Str("screenshot_id", screenshot.ScreenshotID.String()).Msg("screenshot created")
	return screenshot, nil
}

func GetScreenshot(ctx context.Context, workspaceID, screenshotID uuid.UUID) (*models.Screenshot, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return db.DB(ctx).GetScreenshot(ctx, screenshotID)
}

// GetScreenshotImageURL resolves the externally served location of the image.
func GetScreenshotImageURL(ctx context.Context, workspaceID, screenshotID uuid.UUID) (string, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	screenshot, err := db.DB(ctx).GetScreenshot(ctx, screenshotID)
	if err != nil {
		return "", err
	}
	return objectstore.Default().GetURL(ctx, screenshot.ImageBlobID)
}

type UpdateScreenshotRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
}

func UpdateScreenshot(ctx context.Context, workspaceID, screenshotID uuid.UUID, req *UpdateScreenshotRequest) (*models.Screenshot, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	screenshot, err := db.DB(ctx).GetScreenshot(ctx, screenshotID)
	if err != nil {
		return nil, err
	}
	screenshot.Name = req.Name
	screenshot.Description = req.Description
	if err := db.DB(ctx).UpdateScreenshot(ctx, screenshot); err != nil {
		return nil, err
	}
	return screenshot, nil
}

func ListScreenshots(ctx context.Context, workspaceID, projectID uuid.UUID, page models.PageRequest) ([]*models.Screenshot, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	if _, err := db.DB(ctx).GetProject(ctx, projectID); err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListScreenshots(ctx, projectID, page)
}

// ContainerRequest positions a rectangle on a screenshot. Coordinates and
// size are percentages of the image dimensions.
type ContainerRequest struct {
	X               float64 `json:"x" validate:"gte=0,lte=100"`
	Y               float64 `json:"y" validate:"gte=0,lte=100"`
	Width           float64 `json:"width" validate:"gt=0,lte=100"`
	Height          float64 `json:"height" validate:"gt=0,lte=100"`
	BackgroundColor string  `json:"backgroundColor" validate:"max=32"`
	Description     string  `json:"description" validate:"max=1024"`
}

func CreateContainer(ctx context.Context, workspaceID, screenshotID uuid.UUID, req *ContainerRequest) (*models.ScreenshotContainer, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := db.DB(ctx).GetScreenshot(ctx, screenshotID); err != nil {
		return nil, err
	}
	container := &models.ScreenshotContainer{
		ScreenshotID:    screenshotID,
		X:               req.X,
		Y:               req.Y,
		Width:           req.Width,
		Height:          req.Height,
		BackgroundColor: req.BackgroundColor,
		Description:     req.Description,
	}
	if err := db.DB(ctx).CreateContainer(ctx, container); err != nil {
		return nil, err
	}
	return container, nil
}

func UpdateContainer(ctx context.Context, workspaceID, containerID uuid.UUID, req *ContainerRequest) (*models.ScreenshotContainer, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	container, err := db.DB(ctx).GetContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}
	container.X = req.X
	container.Y = req.Y
	container.Width = req.Width
	container.Height = req.Height
	container.BackgroundColor = req.BackgroundColor
	container.Description = req.Description
	if err := db.DB(ctx).UpdateContainer(ctx, container); err != nil {
		return nil, err
	}
	return container, nil
}

func ListContainers(ctx context.Context, workspaceID, screenshotID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotContainer, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	if _, err := db.DB(ctx).GetScreenshot(ctx, screenshotID); err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListContainers(ctx, screenshotID, page)
}

type AssignKeyRequest struct {
	VersionID      uuid.UUID `json:"versionId" validate:"required"`
	LanguageID     uuid.UUID `json:"languageId" validate:"required"`
	TranslationKey string    `json:"translationKey" validate:"required,max=256"`
}

// AssignKeyToContainer maps a translation key onto a container. Idempotent:
// an identical repeat assignment returns the existing mapping.
func AssignKeyToContainer(ctx context.Context, workspaceID, containerID uuid.UUID, req *AssignKeyRequest) (*models.ScreenshotKeyMapping, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := db.DB(ctx).GetContainer(ctx, containerID); err != nil {
		return nil, err
	}
	lang, err := db.DB(ctx).GetLanguage(ctx, req.LanguageID)
	if err != nil {
		return nil, err
	}
	if lang.VersionID != req.VersionID {
		log.Ctx(ctx).Info().Str("language_id", req.LanguageID.String()).Msg("language version mismatch")
		return nil, ErrAccessDenied
	}
	mapping := &models.ScreenshotKeyMapping{
		ContainerID:    containerID,
		VersionID:      req.VersionID,
		LanguageID:     req.LanguageID,
		TranslationKey: req.TranslationKey,
	}
	if err := db.DB(ctx).UpsertKeyMapping(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

func ListKeyMappings(ctx context.Context, workspaceID, containerID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotKeyMapping, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	if _, err := db.DB(ctx).GetContainer(ctx, containerID); err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListKeyMappings(ctx, containerID, page)
}

func DeleteKeyMapping(ctx context.Context, workspaceID, mappingID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	return db.DB(ctx).DeleteKeyMapping(ctx, mappingID)
}
