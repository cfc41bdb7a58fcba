package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

type CreateLanguageRequest struct {
	Code string `json:"code" validate:"required,langcode"`
}

// CreateLanguageResult carries the new record plus, when a primary language
// with a file exists, the URL of that file so the caller can seed the new
// language from it. The content is not duplicated automatically.
type CreateLanguageResult struct {
	Language        *models.Language `json:"language"`
	TemplateFileURL string           `json:"templateFileUrl,omitempty"`
}

func CreateLanguage(ctx context.Context, workspaceID, versionID uuid.UUID, req *CreateLanguageRequest) (*CreateLanguageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	req.Code = NormalizeLanguageCode(req.Code)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	version, err := db.DB(ctx).GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	lang := &models.Language{
		VersionID: version.VersionID,
		Code:      req.Code,
	}
	if err := db.DB(ctx).CreateLanguage(ctx, lang); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("language_id", lang.LanguageID.String()).Str("code", lang.Code).Msg("language created")

	result := &CreateLanguageResult{Language: lang}
	if version.PrimaryLanguageID != uuid.Nil && version.PrimaryLanguageID != lang.LanguageID {
		primary, perr := db.DB(ctx).GetLanguage(ctx, version.PrimaryLanguageID)
		if perr == nil && primary.FileBlobID != "" {
			url, uerr := objectstore.Default().GetURL(ctx, primary.FileBlobID)
			if uerr != nil {
				log.Ctx(ctx).Warn().Str("blob_id", primary.FileBlobID).Msg("failed to resolve template file")
			} else {
				result.TemplateFileURL = url
			}
		}
	}
	return result, nil
}

func GetLanguage(ctx context.Context, workspaceID, languageID uuid.UUID) (*models.Language, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return db.DB(ctx).GetLanguage(ctx, languageID)
}

func ListLanguages(ctx context.Context, workspaceID, versionID uuid.UUID, page models.PageRequest) ([]*models.Language, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	if _, err := db.DB(ctx).GetVersion(ctx, versionID); err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListLanguages(ctx, versionID, page)
}

// UploadLanguageFile stores a translation file and attaches it to the
// language, replacing and cleaning up any previous file. When the version
// carries a JSON schema, the content must validate against it.
func UploadLanguageFile(ctx context.Context, workspaceID, languageID uuid.UUID, content []byte) (*models.Language, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(content) {
		return nil, ErrValidation.Msg("translation file is not valid JSON")
	}
	lang, err := db.DB(ctx).GetLanguage(ctx, languageID)
	if err != nil {
		return nil, err
	}
	version, err := db.DB(ctx).GetVersion(ctx, lang.VersionID)
	if err != nil {
		return nil, err
	}
	if version.SchemaBlobID != "" {
		if err := validateAgainstSchema(ctx, version.SchemaBlobID, content); err != nil {
			return nil, err
		}
	}

	blobID, err := objectstore.Default().Put(ctx, content, "application/json")
	if err != nil {
		return nil, err
	}
	if err := db.DB(ctx).SetLanguageFile(ctx, languageID, blobID, int64(len(content))); err != nil {
		objectstore.Default().Delete(ctx, blobID)
		return nil, err
	}
	if lang.FileBlobID != "" {
		if derr := objectstore.Default().Delete(ctx, lang.FileBlobID); derr != nil {
			log.Ctx(ctx).Warn().Str("blob_id", lang.FileBlobID).Msg("failed to delete replaced file blob")
		}
	}
	lang.FileBlobID = blobID
	lang.FileSize = int64(len(content))
	return lang, nil
}

// GetLanguageFile returns the translation file content for a language.
func GetLanguageFile(ctx context.Context, workspaceID, languageID uuid.UUID) ([]byte, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	lang, err := db.DB(ctx).GetLanguage(ctx, languageID)
	if err != nil {
		return nil, err
	}
	if lang.FileBlobID == "" {
		return nil, dberror.ErrNotFound.Msg("language has no file")
	}
	return objectstore.Default().Get(ctx, lang.FileBlobID)
}
