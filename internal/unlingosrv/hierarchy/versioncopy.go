package hierarchy

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

// copyVersionContents duplicates the source version's language set into the
// destination. Each language row is created even when its file copy fails or
// the source had no file, preserving the language set; blob copies get a few
// retries and are then given up on. The destination version is never rolled
// back because of copy failures.
func copyVersionContents(ctx context.Context, source, dest *models.NamespaceVersion) {
	var languages []*models.Language
	page := models.PageRequest{Limit: models.MaxPageLimit}
	for {
		batch, result, err := db.DB(ctx).ListLanguages(ctx, source.VersionID, page)
		if err != nil {
			log.Ctx(ctx).Warn().Str("version_id", source.VersionID.String()).Msg("failed to enumerate source languages for copy")
			return
		}
		languages = append(languages, batch...)
		if result.Exhausted {
			break
		}
		page.Cursor = result.Cursor
	}

	for _, src := range languages {
		lang := &models.Language{
			VersionID: dest.VersionID,
			Code:      src.Code,
		}
		if err := db.DB(ctx).CreateLanguage(ctx, lang); err != nil {
			log.Ctx(ctx).Warn().Str("code", src.Code).Msg("failed to create language during version copy")
			continue
		}
		if src.FileBlobID == "" {
			continue
		}
		if err := copyLanguageFile(ctx, src, lang); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("code", src.Code).Msg("failed to copy language file during version copy")
		}
	}
	log.Ctx(ctx).Info().
		Str("source_version_id", source.VersionID.String()).
		Str("version_id", dest.VersionID.String()).
		Int("languages", len(languages)).
		Msg("version contents copied")
}

// copyLanguageFile clones a file blob onto a freshly created language row.
func copyLanguageFile(ctx context.Context, src, dst *models.Language) apperrors.Error {
	var content []byte
	err := retry.Do(func() error {
		var gerr apperrors.Error
		content, gerr = objectstore.Default().Get(ctx, src.FileBlobID)
		if gerr != nil {
			if gerr.Is(objectstore.ErrBlobNotFound) {
				return retry.Unrecoverable(gerr)
			}
			return gerr
		}
		return nil
	}, retry.Attempts(3), retry.Delay(200*time.Millisecond), retry.Context(ctx))
	if err != nil {
		return objectstore.ErrObjectStore.MsgErr("failed to download source file", err)
	}

	var blobID string
	err = retry.Do(func() error {
		var perr apperrors.Error
		blobID, perr = objectstore.Default().Put(ctx, content, "application/json")
		if perr != nil {
			return perr
		}
		return nil
	}, retry.Attempts(3), retry.Delay(200*time.Millisecond), retry.Context(ctx))
	if err != nil {
		return objectstore.ErrObjectStore.MsgErr("failed to upload copied file", err)
	}

	if serr := db.DB(ctx).SetLanguageFile(ctx, dst.LanguageID, blobID, int64(len(content))); serr != nil {
		objectstore.Default().Delete(ctx, blobID)
		return serr
	}
	return nil
}
