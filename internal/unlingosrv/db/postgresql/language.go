package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

// CreateLanguage inserts a language under a version. The version row is
// locked for the limit check; on success the version's and the namespace's
// language counters move together, and the first language under a version
// becomes its primary language.
func (mm *metadataManager) CreateLanguage(ctx context.Context, lang *models.Language) (err apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	lang.WorkspaceID = wsID
	if lang.LanguageID == uuid.Nil {
		lang.LanguageID = uuid.New()
	}

	tx, errdb := mm.conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var limit, usage int
	var namespaceID uuid.UUID
	var primary uuid.NullUUID
	errdb = tx.QueryRowContext(ctx, `
		SELECT w.limit_languages_per_version, v.usage_languages, v.namespace_id, v.primary_language_id
		FROM namespace_versions v
		JOIN workspaces w ON w.workspace_id = v.workspace_id
		WHERE v.version_id = $1 AND v.workspace_id = $2
		FOR UPDATE OF v;
	`, lang.VersionID, wsID).Scan(&limit, &usage, &namespaceID, &primary)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrInvalidParent.Msg("version not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to lock version row")
		return dberror.ErrDatabase.Err(errdb)
	}
	if usage >= limit {
		log.Ctx(ctx).Info().Int("limit", limit).Msg("language limit reached")
		return dberror.ErrLimitReached.Msg("language limit reached for this version")
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO languages (language_id, version_id, workspace_id, code, file_blob_id, file_size)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (version_id, code) DO NOTHING
		RETURNING language_id, created_at;
	`, lang.LanguageID, lang.VersionID, wsID, lang.Code, lang.FileBlobID, lang.FileSize)
	errdb = row.Scan(&lang.LanguageID, &lang.CreatedAt)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("code", lang.Code).Msg("language already exists")
			return dberror.ErrAlreadyExists.Msg("language code already exists in this version")
		}
		log.Ctx(ctx).Error().Err(errdb).Str("code", lang.Code).Msg("failed to insert language")
		return dberror.ErrDatabase.Err(errdb)
	}

	if primary.Valid {
		_, errdb = tx.ExecContext(ctx, `
			UPDATE namespace_versions SET usage_languages = usage_languages + 1 WHERE version_id = $1;
		`, lang.VersionID)
	} else {
		_, errdb = tx.ExecContext(ctx, `
			UPDATE namespace_versions SET usage_languages = usage_languages + 1, primary_language_id = $2 WHERE version_id = $1;
		`, lang.VersionID, lang.LanguageID)
	}
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to increment language usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE namespaces SET usage_languages = usage_languages + 1 WHERE namespace_id = $1;
	`, namespaceID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to increment namespace language usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const languageColumns = `language_id, version_id, workspace_id, code, file_blob_id, file_size, created_at`

func scanLanguage(row rowScanner) (*models.Language, error) {
	l := &models.Language{}
	err := row.Scan(&l.LanguageID, &l.VersionID, &l.WorkspaceID, &l.Code, &l.FileBlobID, &l.FileSize, &l.CreatedAt)
	return l, err
}

// GetLanguage retrieves a language scoped to the current workspace.
func (mm *metadataManager) GetLanguage(ctx context.Context, languageID uuid.UUID) (*models.Language, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + languageColumns + `
		FROM languages
		WHERE language_id = $1 AND workspace_id = $2;
	`
	l, errdb := scanLanguage(mm.conn().QueryRowContext(ctx, query, languageID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("language not found")
			return nil, dberror.ErrNotFound.Msg("language not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve language")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return l, nil
}

// GetLanguageByCode retrieves a language by its version-unique code.
func (mm *metadataManager) GetLanguageByCode(ctx context.Context, versionID uuid.UUID, code string) (*models.Language, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, dberror.ErrInvalidInput.Msg("language code must be provided")
	}
	query := `
		SELECT ` + languageColumns + `
		FROM languages
		WHERE version_id = $1 AND code = $2 AND workspace_id = $3;
	`
	l, errdb := scanLanguage(mm.conn().QueryRowContext(ctx, query, versionID, code, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("language not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve language by code")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return l, nil
}

// SetLanguageFile records the uploaded translation file blob on a language.
func (mm *metadataManager) SetLanguageFile(ctx context.Context, languageID uuid.UUID, blobID string, size int64) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	result, errdb := mm.conn().ExecContext(ctx, `
		UPDATE languages
		SET file_blob_id = $1, file_size = $2
		WHERE language_id = $3 AND workspace_id = $4;
	`, blobID, size, languageID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to set language file")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("language not found")
	}
	return nil
}

// DeleteLanguage removes the language row and floor-decrements both language
// counters. If it was the version's primary language the reference is
// cleared.
func (mm *metadataManager) DeleteLanguage(ctx context.Context, languageID uuid.UUID) (err apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}

	tx, errdb := mm.conn().BeginTx(ctx, &sql.TxOptions{})
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to start transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var versionID uuid.UUID
	errdb = tx.QueryRowContext(ctx, `
		DELETE FROM languages
		WHERE language_id = $1 AND workspace_id = $2
		RETURNING version_id;
	`, languageID, wsID).Scan(&versionID)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("language_id", languageID.String()).Msg("language not found")
			tx.Rollback()
			return nil
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete language")
		return dberror.ErrDatabase.Err(errdb)
	}

	var namespaceID uuid.UUID
	errdb = tx.QueryRowContext(ctx, `
		UPDATE namespace_versions
		SET usage_languages = GREATEST(usage_languages - 1, 0),
		    primary_language_id = CASE WHEN primary_language_id = $1 THEN NULL ELSE primary_language_id END
		WHERE version_id = $2
		RETURNING namespace_id;
	`, languageID, versionID).Scan(&namespaceID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to decrement language usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE namespaces SET usage_languages = GREATEST(usage_languages - 1, 0) WHERE namespace_id = $1;
	`, namespaceID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to decrement namespace language usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// ListLanguages returns a page of a version's languages, newest first.
func (mm *metadataManager) ListLanguages(ctx context.Context, versionID uuid.UUID, page models.PageRequest) ([]*models.Language, models.PageResult, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	page = page.Normalize()
	query := `
		SELECT ` + languageColumns + `
		FROM languages
		WHERE version_id = $1 AND workspace_id = $2
	`
	args := []any{versionID, wsID}
	cond, cargs, err := cursorPredicate(page.Cursor, "language_id", 3)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, language_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list languages")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var languages []*models.Language
	for rows.Next() {
		l, errdb := scanLanguage(rows)
		if errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		languages = append(languages, l)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	if len(languages) <= page.Limit {
		return languages, models.PageResult{Exhausted: true}, nil
	}
	languages = languages[:page.Limit]
	last := languages[len(languages)-1]
	return languages, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.LanguageID)}, nil
}
