package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

// UpsertKeyMapping assigns a translation key to a container. Repeating an
// identical assignment is a no-op: the existing mapping's ID comes back on
// the passed model and no new record is created.
func (mm *metadataManager) UpsertKeyMapping(ctx context.Context, mapping *models.ScreenshotKeyMapping) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	mapping.WorkspaceID = wsID
	if mapping.MappingID == uuid.Nil {
		mapping.MappingID = uuid.New()
	}

	row := mm.conn().QueryRowContext(ctx, `
		INSERT INTO screenshot_key_mappings (mapping_id, container_id, workspace_id, version_id, language_id, translation_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (container_id, version_id, language_id, translation_key) DO NOTHING
		RETURNING mapping_id, created_at;
	`, mapping.MappingID, mapping.ContainerID, wsID, mapping.VersionID, mapping.LanguageID, mapping.TranslationKey)
	errdb := row.Scan(&mapping.MappingID, &mapping.CreatedAt)
	if errdb == nil {
		return nil
	}
	if errdb == sql.ErrNoRows {
		errdb = mm.conn().QueryRowContext(ctx, `
			SELECT mapping_id, created_at
			FROM screenshot_key_mappings
			WHERE container_id = $1 AND version_id = $2 AND language_id = $3 AND translation_key = $4 AND workspace_id = $5;
		`, mapping.ContainerID, mapping.VersionID, mapping.LanguageID, mapping.TranslationKey, wsID).
			Scan(&mapping.MappingID, &mapping.CreatedAt)
		if errdb != nil {
			log.Ctx(ctx).Error().Err(errdb).Msg("failed to read back existing key mapping")
			return dberror.ErrDatabase.Err(errdb)
		}
		return nil
	}
	if pgErr, ok := errdb.(*pgconn.PgError); ok && pgErr.Code == "23503" {
		return dberror.ErrInvalidParent.Msg("container not found")
	}
	log.Ctx(ctx).Error().Err(errdb).Str("key", mapping.TranslationKey).Msg("failed to upsert key mapping")
	return dberror.ErrDatabase.Err(errdb)
}

const keyMappingColumns = `mapping_id, container_id, workspace_id, version_id, language_id, translation_key, created_at`

func scanKeyMapping(row rowScanner) (*models.ScreenshotKeyMapping, error) {
	m := &models.ScreenshotKeyMapping{}
	err := row.Scan(&m.MappingID, &m.ContainerID, &m.WorkspaceID, &m.VersionID, &m.LanguageID, &m.TranslationKey, &m.CreatedAt)
	return m, err
}

func (mm *metadataManager) GetKeyMapping(ctx context.Context, mappingID uuid.UUID) (*models.ScreenshotKeyMapping, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + keyMappingColumns + `
		FROM screenshot_key_mappings
		WHERE mapping_id = $1 AND workspace_id = $2;
	`
	m, errdb := scanKeyMapping(mm.conn().QueryRowContext(ctx, query, mappingID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("key mapping not found")
			return nil, dberror.ErrNotFound.Msg("key mapping not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve key mapping")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return m, nil
}

// DeleteKeyMapping removes a mapping. Idempotent.
func (mm *metadataManager) DeleteKeyMapping(ctx context.Context, mappingID uuid.UUID) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	result, errdb := mm.conn().ExecContext(ctx, `
		DELETE FROM screenshot_key_mappings
		WHERE mapping_id = $1 AND workspace_id = $2;
	`, mappingID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete key mapping")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("mapping_id", mappingID.String()).Msg("key mapping not found")
	}
	return nil
}

// ListKeyMappings returns a page of a container's key mappings, newest first.
func (mm *metadataManager) ListKeyMappings(ctx context.Context, containerID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotKeyMapping, models.PageResult, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	page = page.Normalize()
	query := `
		SELECT ` + keyMappingColumns + `
		FROM screenshot_key_mappings
		WHERE container_id = $1 AND workspace_id = $2
	`
	args := []any{containerID, wsID}
	cond, cargs, err := cursorPredicate(page.Cursor, "mapping_id", 3)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, mapping_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list key mappings")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var mappings []*models.ScreenshotKeyMapping
	for rows.Next() {
		m, errdb := scanKeyMapping(rows)
		if errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		mappings = append(mappings, m)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	if len(mappings) <= page.Limit {
		return mappings, models.PageResult{Exhausted: true}, nil
	}
	mappings = mappings[:page.Limit]
	last := mappings[len(mappings)-1]
	return mappings, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.MappingID)}, nil
}
