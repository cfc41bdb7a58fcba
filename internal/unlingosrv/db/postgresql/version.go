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

// CreateVersion inserts a namespace version and increments the parent
// namespace's version counter in one transaction. The namespace row is
// locked so the per-namespace limit check serializes with concurrent
// creators.
func (mm *metadataManager) CreateVersion(ctx context.Context, version *models.NamespaceVersion) (err apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	version.WorkspaceID = wsID
	if version.VersionID == uuid.Nil {
		version.VersionID = uuid.New()
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
	errdb = tx.QueryRowContext(ctx, `
		SELECT w.limit_versions_per_namespace, n.usage_versions
		FROM namespaces n
		JOIN workspaces w ON w.workspace_id = n.workspace_id
		WHERE n.namespace_id = $1 AND n.workspace_id = $2
		FOR UPDATE OF n;
	`, version.NamespaceID, wsID).Scan(&limit, &usage)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrInvalidParent.Msg("namespace not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to lock namespace row")
		return dberror.ErrDatabase.Err(errdb)
	}
	if usage >= limit {
		log.Ctx(ctx).Info().Int("limit", limit).Msg("version limit reached")
		return dberror.ErrLimitReached.Msg("version limit reached for this namespace")
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO namespace_versions (version_id, namespace_id, workspace_id, version, schema_blob_id, schema_size, usage_languages, active)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		ON CONFLICT (namespace_id, version) DO NOTHING
		RETURNING version_id, created_at;
	`, version.VersionID, version.NamespaceID, wsID, version.Version, version.SchemaBlobID, version.SchemaSize, version.Active)
	errdb = row.Scan(&version.VersionID, &version.CreatedAt)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("version", version.Version).Msg("version already exists")
			return dberror.ErrAlreadyExists.Msg("version already exists in this namespace")
		}
		log.Ctx(ctx).Error().Err(errdb).Str("version", version.Version).Msg("failed to insert version")
		return dberror.ErrDatabase.Err(errdb)
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE namespaces SET usage_versions = usage_versions + 1 WHERE namespace_id = $1;
	`, version.NamespaceID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to increment version usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const versionColumns = `version_id, namespace_id, workspace_id, version, schema_blob_id, schema_size, primary_language_id, usage_languages, active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.NamespaceVersion, error) {
	v := &models.NamespaceVersion{}
	var primary uuid.NullUUID
	err := row.Scan(&v.VersionID, &v.NamespaceID, &v.WorkspaceID, &v.Version, &v.SchemaBlobID, &v.SchemaSize, &primary, &v.UsageLanguages, &v.Active, &v.CreatedAt)
	if primary.Valid {
		v.PrimaryLanguageID = primary.UUID
	}
	return v, err
}

// GetVersion retrieves a version scoped to the current workspace.
func (mm *metadataManager) GetVersion(ctx context.Context, versionID uuid.UUID) (*models.NamespaceVersion, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + versionColumns + `
		FROM namespace_versions
		WHERE version_id = $1 AND workspace_id = $2;
	`
	v, errdb := scanVersion(mm.conn().QueryRowContext(ctx, query, versionID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("version not found")
			return nil, dberror.ErrNotFound.Msg("version not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve version")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return v, nil
}

// GetVersionByString retrieves a version by its namespace-unique version string.
func (mm *metadataManager) GetVersionByString(ctx context.Context, namespaceID uuid.UUID, version string) (*models.NamespaceVersion, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, dberror.ErrInvalidInput.Msg("version string must be provided")
	}
	query := `
		SELECT ` + versionColumns + `
		FROM namespace_versions
		WHERE namespace_id = $1 AND version = $2 AND workspace_id = $3;
	`
	v, errdb := scanVersion(mm.conn().QueryRowContext(ctx, query, namespaceID, version, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("version not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve version by string")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return v, nil
}

// GetActiveVersion retrieves the namespace's single active version.
func (mm *metadataManager) GetActiveVersion(ctx context.Context, namespaceID uuid.UUID) (*models.NamespaceVersion, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + versionColumns + `
		FROM namespace_versions
		WHERE namespace_id = $1 AND workspace_id = $2 AND active;
	`
	v, errdb := scanVersion(mm.conn().QueryRowContext(ctx, query, namespaceID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("no active version for this namespace")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve active version")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return v, nil
}

// SetActiveVersion marks one version active and deactivates the rest of the
// namespace in a single statement.
func (mm *metadataManager) SetActiveVersion(ctx context.Context, namespaceID, versionID uuid.UUID) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	result, errdb := mm.conn().ExecContext(ctx, `
		UPDATE namespace_versions
		SET active = (version_id = $1)
		WHERE namespace_id = $2 AND workspace_id = $3;
	`, versionID, namespaceID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to switch active version")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("namespace has no versions")
	}
	return nil
}

// SetVersionSchema records the uploaded schema blob on a version.
func (mm *metadataManager) SetVersionSchema(ctx context.Context, versionID uuid.UUID, blobID string, size int64) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	result, errdb := mm.conn().ExecContext(ctx, `
		UPDATE namespace_versions
		SET schema_blob_id = $1, schema_size = $2
		WHERE version_id = $3 AND workspace_id = $4;
	`, blobID, size, versionID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to set version schema")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("version not found")
	}
	return nil
}

// SetPrimaryLanguage records the version's template language. Passing the nil
// UUID clears it.
func (mm *metadataManager) SetPrimaryLanguage(ctx context.Context, versionID, languageID uuid.UUID) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	primary := uuid.NullUUID{UUID: languageID, Valid: languageID != uuid.Nil}
	result, errdb := mm.conn().ExecContext(ctx, `
		UPDATE namespace_versions
		SET primary_language_id = $1
		WHERE version_id = $2 AND workspace_id = $3;
	`, primary, versionID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to set primary language")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("version not found")
	}
	return nil
}

// DeleteVersion removes the version row and rolls its language count out of
// the parent namespace's counters. Languages are removed by the deletion
// engine before this is called.
func (mm *metadataManager) DeleteVersion(ctx context.Context, versionID uuid.UUID) (err apperrors.Error) {
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

	var namespaceID uuid.UUID
	var languages int
	errdb = tx.QueryRowContext(ctx, `
		DELETE FROM namespace_versions
		WHERE version_id = $1 AND workspace_id = $2
		RETURNING namespace_id, usage_languages;
	`, versionID, wsID).Scan(&namespaceID, &languages)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("version_id", versionID.String()).Msg("version not found")
			tx.Rollback()
			return nil
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete version")
		return dberror.ErrDatabase.Err(errdb)
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE namespaces
		SET usage_versions = GREATEST(usage_versions - 1, 0),
		    usage_languages = GREATEST(usage_languages - $1, 0)
		WHERE namespace_id = $2;
	`, languages, namespaceID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to decrement version usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// ListVersions returns a page of a namespace's versions, newest first.
func (mm *metadataManager) ListVersions(ctx context.Context, namespaceID uuid.UUID, page models.PageRequest) ([]*models.NamespaceVersion, models.PageResult, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	page = page.Normalize()
	query := `
		SELECT ` + versionColumns + `
		FROM namespace_versions
		WHERE namespace_id = $1 AND workspace_id = $2
	`
	args := []any{namespaceID, wsID}
	cond, cargs, err := cursorPredicate(page.Cursor, "version_id", 3)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, version_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list versions")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var versions []*models.NamespaceVersion
	for rows.Next() {
		v, errdb := scanVersion(rows)
		if errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		versions = append(versions, v)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	if len(versions) <= page.Limit {
		return versions, models.PageResult{Exhausted: true}, nil
	}
	versions = versions[:page.Limit]
	last := versions[len(versions)-1]
	return versions, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.VersionID)}, nil
}
