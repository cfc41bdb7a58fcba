package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

// CreateRelease inserts a release. The manifest is stored as JSONB; pair
// validation against live namespaces and versions happens above this layer.
func (mm *metadataManager) CreateRelease(ctx context.Context, release *models.Release) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	release.WorkspaceID = wsID
	if release.ReleaseID == uuid.Nil {
		release.ReleaseID = uuid.New()
	}
	manifest, errdb := json.Marshal(release.Manifest)
	if errdb != nil {
		return dberror.ErrInvalidInput.Msg("unable to serialize release manifest").Err(errdb)
	}

	row := mm.conn().QueryRowContext(ctx, `
		INSERT INTO releases (release_id, project_id, workspace_id, name, tag, manifest)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, tag) DO NOTHING
		RETURNING release_id, created_at;
	`, release.ReleaseID, release.ProjectID, wsID, release.Name, release.Tag, manifest)
	errdb = row.Scan(&release.ReleaseID, &release.CreatedAt)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("tag", release.Tag).Msg("release tag already exists")
			return dberror.ErrAlreadyExists.Msg("release tag already exists in this project")
		}
		if pgErr, ok := errdb.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return dberror.ErrInvalidParent.Msg("project not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Str("tag", release.Tag).Msg("failed to insert release")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const releaseColumns = `release_id, project_id, workspace_id, name, tag, manifest, created_at`

func scanRelease(row rowScanner) (*models.Release, error) {
	r := &models.Release{}
	var manifest []byte
	err := row.Scan(&r.ReleaseID, &r.ProjectID, &r.WorkspaceID, &r.Name, &r.Tag, &manifest, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(manifest) > 0 {
		if err := json.Unmarshal(manifest, &r.Manifest); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// GetRelease retrieves a release scoped to the current workspace.
func (mm *metadataManager) GetRelease(ctx context.Context, releaseID uuid.UUID) (*models.Release, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + releaseColumns + `
		FROM releases
		WHERE release_id = $1 AND workspace_id = $2;
	`
	r, errdb := scanRelease(mm.conn().QueryRowContext(ctx, query, releaseID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("release not found")
			return nil, dberror.ErrNotFound.Msg("release not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve release")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return r, nil
}

// GetReleaseByTag retrieves a release by its project-unique tag.
func (mm *metadataManager) GetReleaseByTag(ctx context.Context, projectID uuid.UUID, tag string) (*models.Release, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, dberror.ErrInvalidInput.Msg("release tag must be provided")
	}
	query := `
		SELECT ` + releaseColumns + `
		FROM releases
		WHERE project_id = $1 AND tag = $2 AND workspace_id = $3;
	`
	r, errdb := scanRelease(mm.conn().QueryRowContext(ctx, query, projectID, tag, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("release not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve release by tag")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return r, nil
}

// UpdateRelease replaces name, tag and manifest. A tag change re-checks the
// project-scoped uniqueness constraint.
func (mm *metadataManager) UpdateRelease(ctx context.Context, release *models.Release) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	manifest, errdb := json.Marshal(release.Manifest)
	if errdb != nil {
		return dberror.ErrInvalidInput.Msg("unable to serialize release manifest").Err(errdb)
	}
	query := `
		UPDATE releases
		SET name = $1, tag = $2, manifest = $3
		WHERE release_id = $4 AND workspace_id = $5
		RETURNING release_id;
	`
	var returned uuid.UUID
	errdb = mm.conn().QueryRowContext(ctx, query, release.Name, release.Tag, manifest, release.ReleaseID, wsID).Scan(&returned)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("release not found")
		}
		if pgErr, ok := errdb.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			log.Ctx(ctx).Info().Str("tag", release.Tag).Msg("release tag already exists")
			return dberror.ErrAlreadyExists.Msg("release tag already exists in this project")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to update release")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// DeleteRelease removes a release. Idempotent.
func (mm *metadataManager) DeleteRelease(ctx context.Context, releaseID uuid.UUID) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	result, errdb := mm.conn().ExecContext(ctx, `
		DELETE FROM releases
		WHERE release_id = $1 AND workspace_id = $2;
	`, releaseID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete release")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("release_id", releaseID.String()).Msg("release not found")
	}
	return nil
}

// ListReleases returns a page of a project's releases, newest first.
func (mm *metadataManager) ListReleases(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Release, models.PageResult, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	page = page.Normalize()
	query := `
		SELECT ` + releaseColumns + `
		FROM releases
		WHERE project_id = $1 AND workspace_id = $2
	`
	args := []any{projectID, wsID}
	cond, cargs, err := cursorPredicate(page.Cursor, "release_id", 3)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, release_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list releases")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var releases []*models.Release
	for rows.Next() {
		r, errdb := scanRelease(rows)
		if errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		releases = append(releases, r)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	if len(releases) <= page.Limit {
		return releases, models.PageResult{Exhausted: true}, nil
	}
	releases = releases[:page.Limit]
	last := releases[len(releases)-1]
	return releases, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.ReleaseID)}, nil
}
