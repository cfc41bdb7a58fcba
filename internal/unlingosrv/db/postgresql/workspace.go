package postgresql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

const workspaceColumns = `workspace_id, org_id, contact_email,
	limit_projects, limit_namespaces_per_project, limit_languages_per_version,
	limit_versions_per_namespace, limit_requests, usage_projects, created_at`

func scanWorkspace(row *sql.Row) (*models.Workspace, error) {
	ws := &models.Workspace{}
	err := row.Scan(&ws.WorkspaceID, &ws.OrgID, &ws.ContactEmail,
		&ws.Limits.Projects, &ws.Limits.NamespacesPerProject, &ws.Limits.LanguagesPerVersion,
		&ws.Limits.VersionsPerNamespace, &ws.Limits.Requests, &ws.UsageProjects, &ws.CreatedAt)
	return ws, err
}

// CreateWorkspace creates the tenant root. Exactly one workspace may exist
// per external organization identity; a second create for the same org fails
// with ErrAlreadyExists.
func (mm *metadataManager) CreateWorkspace(ctx context.Context, ws *models.Workspace) apperrors.Error {
	if ws.OrgID == "" {
		return dberror.ErrInvalidInput.Msg("org ID cannot be empty")
	}
	if ws.WorkspaceID == uuid.Nil {
		ws.WorkspaceID = uuid.New()
	}

	query := `
		INSERT INTO workspaces (workspace_id, org_id, contact_email,
			limit_projects, limit_namespaces_per_project, limit_languages_per_version,
			limit_versions_per_namespace, limit_requests, usage_projects)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		ON CONFLICT (org_id) DO NOTHING
		RETURNING workspace_id, created_at;
	`
	row := mm.conn().QueryRowContext(ctx, query, ws.WorkspaceID, ws.OrgID, ws.ContactEmail,
		ws.Limits.Projects, ws.Limits.NamespacesPerProject, ws.Limits.LanguagesPerVersion,
		ws.Limits.VersionsPerNamespace, ws.Limits.Requests)
	err := row.Scan(&ws.WorkspaceID, &ws.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("org_id", ws.OrgID).Msg("workspace already exists for org")
			return dberror.ErrAlreadyExists.Msg("workspace already exists")
		}
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return dberror.ErrAlreadyExists.Msg("workspace already exists")
		}
		log.Ctx(ctx).Error().Err(err).Str("org_id", ws.OrgID).Msg("failed to insert workspace")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// GetWorkspace retrieves a workspace by ID. This lookup runs before the
// workspace scope is set, so it filters by primary key only; the caller is
// responsible for verifying the org binding.
func (mm *metadataManager) GetWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, apperrors.Error) {
	if workspaceID == uuid.Nil {
		return nil, dberror.ErrInvalidInput.Msg("workspace ID must be provided")
	}
	query := `
		SELECT ` + workspaceColumns + `
		FROM workspaces
		WHERE workspace_id = $1;
	`
	ws, err := scanWorkspace(mm.conn().QueryRowContext(ctx, query, workspaceID))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("workspace not found")
			return nil, dberror.ErrNotFound.Msg("workspace not found")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to retrieve workspace")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return ws, nil
}

// GetWorkspaceByOrg retrieves the workspace bound to an organization identity.
func (mm *metadataManager) GetWorkspaceByOrg(ctx context.Context, orgID string) (*models.Workspace, apperrors.Error) {
	if orgID == "" {
		return nil, dberror.ErrInvalidInput.Msg("org ID must be provided")
	}
	query := `
		SELECT ` + workspaceColumns + `
		FROM workspaces
		WHERE org_id = $1;
	`
	ws, err := scanWorkspace(mm.conn().QueryRowContext(ctx, query, orgID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("workspace not found")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to retrieve workspace by org")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return ws, nil
}

// UpdateWorkspaceLimits replaces the plan limits, e.g. on subscription change.
func (mm *metadataManager) UpdateWorkspaceLimits(ctx context.Context, workspaceID uuid.UUID, limits models.Limits) apperrors.Error {
	query := `
		UPDATE workspaces
		SET limit_projects = $1, limit_namespaces_per_project = $2,
			limit_languages_per_version = $3, limit_versions_per_namespace = $4,
			limit_requests = $5
		WHERE workspace_id = $6
		RETURNING workspace_id;
	`
	var returned uuid.UUID
	err := mm.conn().QueryRowContext(ctx, query, limits.Projects, limits.NamespacesPerProject,
		limits.LanguagesPerVersion, limits.VersionsPerNamespace, limits.Requests, workspaceID).Scan(&returned)
	if err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("workspace not found")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to update workspace limits")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// AdjustWorkspaceProjectUsage moves the project counter by delta, flooring at
// zero to tolerate drift from prior partial deletions.
func (mm *metadataManager) AdjustWorkspaceProjectUsage(ctx context.Context, workspaceID uuid.UUID, delta int) apperrors.Error {
	query := `
		UPDATE workspaces
		SET usage_projects = GREATEST(usage_projects + $1, 0)
		WHERE workspace_id = $2;
	`
	result, err := mm.conn().ExecContext(ctx, query, delta, workspaceID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to adjust workspace project usage")
		return dberror.ErrDatabase.Err(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("workspace_id", workspaceID.String()).Msg("workspace not found")
	}
	return nil
}

// DeleteWorkspace removes the workspace record. Dependent records are removed
// by the application-level deletion engine, not here.
func (mm *metadataManager) DeleteWorkspace(ctx context.Context, workspaceID uuid.UUID) apperrors.Error {
	query := `
		DELETE FROM workspaces
		WHERE workspace_id = $1;
	`
	result, err := mm.conn().ExecContext(ctx, query, workspaceID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to delete workspace")
		return dberror.ErrDatabase.Err(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("workspace_id", workspaceID.String()).Msg("workspace not found")
	}
	return nil
}
