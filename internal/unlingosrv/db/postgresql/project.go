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

// CreateProject inserts a project and increments the workspace's project
// counter in the same transaction. The workspace row is locked first so
// concurrent creators serialize on the limit check.
func (mm *metadataManager) CreateProject(ctx context.Context, project *models.Project) (err apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	project.WorkspaceID = wsID
	if project.ProjectID == uuid.Nil {
		project.ProjectID = uuid.New()
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
		SELECT limit_projects, usage_projects
		FROM workspaces
		WHERE workspace_id = $1
		FOR UPDATE;
	`, wsID).Scan(&limit, &usage)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrInvalidParent.Msg("workspace not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to lock workspace row")
		return dberror.ErrDatabase.Err(errdb)
	}
	if usage >= limit {
		log.Ctx(ctx).Info().Int("limit", limit).Msg("project limit reached")
		return dberror.ErrLimitReached.Msg("project limit reached for this workspace")
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO projects (project_id, workspace_id, name, description, identity_ref, usage_namespaces)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (workspace_id, name) DO NOTHING
		RETURNING project_id, created_at;
	`, project.ProjectID, wsID, project.Name, project.Description, project.IdentityRef)
	errdb = row.Scan(&project.ProjectID, &project.CreatedAt)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", project.Name).Msg("project already exists")
			return dberror.ErrAlreadyExists.Msg("project name already exists in this workspace")
		}
		log.Ctx(ctx).Error().Err(errdb).Str("name", project.Name).Msg("failed to insert project")
		return dberror.ErrDatabase.Err(errdb)
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE workspaces SET usage_projects = usage_projects + 1 WHERE workspace_id = $1;
	`, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to increment project usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const projectColumns = `project_id, workspace_id, name, description, identity_ref, usage_namespaces, created_at`

func scanProject(row *sql.Row) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(&p.ProjectID, &p.WorkspaceID, &p.Name, &p.Description, &p.IdentityRef, &p.UsageNamespaces, &p.CreatedAt)
	return p, err
}

// GetProject retrieves a project scoped to the current workspace.
func (mm *metadataManager) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE project_id = $1 AND workspace_id = $2;
	`
	p, errdb := scanProject(mm.conn().QueryRowContext(ctx, query, projectID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("project not found")
			return nil, dberror.ErrNotFound.Msg("project not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve project")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return p, nil
}

// GetProjectByName retrieves a project by its workspace-unique name.
func (mm *metadataManager) GetProjectByName(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Project, apperrors.Error) {
	if name == "" {
		return nil, dberror.ErrInvalidInput.Msg("project name must be provided")
	}
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE name = $1 AND workspace_id = $2;
	`
	p, errdb := scanProject(mm.conn().QueryRowContext(ctx, query, name, workspaceID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("project not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve project by name")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return p, nil
}

// UpdateProject updates name and description. A rename re-checks the
// workspace-scoped uniqueness constraint, excluding the record's own row.
func (mm *metadataManager) UpdateProject(ctx context.Context, project *models.Project) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	query := `
		UPDATE projects
		SET name = $1, description = $2
		WHERE project_id = $3 AND workspace_id = $4
		RETURNING project_id;
	`
	var returned uuid.UUID
	errdb := mm.conn().QueryRowContext(ctx, query, project.Name, project.Description, project.ProjectID, wsID).Scan(&returned)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("project not found")
		}
		if pgErr, ok := errdb.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			log.Ctx(ctx).Info().Str("name", project.Name).Msg("project name already exists")
			return dberror.ErrAlreadyExists.Msg("project name already exists in this workspace")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to update project")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// DeleteProject removes the project row and floor-decrements the workspace's
// project counter in the same transaction. Child records are removed by the
// application-level deletion engine before this is called.
func (mm *metadataManager) DeleteProject(ctx context.Context, projectID uuid.UUID) (err apperrors.Error) {
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

	result, errdb := tx.ExecContext(ctx, `
		DELETE FROM projects
		WHERE project_id = $1 AND workspace_id = $2;
	`, projectID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete project")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("project_id", projectID.String()).Msg("project not found")
		tx.Rollback()
		return nil
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE workspaces SET usage_projects = GREATEST(usage_projects - 1, 0) WHERE workspace_id = $1;
	`, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to decrement project usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// ListProjects returns a page of the workspace's projects, newest first.
func (mm *metadataManager) ListProjects(ctx context.Context, workspaceID uuid.UUID, page models.PageRequest) ([]*models.Project, models.PageResult, apperrors.Error) {
	page = page.Normalize()
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE workspace_id = $1
	`
	args := []any{workspaceID}
	cond, cargs, err := cursorPredicate(page.Cursor, "project_id", 2)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, project_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list projects")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p := &models.Project{}
		if errdb := rows.Scan(&p.ProjectID, &p.WorkspaceID, &p.Name, &p.Description, &p.IdentityRef, &p.UsageNamespaces, &p.CreatedAt); errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		projects = append(projects, p)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	return paginateProjects(projects, page.Limit)
}

func paginateProjects(projects []*models.Project, limit int) ([]*models.Project, models.PageResult, apperrors.Error) {
	if len(projects) <= limit {
		return projects, models.PageResult{Exhausted: true}, nil
	}
	projects = projects[:limit]
	last := projects[len(projects)-1]
	return projects, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.ProjectID)}, nil
}
