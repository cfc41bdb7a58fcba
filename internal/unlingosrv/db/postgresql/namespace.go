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

// CreateNamespace inserts a namespace and increments the parent project's
// namespace counter in one transaction. The project row is locked so the
// per-project limit check serializes with concurrent creators.
func (mm *metadataManager) CreateNamespace(ctx context.Context, ns *models.Namespace) (err apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	ns.WorkspaceID = wsID
	if ns.NamespaceID == uuid.Nil {
		ns.NamespaceID = uuid.New()
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
		SELECT w.limit_namespaces_per_project, p.usage_namespaces
		FROM projects p
		JOIN workspaces w ON w.workspace_id = p.workspace_id
		WHERE p.project_id = $1 AND p.workspace_id = $2
		FOR UPDATE OF p;
	`, ns.ProjectID, wsID).Scan(&limit, &usage)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrInvalidParent.Msg("project not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to lock project row")
		return dberror.ErrDatabase.Err(errdb)
	}
	if usage >= limit {
		log.Ctx(ctx).Info().Int("limit", limit).Msg("namespace limit reached")
		return dberror.ErrLimitReached.Msg("namespace limit reached for this project")
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO namespaces (namespace_id, project_id, workspace_id, name, usage_versions, usage_languages)
		VALUES ($1, $2, $3, $4, 0, 0)
		ON CONFLICT (project_id, name) DO NOTHING
		RETURNING namespace_id, created_at;
	`, ns.NamespaceID, ns.ProjectID, wsID, ns.Name)
	errdb = row.Scan(&ns.NamespaceID, &ns.CreatedAt)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", ns.Name).Msg("namespace already exists")
			return dberror.ErrAlreadyExists.Msg("namespace name already exists in this project")
		}
		log.Ctx(ctx).Error().Err(errdb).Str("name", ns.Name).Msg("failed to insert namespace")
		return dberror.ErrDatabase.Err(errdb)
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE projects SET usage_namespaces = usage_namespaces + 1 WHERE project_id = $1;
	`, ns.ProjectID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to increment namespace usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const namespaceColumns = `namespace_id, project_id, workspace_id, name, usage_versions, usage_languages, created_at`

func scanNamespace(row *sql.Row) (*models.Namespace, error) {
	ns := &models.Namespace{}
	err := row.Scan(&ns.NamespaceID, &ns.ProjectID, &ns.WorkspaceID, &ns.Name, &ns.UsageVersions, &ns.UsageLanguages, &ns.CreatedAt)
	return ns, err
}

// GetNamespace retrieves a namespace scoped to the current workspace.
func (mm *metadataManager) GetNamespace(ctx context.Context, namespaceID uuid.UUID) (*models.Namespace, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + namespaceColumns + `
		FROM namespaces
		WHERE namespace_id = $1 AND workspace_id = $2;
	`
	ns, errdb := scanNamespace(mm.conn().QueryRowContext(ctx, query, namespaceID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("namespace not found")
			return nil, dberror.ErrNotFound.Msg("namespace not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve namespace")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return ns, nil
}

// GetNamespaceByName retrieves a namespace by its project-unique name.
func (mm *metadataManager) GetNamespaceByName(ctx context.Context, projectID uuid.UUID, name string) (*models.Namespace, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, dberror.ErrInvalidInput.Msg("namespace name must be provided")
	}
	query := `
		SELECT ` + namespaceColumns + `
		FROM namespaces
		WHERE project_id = $1 AND name = $2 AND workspace_id = $3;
	`
	ns, errdb := scanNamespace(mm.conn().QueryRowContext(ctx, query, projectID, name, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("namespace not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve namespace by name")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return ns, nil
}

// DeleteNamespace removes the namespace row and floor-decrements the parent
// project's counter. Versions and languages are removed by the deletion
// engine before this is called.
func (mm *metadataManager) DeleteNamespace(ctx context.Context, namespaceID uuid.UUID) (err apperrors.Error) {
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

	var projectID uuid.UUID
	errdb = tx.QueryRowContext(ctx, `
		DELETE FROM namespaces
		WHERE namespace_id = $1 AND workspace_id = $2
		RETURNING project_id;
	`, namespaceID, wsID).Scan(&projectID)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("namespace_id", namespaceID.String()).Msg("namespace not found")
			tx.Rollback()
			return nil
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete namespace")
		return dberror.ErrDatabase.Err(errdb)
	}

	_, errdb = tx.ExecContext(ctx, `
		UPDATE projects SET usage_namespaces = GREATEST(usage_namespaces - 1, 0) WHERE project_id = $1;
	`, projectID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to decrement namespace usage")
		return dberror.ErrDatabase.Err(errdb)
	}

	if errdb = tx.Commit(); errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to commit transaction")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// ListNamespaces returns a page of a project's namespaces, newest first.
func (mm *metadataManager) ListNamespaces(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Namespace, models.PageResult, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	page = page.Normalize()
	query := `
		SELECT ` + namespaceColumns + `
		FROM namespaces
		WHERE project_id = $1 AND workspace_id = $2
	`
	args := []any{projectID, wsID}
	cond, cargs, err := cursorPredicate(page.Cursor, "namespace_id", 3)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, namespace_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list namespaces")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var namespaces []*models.Namespace
	for rows.Next() {
		ns := &models.Namespace{}
		if errdb := rows.Scan(&ns.NamespaceID, &ns.ProjectID, &ns.WorkspaceID, &ns.Name, &ns.UsageVersions, &ns.UsageLanguages, &ns.CreatedAt); errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		namespaces = append(namespaces, ns)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	if len(namespaces) <= page.Limit {
		return namespaces, models.PageResult{Exhausted: true}, nil
	}
	namespaces = namespaces[:page.Limit]
	last := namespaces[len(namespaces)-1]
	return namespaces, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.NamespaceID)}, nil
}
