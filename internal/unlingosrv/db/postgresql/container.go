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

// CreateContainer inserts a rectangular region under a screenshot. Geometry
// validation happens above this layer.
func (mm *metadataManager) CreateContainer(ctx context.Context, container *models.ScreenshotContainer) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	container.WorkspaceID = wsID
	if container.ContainerID == uuid.Nil {
		container.ContainerID = uuid.New()
	}

	row := mm.conn().QueryRowContext(ctx, `
		INSERT INTO screenshot_containers (container_id, screenshot_id, workspace_id, x, y, width, height, background_color, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING container_id, created_at;
	`, container.ContainerID, container.ScreenshotID, wsID, container.X, container.Y,
		container.Width, container.Height, container.BackgroundColor, container.Description)
	errdb := row.Scan(&container.ContainerID, &container.CreatedAt)
	if errdb != nil {
		if pgErr, ok := errdb.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return dberror.ErrInvalidParent.Msg("screenshot not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to insert container")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const containerColumns = `container_id, screenshot_id, workspace_id, x, y, width, height, background_color, description, created_at`

func scanContainer(row rowScanner) (*models.ScreenshotContainer, error) {
	c := &models.ScreenshotContainer{}
	err := row.Scan(&c.ContainerID, &c.ScreenshotID, &c.WorkspaceID, &c.X, &c.Y,
		&c.Width, &c.Height, &c.BackgroundColor, &c.Description, &c.CreatedAt)
	return c, err
}

func (mm *metadataManager) GetContainer(ctx context.Context, containerID uuid.UUID) (*models.ScreenshotContainer, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + containerColumns + `
		FROM screenshot_containers
		WHERE container_id = $1 AND workspace_id = $2;
	`
	c, errdb := scanContainer(mm.conn().QueryRowContext(ctx, query, containerID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("container not found")
			return nil, dberror.ErrNotFound.Msg("container not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve container")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return c, nil
}

// UpdateContainer replaces geometry and annotation fields.
func (mm *metadataManager) UpdateContainer(ctx context.Context, container *models.ScreenshotContainer) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	query := `
		UPDATE screenshot_containers
		SET x = $1, y = $2, width = $3, height = $4, background_color = $5, description = $6
		WHERE container_id = $7 AND workspace_id = $8
		RETURNING container_id;
	`
	var returned uuid.UUID
	errdb := mm.conn().QueryRowContext(ctx, query, container.X, container.Y, container.Width, container.Height,
		container.BackgroundColor, container.Description, container.ContainerID, wsID).Scan(&returned)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("container not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to update container")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// DeleteContainer removes a container. Its key mappings are removed by the
// deletion engine before this is called. Idempotent.
func (mm *metadataManager) DeleteContainer(ctx context.Context, containerID uuid.UUID) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	result, errdb := mm.conn().ExecContext(ctx, `
		DELETE FROM screenshot_containers
		WHERE container_id = $1 AND workspace_id = $2;
	`, containerID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete container")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("container_id", containerID.String()).Msg("container not found")
	}
	return nil
}

// ListContainers returns a page of a screenshot's containers, newest first.
func (mm *metadataManager) ListContainers(ctx context.Context, screenshotID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotContainer, models.PageResult, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	page = page.Normalize()
	query := `
		SELECT ` + containerColumns + `
		FROM screenshot_containers
		WHERE screenshot_id = $1 AND workspace_id = $2
	`
	args := []any{screenshotID, wsID}
	cond, cargs, err := cursorPredicate(page.Cursor, "container_id", 3)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, container_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list containers")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var containers []*models.ScreenshotContainer
	for rows.Next() {
		c, errdb := scanContainer(rows)
		if errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		containers = append(containers, c)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	if len(containers) <= page.Limit {
		return containers, models.PageResult{Exhausted: true}, nil
	}
	containers = containers[:page.Limit]
	last := containers[len(containers)-1]
	return containers, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.ContainerID)}, nil
}
