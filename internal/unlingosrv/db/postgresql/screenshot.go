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

// CreateScreenshot inserts a screenshot record. The image blob is uploaded
// before this is called; blob cleanup on failure happens above this layer.
func (mm *metadataManager) CreateScreenshot(ctx context.Context, screenshot *models.Screenshot) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	screenshot.WorkspaceID = wsID
	if screenshot.ScreenshotID == uuid.Nil {
		screenshot.ScreenshotID = uuid.New()
	}

	row := mm.conn().QueryRowContext(ctx, `
		INSERT INTO screenshots (screenshot_id, project_id, workspace_id, name, description, image_blob_id, image_size, mime_type, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (project_id, name) DO NOTHING
		RETURNING screenshot_id, created_at;
	`, screenshot.ScreenshotID, screenshot.ProjectID, wsID, screenshot.Name, screenshot.Description,
		screenshot.ImageBlobID, screenshot.ImageSize, screenshot.MimeType, screenshot.Width, screenshot.Height)
	errdb := row.Scan(&screenshot.ScreenshotID, &screenshot.CreatedAt)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("name", screenshot.Name).Msg("screenshot already exists")
			return dberror.ErrAlreadyExists.Msg("screenshot name already exists in this project")
		}
		if pgErr, ok := errdb.(*pgconn.PgError); ok && pgErr.Code == "23503" {
			return dberror.ErrInvalidParent.Msg("project not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Str("name", screenshot.Name).Msg("failed to insert screenshot")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

const screenshotColumns = `screenshot_id, project_id, workspace_id, name, description, image_blob_id, image_size, mime_type, width, height, created_at`

func scanScreenshot(row rowScanner) (*models.Screenshot, error) {
	s := &models.Screenshot{}
	err := row.Scan(&s.ScreenshotID, &s.ProjectID, &s.WorkspaceID, &s.Name, &s.Description,
		&s.ImageBlobID, &s.ImageSize, &s.MimeType, &s.Width, &s.Height, &s.CreatedAt)
	return s, err
}

func (mm *metadataManager) GetScreenshot(ctx context.Context, screenshotID uuid.UUID) (*models.Screenshot, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + screenshotColumns + `
		FROM screenshots
		WHERE screenshot_id = $1 AND workspace_id = $2;
	`
	s, errdb := scanScreenshot(mm.conn().QueryRowContext(ctx, query, screenshotID, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("screenshot not found")
			return nil, dberror.ErrNotFound.Msg("screenshot not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve screenshot")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return s, nil
}

func (mm *metadataManager) GetScreenshotByName(ctx context.Context, projectID uuid.UUID, name string) (*models.Screenshot, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, dberror.ErrInvalidInput.Msg("screenshot name must be provided")
	}
	query := `
		SELECT ` + screenshotColumns + `
		FROM screenshots
		WHERE project_id = $1 AND name = $2 AND workspace_id = $3;
	`
	s, errdb := scanScreenshot(mm.conn().QueryRowContext(ctx, query, projectID, name, wsID))
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("screenshot not found")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to retrieve screenshot by name")
		return nil, dberror.ErrDatabase.Err(errdb)
	}
	return s, nil
}

// UpdateScreenshot updates name and description. The image blob is immutable
// once uploaded.
func (mm *metadataManager) UpdateScreenshot(ctx context.Context, screenshot *models.Screenshot) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	query := `
		UPDATE screenshots
		SET name = $1, description = $2
		WHERE screenshot_id = $3 AND workspace_id = $4
		RETURNING screenshot_id;
	`
	var returned uuid.UUID
	errdb := mm.conn().QueryRowContext(ctx, query, screenshot.Name, screenshot.Description, screenshot.ScreenshotID, wsID).Scan(&returned)
	if errdb != nil {
		if errdb == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("screenshot not found")
		}
		if pgErr, ok := errdb.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			log.Ctx(ctx).Info().Str("name", screenshot.Name).Msg("screenshot name already exists")
			return dberror.ErrAlreadyExists.Msg("screenshot name already exists in this project")
		}
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to update screenshot")
		return dberror.ErrDatabase.Err(errdb)
	}
	return nil
}

// DeleteScreenshot removes a screenshot. Containers and mappings are removed
// by the deletion engine before this is called. Idempotent.
func (mm *metadataManager) DeleteScreenshot(ctx context.Context, screenshotID uuid.UUID) apperrors.Error {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return err
	}
	result, errdb := mm.conn().ExecContext(ctx, `
		DELETE FROM screenshots
		WHERE screenshot_id = $1 AND workspace_id = $2;
	`, screenshotID, wsID)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to delete screenshot")
		return dberror.ErrDatabase.Err(errdb)
	}
	rowsAffected, errdb := result.RowsAffected()
	if errdb != nil {
		return dberror.ErrDatabase.Err(errdb)
	}
	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("screenshot_id", screenshotID.String()).Msg("screenshot not found")
	}
	return nil
}

// ListScreenshots returns a page of a project's screenshots, newest first.
func (mm *metadataManager) ListScreenshots(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Screenshot, models.PageResult, apperrors.Error) {
	wsID, err := workspaceScope(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	page = page.Normalize()
	query := `
		SELECT ` + screenshotColumns + `
		FROM screenshots
		WHERE project_id = $1 AND workspace_id = $2
	`
	args := []any{projectID, wsID}
	cond, cargs, err := cursorPredicate(page.Cursor, "screenshot_id", 3)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	query += cond
	args = append(args, cargs...)
	query += fmt.Sprintf(" ORDER BY created_at DESC, screenshot_id DESC LIMIT %d;", page.Limit+1)

	rows, errdb := mm.conn().QueryContext(ctx, query, args...)
	if errdb != nil {
		log.Ctx(ctx).Error().Err(errdb).Msg("failed to list screenshots")
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	defer rows.Close()

	var screenshots []*models.Screenshot
	for rows.Next() {
		s, errdb := scanScreenshot(rows)
		if errdb != nil {
			return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
		}
		screenshots = append(screenshots, s)
	}
	if errdb := rows.Err(); errdb != nil {
		return nil, models.PageResult{}, dberror.ErrDatabase.Err(errdb)
	}
	if len(screenshots) <= page.Limit {
		return screenshots, models.PageResult{Exhausted: true}, nil
	}
	screenshots = screenshots[:page.Limit]
	last := screenshots[len(screenshots)-1]
	return screenshots, models.PageResult{Cursor: encodeCursor(last.CreatedAt, last.ScreenshotID)}, nil
}
