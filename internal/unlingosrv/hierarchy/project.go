package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/identity"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
}

// CreateProject creates a project and schedules the provisioning of its
// machine identity. The identity call runs in the background; the project is
// usable immediately.
func CreateProject(ctx context.Context, workspaceID uuid.UUID, req *CreateProjectRequest) (*models.Project, apperrors.Error) {
	ctx, ws, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		IdentityRef: uncommon.NewIdentityRef(),
	}
	if err := db.DB(ctx).CreateProject(ctx, project); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("project_id", project.ProjectID.String()).Msg("project created")
	identity.RegisterProject(project.IdentityRef, project.Name, ws.OrgID)
	identity.Track(ws.OrgID, "project_created", map[string]any{"project": project.Name})
	return project, nil
}

func GetProject(ctx context.Context, workspaceID, projectID uuid.UUID) (*models.Project, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return db.DB(ctx).GetProject(ctx, projectID)
}

type UpdateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
}

func UpdateProject(ctx context.Context, workspaceID, projectID uuid.UUID, req *UpdateProjectRequest) (*models.Project, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	project, err := db.DB(ctx).GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	project.Name = req.Name
	project.Description = req.Description
	if err := db.DB(ctx).UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func ListProjects(ctx context.Context, workspaceID uuid.UUID, page models.PageRequest) ([]*models.Project, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListProjects(ctx, workspaceID, page)
}
