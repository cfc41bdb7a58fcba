package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

type CreateNamespaceRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

func CreateNamespace(ctx context.Context, workspaceID, projectID uuid.UUID, req *CreateNamespaceRequest) (*models.Namespace, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	// Parent walk: the project must resolve inside this workspace before a
	// child is hung off it.
	if _, err := db.DB(ctx).GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	ns := &models.Namespace{
		ProjectID: projectID,
		Name:      req.Name,
	}
	if err := db.DB(ctx).CreateNamespace(ctx, ns); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("namespace_id", ns.NamespaceID.String()).Msg("namespace created")
	return ns, nil
}

func GetNamespace(ctx context.Context, workspaceID, namespaceID uuid.UUID) (*models.Namespace, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return db.DB(ctx).GetNamespace(ctx, namespaceID)
}

func ListNamespaces(ctx context.Context, workspaceID, projectID uuid.UUID, page models.PageRequest) ([]*models.Namespace, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	if _, err := db.DB(ctx).GetProject(ctx, projectID); err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListNamespaces(ctx, projectID, page)
}
