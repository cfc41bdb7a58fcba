package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

// DefaultLimits is the entry plan applied at onboarding. Subscription
// changes move a workspace off these via UpdateLimits.
var DefaultLimits = models.Limits{
	Projects:             1,
	NamespacesPerProject: 5,
	LanguagesPerVersion:  5,
	VersionsPerNamespace: 10,
	Requests:             50000,
}

// ResolveWorkspace confirms the caller's org identity owns the workspace and
// returns a context scoped to it. Every operation resolves the workspace
// fresh; there is no cross-request caching of the verified binding.
func ResolveWorkspace(ctx context.Context, workspaceID uuid.UUID) (context.Context, *models.Workspace, apperrors.Error) {
	orgID := uncommon.OrgIdFromContext(ctx)
	if orgID == "" {
		return ctx, nil, ErrUnauthenticated
	}
	ws, err := db.DB(ctx).GetWorkspace(ctx, workspaceID)
	if err != nil {
		return ctx, nil, err
	}
	if ws.OrgID != orgID {
		log.Ctx(ctx).Info().Str("workspace_id", workspaceID.String()).Msg("workspace org binding mismatch")
		return ctx, nil, ErrAccessDenied
	}
	ctx = uncommon.SetWorkspaceIdInContext(ctx, ws.WorkspaceID)
	db.DB(ctx).AddScope(ctx, db.Scope_WorkspaceId, ws.WorkspaceID.String())
	return ctx, ws, nil
}

// ResolveWorkspaceByOrg resolves the caller's own workspace without a
// workspace ID, used by onboarding checks and the public content surface.
func ResolveWorkspaceByOrg(ctx context.Context) (context.Context, *models.Workspace, apperrors.Error) {
	orgID := uncommon.OrgIdFromContext(ctx)
	if orgID == "" {
		return ctx, nil, ErrUnauthenticated
	}
	ws, err := db.DB(ctx).GetWorkspaceByOrg(ctx, orgID)
	if err != nil {
		return ctx, nil, err
	}
	ctx = uncommon.SetWorkspaceIdInContext(ctx, ws.WorkspaceID)
	db.DB(ctx).AddScope(ctx, db.Scope_WorkspaceId, ws.WorkspaceID.String())
	return ctx, ws, nil
}

// OnboardWorkspaceRequest creates the tenant root at organization signup.
type OnboardWorkspaceRequest struct {
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

func OnboardWorkspace(ctx context.Context, req *OnboardWorkspaceRequest) (*models.Workspace, apperrors.Error) {
	orgID := uncommon.OrgIdFromContext(ctx)
	if orgID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ws := &models.Workspace{
		OrgID:        orgID,
		ContactEmail: req.ContactEmail,
		Limits:       DefaultLimits,
	}
	if err := db.DB(ctx).CreateWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("workspace_id", ws.WorkspaceID.String()).Msg("workspace created")
	return ws, nil
}

// UpdateWorkspaceLimits applies a plan change.
func UpdateWorkspaceLimits(ctx context.Context, workspaceID uuid.UUID, limits models.Limits) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if limits.Projects < 0 || limits.NamespacesPerProject < 0 || limits.LanguagesPerVersion < 0 ||
		limits.VersionsPerNamespace < 0 || limits.Requests < 0 {
		return ErrValidation.Msg("limits cannot be negative")
	}
	return db.DB(ctx).UpdateWorkspaceLimits(ctx, workspaceID, limits)
}

// GetWorkspace returns the workspace with its live usage counters.
func GetWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, apperrors.Error) {
	_, ws, err := ResolveWorkspace(ctx, workspaceID)
	return ws, err
}
