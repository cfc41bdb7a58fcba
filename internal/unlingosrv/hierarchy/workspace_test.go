package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

func TestOnboardWorkspace(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")

	ws, err := OnboardWorkspace(ctx, &OnboardWorkspaceRequest{ContactEmail: "dev@example.com"})
	require.Nil(t, err)
	assert.Equal(t, "org_alpha", ws.OrgID)
	assert.Equal(t, DefaultLimits, ws.Limits)
	assert.Equal(t, 0, ws.UsageProjects)

	// one workspace per org
	_, err = OnboardWorkspace(ctx, &OnboardWorkspaceRequest{})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrAlreadyExists))
}

func TestOnboardWorkspaceUnauthenticated(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ctx = uncommon.SetOrgIdInContext(ctx, "")

	_, err := OnboardWorkspace(ctx, &OnboardWorkspaceRequest{})
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrUnauthenticated))
}

func TestOnboardWorkspaceBadEmail(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")

	_, err := OnboardWorkspace(ctx, &OnboardWorkspaceRequest{ContactEmail: "not-an-email"})
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))
}

func TestUpdateWorkspaceLimits(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspace(t, ctx)

	err := UpdateWorkspaceLimits(ctx, ws.WorkspaceID, roomyLimits)
	require.Nil(t, err)

	ws, err = GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	assert.Equal(t, roomyLimits, ws.Limits)

	err = UpdateWorkspaceLimits(ctx, ws.WorkspaceID, models.Limits{Projects: -1})
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))
}

// A caller from another org must see workspaces it does not own as not found,
// never as forbidden.
func TestWorkspaceCrossTenantOpacity(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspace(t, ctx)

	intruder := uncommon.SetOrgIdInContext(ctx, "org_beta")
	_, err := GetWorkspace(intruder, ws.WorkspaceID)
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrAccessDenied))
	assert.Equal(t, 404, err.StatusCode())
	assert.Equal(t, "not found", err.Error())
}

func TestResolveWorkspaceByOrg(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspace(t, ctx)

	_, resolved, err := ResolveWorkspaceByOrg(ctx)
	require.Nil(t, err)
	assert.Equal(t, ws.WorkspaceID, resolved.WorkspaceID)

	_, _, err = ResolveWorkspaceByOrg(context.Background())
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrUnauthenticated))
}
