package hierarchy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

func TestCreateProject(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspace(t, ctx)

	project, err := CreateProject(ctx, ws.WorkspaceID, &CreateProjectRequest{
		Name:        "mobile-app",
		Description: "iOS and Android strings",
	})
	require.Nil(t, err)
	assert.Equal(t, ws.WorkspaceID, project.WorkspaceID)
	assert.True(t, strings.HasPrefix(project.IdentityRef, "idn_"))

	ws, err = GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	assert.Equal(t, 1, ws.UsageProjects)

	// name unique per workspace
	_, err = CreateProject(ctx, ws.WorkspaceID, &CreateProjectRequest{Name: "mobile-app"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrAlreadyExists))
}

func TestProjectLimitLifecycle(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, models.Limits{
		Projects:             1,
		NamespacesPerProject: 5,
		LanguagesPerVersion:  5,
		VersionsPerNamespace: 10,
		Requests:             50000,
	})

	alpha, err := CreateProject(ctx, ws.WorkspaceID, &CreateProjectRequest{Name: "Alpha"})
	require.Nil(t, err)

	// second create fails at the ceiling, counter unchanged
	_, err = CreateProject(ctx, ws.WorkspaceID, &CreateProjectRequest{Name: "Beta"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrLimitReached))
	ws, err = GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	assert.Equal(t, 1, ws.UsageProjects)

	require.Nil(t, DeleteProject(ctx, ws.WorkspaceID, alpha.ProjectID))
	ws, err = GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	assert.Equal(t, 0, ws.UsageProjects)

	_, err = CreateProject(ctx, ws.WorkspaceID, &CreateProjectRequest{Name: "Beta"})
	require.Nil(t, err)
	ws, err = GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	assert.Equal(t, 1, ws.UsageProjects)
}

func TestUpdateProject(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	newProject(t, ctx, ws, "web-app")

	updated, err := UpdateProject(ctx, ws.WorkspaceID, project.ProjectID, &UpdateProjectRequest{
		Name:        "mobile-app-v2",
		Description: "renamed",
	})
	require.Nil(t, err)
	assert.Equal(t, "mobile-app-v2", updated.Name)

	// rename onto an existing name is rejected
	_, err = UpdateProject(ctx, ws.WorkspaceID, project.ProjectID, &UpdateProjectRequest{Name: "web-app"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrAlreadyExists))
}

func TestListProjectsPagination(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	names := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, name := range names {
		newProject(t, ctx, ws, name)
	}

	seen := map[string]bool{}
	page := models.PageRequest{Limit: 2}
	for {
		projects, result, err := ListProjects(ctx, ws.WorkspaceID, page)
		require.Nil(t, err)
		for _, p := range projects {
			assert.False(t, seen[p.Name], "duplicate %s across pages", p.Name)
			seen[p.Name] = true
		}
		if result.Exhausted {
			break
		}
		page.Cursor = result.Cursor
	}
	assert.Len(t, seen, len(names))
}

func TestProjectCrossTenantOpacity(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspace(t, ctx)
	project := newProject(t, ctx, ws, "mobile-app")

	intruderCtx := uncommon.SetOrgIdInContext(ctx, "org_beta")
	intruder, err := OnboardWorkspace(intruderCtx, &OnboardWorkspaceRequest{})
	require.Nil(t, err)

	// a foreign project ID resolves to not found inside the intruder's scope
	_, err = GetProject(intruderCtx, intruder.WorkspaceID, project.ProjectID)
	require.NotNil(t, err)
	assert.Equal(t, 404, err.StatusCode())
}
