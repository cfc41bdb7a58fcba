package hierarchy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

// newTestContext wires a fresh in-memory store and blob store and binds the
// caller to orgID. Each call gets an isolated store.
func newTestContext(t *testing.T, orgID string) context.Context {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.Init(ctx, "memory"))
	objectstore.Init("memory")
	ctx = db.ConnCtx(ctx)
	return uncommon.SetOrgIdInContext(ctx, orgID)
}

func newWorkspace(t *testing.T, ctx context.Context) *models.Workspace {
	t.Helper()
	ws, err := OnboardWorkspace(ctx, &OnboardWorkspaceRequest{})
	require.Nil(t, err)
	return ws
}

// newWorkspaceWithLimits onboards and immediately moves the workspace onto
// the given plan.
func newWorkspaceWithLimits(t *testing.T, ctx context.Context, limits models.Limits) *models.Workspace {
	t.Helper()
	ws := newWorkspace(t, ctx)
	require.Nil(t, UpdateWorkspaceLimits(ctx, ws.WorkspaceID, limits))
	ws, err := GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	return ws
}

var roomyLimits = models.Limits{
	Projects:             10,
	NamespacesPerProject: 10,
	LanguagesPerVersion:  10,
	VersionsPerNamespace: 10,
	Requests:             50000,
}

func newProject(t *testing.T, ctx context.Context, ws *models.Workspace, name string) *models.Project {
	t.Helper()
	project, err := CreateProject(ctx, ws.WorkspaceID, &CreateProjectRequest{Name: name})
	require.Nil(t, err)
	return project
}

func newNamespace(t *testing.T, ctx context.Context, ws *models.Workspace, projectID uuid.UUID, name string) *models.Namespace {
	t.Helper()
	ns, err := CreateNamespace(ctx, ws.WorkspaceID, projectID, &CreateNamespaceRequest{Name: name})
	require.Nil(t, err)
	return ns
}

func newVersion(t *testing.T, ctx context.Context, ws *models.Workspace, namespaceID uuid.UUID, version string) *models.NamespaceVersion {
	t.Helper()
	v, err := CreateVersion(ctx, ws.WorkspaceID, namespaceID, &CreateVersionRequest{Version: version})
	require.Nil(t, err)
	return v
}

func newLanguage(t *testing.T, ctx context.Context, ws *models.Workspace, versionID uuid.UUID, code string) *models.Language {
	t.Helper()
	result, err := CreateLanguage(ctx, ws.WorkspaceID, versionID, &CreateLanguageRequest{Code: code})
	require.Nil(t, err)
	return result.Language
}
