package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

func TestCreateVersion(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")

	v, err := CreateVersion(ctx, ws.WorkspaceID, ns.NamespaceID, &CreateVersionRequest{Version: "1.0.0"})
	require.Nil(t, err)
	assert.False(t, v.Active)

	ns, err = GetNamespace(ctx, ws.WorkspaceID, ns.NamespaceID)
	require.Nil(t, err)
	assert.Equal(t, 1, ns.UsageVersions)

	// version string unique per namespace
	_, err = CreateVersion(ctx, ws.WorkspaceID, ns.NamespaceID, &CreateVersionRequest{Version: "1.0.0"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrAlreadyExists))
}

func TestCreateVersionFormat(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")

	for _, version := range []string{"main", "0.1.0", "2.10.3", "1.0.0-rc.1"} {
		_, err := CreateVersion(ctx, ws.WorkspaceID, ns.NamespaceID, &CreateVersionRequest{Version: version})
		require.Nil(t, err, "expected %q to be accepted", version)
	}
	for _, version := range []string{"", "v1.0.0", "1.0", "latest", "1.0.0.0"} {
		_, err := CreateVersion(ctx, ws.WorkspaceID, ns.NamespaceID, &CreateVersionRequest{Version: version})
		require.NotNil(t, err, "expected %q to be rejected", version)
		assert.True(t, err.Is(ErrValidation))
	}
}

func TestVersionLimit(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	limits := roomyLimits
	limits.VersionsPerNamespace = 2
	ws := newWorkspaceWithLimits(t, ctx, limits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")

	newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	newVersion(t, ctx, ws, ns.NamespaceID, "1.1.0")
	_, err := CreateVersion(ctx, ws.WorkspaceID, ns.NamespaceID, &CreateVersionRequest{Version: "1.2.0"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrLimitReached))

	ns, err = GetNamespace(ctx, ws.WorkspaceID, ns.NamespaceID)
	require.Nil(t, err)
	assert.Equal(t, 2, ns.UsageVersions)
}

func TestSetActiveVersion(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v1 := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	v2 := newVersion(t, ctx, ws, ns.NamespaceID, "1.1.0")

	require.Nil(t, SetActiveVersion(ctx, ws.WorkspaceID, ns.NamespaceID, v1.VersionID))
	require.Nil(t, SetActiveVersion(ctx, ws.WorkspaceID, ns.NamespaceID, v2.VersionID))

	// activation is exclusive: switching deactivates the prior version
	versions, _, err := ListVersions(ctx, ws.WorkspaceID, ns.NamespaceID, models.PageRequest{})
	require.Nil(t, err)
	active := 0
	for _, v := range versions {
		if v.Active {
			active++
			assert.Equal(t, v2.VersionID, v.VersionID)
		}
	}
	assert.Equal(t, 1, active)
}

func TestSetActiveVersionWrongNamespace(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns1 := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	ns2 := newNamespace(t, ctx, ws, project.ProjectID, "settings")
	v1 := newVersion(t, ctx, ws, ns1.NamespaceID, "1.0.0")

	err := SetActiveVersion(ctx, ws.WorkspaceID, ns2.NamespaceID, v1.VersionID)
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrAccessDenied))
}

func TestUploadVersionSchema(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	err := UploadVersionSchema(ctx, ws.WorkspaceID, v.VersionID, []byte(`{"type":"object"}`))
	require.Nil(t, err)

	v2, err := GetVersion(ctx, ws.WorkspaceID, v.VersionID)
	require.Nil(t, err)
	assert.NotEmpty(t, v2.SchemaBlobID)

	err = UploadVersionSchema(ctx, ws.WorkspaceID, v.VersionID, []byte(`not json`))
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))
}

func TestVersionCrossTenantCopySource(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns1 := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	ns2 := newNamespace(t, ctx, ws, project.ProjectID, "settings")
	src := newVersion(t, ctx, ws, ns1.NamespaceID, "1.0.0")

	// copying from a version in a different namespace is rejected
	_, err := CreateVersion(ctx, ws.WorkspaceID, ns2.NamespaceID, &CreateVersionRequest{
		Version:           "1.0.0",
		CopyFromVersionID: src.VersionID,
	})
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrAccessDenied))
}
