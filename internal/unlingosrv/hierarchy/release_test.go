package hierarchy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

func TestCreateRelease(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	release, err := CreateRelease(ctx, ws.WorkspaceID, project.ProjectID, &ReleaseRequest{
		Name:     "spring",
		Tag:      "v1",
		Manifest: []models.ReleaseEntry{{NamespaceID: ns.NamespaceID, VersionID: v.VersionID}},
	})
	require.Nil(t, err)
	assert.Len(t, release.Manifest, 1)

	// tag unique per project
	_, err = CreateRelease(ctx, ws.WorkspaceID, project.ProjectID, &ReleaseRequest{Name: "other", Tag: "v1"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrAlreadyExists))
}

func TestCreateReleaseBadManifest(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	other := newProject(t, ctx, ws, "web-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	otherNs := newNamespace(t, ctx, ws, other.ProjectID, "landing")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	// namespace from another project
	_, err := CreateRelease(ctx, ws.WorkspaceID, project.ProjectID, &ReleaseRequest{
		Name:     "bad",
		Tag:      "v1",
		Manifest: []models.ReleaseEntry{{NamespaceID: otherNs.NamespaceID, VersionID: v.VersionID}},
	})
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrInvalidReference))

	// version that does not exist
	_, err = CreateRelease(ctx, ws.WorkspaceID, project.ProjectID, &ReleaseRequest{
		Name:     "bad",
		Tag:      "v1",
		Manifest: []models.ReleaseEntry{{NamespaceID: ns.NamespaceID, VersionID: uuid.New()}},
	})
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrInvalidReference))
}

func TestUpdateRelease(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v1 := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	v2 := newVersion(t, ctx, ws, ns.NamespaceID, "1.1.0")

	release, err := CreateRelease(ctx, ws.WorkspaceID, project.ProjectID, &ReleaseRequest{
		Name:     "spring",
		Tag:      "v1",
		Manifest: []models.ReleaseEntry{{NamespaceID: ns.NamespaceID, VersionID: v1.VersionID}},
	})
	require.Nil(t, err)

	updated, err := UpdateRelease(ctx, ws.WorkspaceID, release.ReleaseID, &ReleaseRequest{
		Name:     "spring",
		Tag:      "v1.1",
		Manifest: []models.ReleaseEntry{{NamespaceID: ns.NamespaceID, VersionID: v2.VersionID}},
	})
	require.Nil(t, err)
	assert.Equal(t, "v1.1", updated.Tag)
	require.Len(t, updated.Manifest, 1)
	assert.Equal(t, v2.VersionID, updated.Manifest[0].VersionID)
}

// Deleting a pinned version leaves the release manifest in place; resolution
// reports the entry stale instead of repairing or failing.
func TestResolveReleaseStaleEntry(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v1 := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	v2 := newVersion(t, ctx, ws, ns.NamespaceID, "1.1.0")

	release, err := CreateRelease(ctx, ws.WorkspaceID, project.ProjectID, &ReleaseRequest{
		Name: "spring",
		Tag:  "v1",
		Manifest: []models.ReleaseEntry{
			{NamespaceID: ns.NamespaceID, VersionID: v1.VersionID},
			{NamespaceID: ns.NamespaceID, VersionID: v2.VersionID},
		},
	})
	require.Nil(t, err)

	require.Nil(t, DeleteVersion(ctx, ws.WorkspaceID, v1.VersionID))

	_, entries, err := ResolveRelease(ctx, ws.WorkspaceID, release.ReleaseID)
	require.Nil(t, err)
	require.Len(t, entries, 2)

	byVersion := map[uuid.UUID]ResolvedReleaseEntry{}
	for _, e := range entries {
		byVersion[e.Entry.VersionID] = e
	}
	assert.True(t, byVersion[v1.VersionID].Stale)
	assert.Nil(t, byVersion[v1.VersionID].Version)
	assert.False(t, byVersion[v2.VersionID].Stale)
	require.NotNil(t, byVersion[v2.VersionID].Version)
	assert.Equal(t, "1.1.0", byVersion[v2.VersionID].Version.Version)
}
