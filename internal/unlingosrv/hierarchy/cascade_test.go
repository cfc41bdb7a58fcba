package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

func TestDeleteProjectCascades(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	lang := newLanguage(t, ctx, ws, v.VersionID, "en")
	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)
	lang, err = GetLanguage(ctx, ws.WorkspaceID, lang.LanguageID)
	require.Nil(t, err)

	release, err := CreateRelease(ctx, ws.WorkspaceID, project.ProjectID, &ReleaseRequest{
		Name:     "spring",
		Tag:      "v1",
		Manifest: []models.ReleaseEntry{{NamespaceID: ns.NamespaceID, VersionID: v.VersionID}},
	})
	require.Nil(t, err)

	screenshot, err := CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name: "home", MimeType: "image/png", Width: 800, Height: 600,
	}, []byte("fake-png-bytes"))
	require.Nil(t, err)
	container, err := CreateContainer(ctx, ws.WorkspaceID, screenshot.ScreenshotID, &ContainerRequest{
		X: 10, Y: 10, Width: 20, Height: 10,
	})
	require.Nil(t, err)
	mapping, err := AssignKeyToContainer(ctx, ws.WorkspaceID, container.ContainerID, &AssignKeyRequest{
		VersionID:      v.VersionID,
		LanguageID:     lang.LanguageID,
		TranslationKey: "greeting",
	})
	require.Nil(t, err)

	require.Nil(t, DeleteProject(ctx, ws.WorkspaceID, project.ProjectID))

	scoped, _, err := ResolveWorkspaceByOrg(ctx)
	require.Nil(t, err)
	_, gerr := db.DB(scoped).GetProject(scoped, project.ProjectID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetNamespace(scoped, ns.NamespaceID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetVersion(scoped, v.VersionID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetLanguage(scoped, lang.LanguageID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetRelease(scoped, release.ReleaseID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetScreenshot(scoped, screenshot.ScreenshotID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetContainer(scoped, container.ContainerID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetKeyMapping(scoped, mapping.MappingID)
	assert.NotNil(t, gerr)

	// blobs are cleaned up with their records
	_, berr := objectstore.Default().Get(scoped, lang.FileBlobID)
	assert.NotNil(t, berr)
	_, berr = objectstore.Default().Get(scoped, screenshot.ImageBlobID)
	assert.NotNil(t, berr)

	ws, err = GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	assert.Equal(t, 0, ws.UsageProjects)
}

func TestDeleteVersionCascades(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	keep := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	newLanguage(t, ctx, ws, keep.VersionID, "en")
	drop := newVersion(t, ctx, ws, ns.NamespaceID, "1.1.0")
	lang := newLanguage(t, ctx, ws, drop.VersionID, "en")
	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`{"a":"b"}`))
	require.Nil(t, err)

	require.Nil(t, DeleteVersion(ctx, ws.WorkspaceID, drop.VersionID))

	nsAfter, err := GetNamespace(ctx, ws.WorkspaceID, ns.NamespaceID)
	require.Nil(t, err)
	assert.Equal(t, 1, nsAfter.UsageVersions)
	assert.Equal(t, 1, nsAfter.UsageLanguages)

	_, err = GetVersion(ctx, ws.WorkspaceID, drop.VersionID)
	assert.NotNil(t, err)
	_, err = GetVersion(ctx, ws.WorkspaceID, keep.VersionID)
	assert.Nil(t, err)
}

func TestDeleteNamespaceCascades(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	newLanguage(t, ctx, ws, v.VersionID, "en")

	require.Nil(t, DeleteNamespace(ctx, ws.WorkspaceID, ns.NamespaceID))

	projectAfter, err := GetProject(ctx, ws.WorkspaceID, project.ProjectID)
	require.Nil(t, err)
	assert.Equal(t, 0, projectAfter.UsageNamespaces)

	_, err = GetNamespace(ctx, ws.WorkspaceID, ns.NamespaceID)
	assert.NotNil(t, err)
	_, err = GetVersion(ctx, ws.WorkspaceID, v.VersionID)
	assert.NotNil(t, err)
}

func TestDeleteScreenshotCascades(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	lang := newLanguage(t, ctx, ws, v.VersionID, "en")

	screenshot, err := CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name: "home", MimeType: "image/png", Width: 800, Height: 600,
	}, []byte("fake-png-bytes"))
	require.Nil(t, err)
	container, err := CreateContainer(ctx, ws.WorkspaceID, screenshot.ScreenshotID, &ContainerRequest{
		X: 0, Y: 0, Width: 50, Height: 50,
	})
	require.Nil(t, err)
	mapping, err := AssignKeyToContainer(ctx, ws.WorkspaceID, container.ContainerID, &AssignKeyRequest{
		VersionID:      v.VersionID,
		LanguageID:     lang.LanguageID,
		TranslationKey: "greeting",
	})
	require.Nil(t, err)

	require.Nil(t, DeleteScreenshot(ctx, ws.WorkspaceID, screenshot.ScreenshotID))

	scoped, _, err := ResolveWorkspaceByOrg(ctx)
	require.Nil(t, err)
	_, gerr := db.DB(scoped).GetContainer(scoped, container.ContainerID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetKeyMapping(scoped, mapping.MappingID)
	assert.NotNil(t, gerr)
	_, berr := objectstore.Default().Get(scoped, screenshot.ImageBlobID)
	assert.NotNil(t, berr)

	// the referenced language is untouched
	_, err = GetLanguage(ctx, ws.WorkspaceID, lang.LanguageID)
	assert.Nil(t, err)
}

func TestDeleteWorkspaceCascades(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	p1 := newProject(t, ctx, ws, "mobile-app")
	p2 := newProject(t, ctx, ws, "web-app")
	ns := newNamespace(t, ctx, ws, p1.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	newLanguage(t, ctx, ws, v.VersionID, "en")

	require.Nil(t, DeleteWorkspace(ctx, ws.WorkspaceID))

	_, _, err := ResolveWorkspaceByOrg(ctx)
	assert.NotNil(t, err)
	_, err = GetWorkspace(ctx, ws.WorkspaceID)
	assert.NotNil(t, err)

	// scoped lookups confirm both project subtrees are gone
	scoped := uncommon.SetWorkspaceIdInContext(ctx, ws.WorkspaceID)
	_, gerr := db.DB(scoped).GetProject(scoped, p1.ProjectID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetProject(scoped, p2.ProjectID)
	assert.NotNil(t, gerr)
	_, gerr = db.DB(scoped).GetVersion(scoped, v.VersionID)
	assert.NotNil(t, gerr)
}
