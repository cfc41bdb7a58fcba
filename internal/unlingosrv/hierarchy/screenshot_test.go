package hierarchy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

func TestCreateScreenshot(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")

	screenshot, err := CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name:     "home",
		MimeType: "image/png",
		Width:    800,
		Height:   600,
	}, []byte("fake-png-bytes"))
	require.Nil(t, err)
	assert.NotEmpty(t, screenshot.ImageBlobID)
	assert.Equal(t, int64(len("fake-png-bytes")), screenshot.ImageSize)

	url, err := GetScreenshotImageURL(ctx, ws.WorkspaceID, screenshot.ScreenshotID)
	require.Nil(t, err)
	assert.Contains(t, url, screenshot.ImageBlobID)

	// name unique per project
	_, err = CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name: "home", MimeType: "image/png", Width: 800, Height: 600,
	}, []byte("other"))
	require.NotNil(t, err)
}

func TestCreateScreenshotRejectsBadImage(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")

	_, err := CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name: "empty", MimeType: "image/png", Width: 1, Height: 1,
	}, nil)
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))

	huge := bytes.Repeat([]byte("x"), objectstore.MaxBlobSize+1)
	_, err = CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name: "huge", MimeType: "image/png", Width: 1, Height: 1,
	}, huge)
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))
}

func TestContainerGeometryValidation(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	screenshot, err := CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name: "home", MimeType: "image/png", Width: 800, Height: 600,
	}, []byte("fake-png-bytes"))
	require.Nil(t, err)

	_, err = CreateContainer(ctx, ws.WorkspaceID, screenshot.ScreenshotID, &ContainerRequest{
		X: 10, Y: 20, Width: 30, Height: 5,
	})
	require.Nil(t, err)

	// geometry is in percent of image dimensions
	for _, req := range []*ContainerRequest{
		{X: -1, Y: 0, Width: 10, Height: 10},
		{X: 0, Y: 101, Width: 10, Height: 10},
		{X: 0, Y: 0, Width: 0, Height: 10},
		{X: 0, Y: 0, Width: 10, Height: 200},
	} {
		_, err = CreateContainer(ctx, ws.WorkspaceID, screenshot.ScreenshotID, req)
		require.NotNil(t, err, "geometry %+v should be rejected", req)
		assert.True(t, err.Is(ErrValidation))
	}
}

func TestAssignKeyIdempotent(t *testing.T) {
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

	req := &AssignKeyRequest{
		VersionID:      v.VersionID,
		LanguageID:     lang.LanguageID,
		TranslationKey: "greeting",
	}
	first, err := AssignKeyToContainer(ctx, ws.WorkspaceID, container.ContainerID, req)
	require.Nil(t, err)
	second, err := AssignKeyToContainer(ctx, ws.WorkspaceID, container.ContainerID, req)
	require.Nil(t, err)
	assert.Equal(t, first.MappingID, second.MappingID, "duplicate assignment returns the existing mapping")

	mappings, _, err := ListKeyMappings(ctx, ws.WorkspaceID, container.ContainerID, models.PageRequest{})
	require.Nil(t, err)
	assert.Len(t, mappings, 1)

	// a different key is a new mapping
	other, err := AssignKeyToContainer(ctx, ws.WorkspaceID, container.ContainerID, &AssignKeyRequest{
		VersionID:      v.VersionID,
		LanguageID:     lang.LanguageID,
		TranslationKey: "farewell",
	})
	require.Nil(t, err)
	assert.NotEqual(t, first.MappingID, other.MappingID)
}

func TestAssignKeyLanguageVersionMismatch(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v1 := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	v2 := newVersion(t, ctx, ws, ns.NamespaceID, "1.1.0")
	lang := newLanguage(t, ctx, ws, v1.VersionID, "en")
	screenshot, err := CreateScreenshot(ctx, ws.WorkspaceID, project.ProjectID, &CreateScreenshotRequest{
		Name: "home", MimeType: "image/png", Width: 800, Height: 600,
	}, []byte("fake-png-bytes"))
	require.Nil(t, err)
	container, err := CreateContainer(ctx, ws.WorkspaceID, screenshot.ScreenshotID, &ContainerRequest{
		X: 0, Y: 0, Width: 50, Height: 50,
	})
	require.Nil(t, err)

	// the language must belong to the referenced version
	_, err = AssignKeyToContainer(ctx, ws.WorkspaceID, container.ContainerID, &AssignKeyRequest{
		VersionID:      v2.VersionID,
		LanguageID:     lang.LanguageID,
		TranslationKey: "greeting",
	})
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrAccessDenied))
}

func TestDeleteKeyMapping(t *testing.T) {
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

	require.Nil(t, DeleteKeyMapping(ctx, ws.WorkspaceID, mapping.MappingID))
	mappings, _, err := ListKeyMappings(ctx, ws.WorkspaceID, container.ContainerID, models.PageRequest{})
	require.Nil(t, err)
	assert.Empty(t, mappings)
}
