package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

func testStore(t *testing.T) (*Store, context.Context, *models.Workspace) {
	t.Helper()
	s := New()
	ws := &models.Workspace{
		OrgID: "org_test",
		Limits: models.Limits{
			Projects:             100,
			NamespacesPerProject: 100,
			LanguagesPerVersion:  100,
			VersionsPerNamespace: 100,
			Requests:             50000,
		},
	}
	require.Nil(t, s.CreateWorkspace(context.Background(), ws))
	ctx := uncommon.SetWorkspaceIdInContext(context.Background(), ws.WorkspaceID)
	return s, ctx, ws
}

func TestCursorRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()
	cursor := encodeCursor(now, id)
	gotTime, gotID, err := decodeCursor(cursor)
	require.Nil(t, err)
	assert.True(t, now.Equal(gotTime))
	assert.Equal(t, id, gotID)

	_, _, err = decodeCursor("not a cursor")
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrInvalidInput))
}

func TestScopeRequired(t *testing.T) {
	s, _, _ := testStore(t)
	_, err := s.GetProject(context.Background(), uuid.New())
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrMissingWorkspaceID))
}

func TestListProjectsKeysetOrder(t *testing.T) {
	s, ctx, _ := testStore(t)
	for i := 0; i < 7; i++ {
		require.Nil(t, s.CreateProject(ctx, &models.Project{Name: fmt.Sprintf("p%d", i)}))
	}

	var all []*models.Project
	page := models.PageRequest{Limit: 3}
	for {
		projects, result, err := s.ListProjects(ctx, uncommon.WorkspaceIdFromContext(ctx), page)
		require.Nil(t, err)
		all = append(all, projects...)
		if result.Exhausted {
			break
		}
		page.Cursor = result.Cursor
	}
	require.Len(t, all, 7)
	// newest first, stable across pages
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		assert.False(t, keyLess(prev.CreatedAt, prev.ProjectID, cur.CreatedAt, cur.ProjectID),
			"records out of order at index %d", i)
	}
}

func TestCounterFloorsAtZero(t *testing.T) {
	s, ctx, ws := testStore(t)
	require.Nil(t, s.AdjustWorkspaceProjectUsage(ctx, ws.WorkspaceID, -5))
	got, err := s.GetWorkspace(ctx, ws.WorkspaceID)
	require.Nil(t, err)
	assert.Equal(t, 0, got.UsageProjects)
}

func TestUpsertKeyMappingIdempotent(t *testing.T) {
	s, ctx, _ := testStore(t)
	project := &models.Project{Name: "p"}
	require.Nil(t, s.CreateProject(ctx, project))
	ns := &models.Namespace{ProjectID: project.ProjectID, Name: "n"}
	require.Nil(t, s.CreateNamespace(ctx, ns))
	version := &models.NamespaceVersion{NamespaceID: ns.NamespaceID, Version: "1.0.0"}
	require.Nil(t, s.CreateVersion(ctx, version))
	lang := &models.Language{VersionID: version.VersionID, Code: "en"}
	require.Nil(t, s.CreateLanguage(ctx, lang))
	screenshot := &models.Screenshot{ProjectID: project.ProjectID, Name: "s", ImageBlobID: "blb_x", MimeType: "image/png", Width: 1, Height: 1}
	require.Nil(t, s.CreateScreenshot(ctx, screenshot))
	container := &models.ScreenshotContainer{ScreenshotID: screenshot.ScreenshotID, Width: 10, Height: 10}
	require.Nil(t, s.CreateContainer(ctx, container))

	first := &models.ScreenshotKeyMapping{
		ContainerID:    container.ContainerID,
		VersionID:      version.VersionID,
		LanguageID:     lang.LanguageID,
		TranslationKey: "greeting",
	}
	require.Nil(t, s.UpsertKeyMapping(ctx, first))

	second := &models.ScreenshotKeyMapping{
		ContainerID:    container.ContainerID,
		VersionID:      version.VersionID,
		LanguageID:     lang.LanguageID,
		TranslationKey: "greeting",
	}
	require.Nil(t, s.UpsertKeyMapping(ctx, second))
	assert.Equal(t, first.MappingID, second.MappingID)

	mappings, _, err := s.ListKeyMappings(ctx, container.ContainerID, models.PageRequest{})
	require.Nil(t, err)
	assert.Len(t, mappings, 1)
}
