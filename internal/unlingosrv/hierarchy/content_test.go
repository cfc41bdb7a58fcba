package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

func TestFetchTranslations(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	lang := newLanguage(t, ctx, ws, v.VersionID, "en")
	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)
	require.Nil(t, SetActiveVersion(ctx, ws.WorkspaceID, ns.NamespaceID, v.VersionID))

	doc, err := FetchTranslations(ctx, "mobile-app", "checkout", "1.0.0", "en")
	require.Nil(t, err)
	assert.Equal(t, "checkout", doc.Namespace)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.JSONEq(t, `{"greeting":"hello"}`, string(doc.Translations))
	assert.Equal(t, "en", doc.Metadata.Language)

	// the active alias resolves to the same version
	doc, err = FetchTranslations(ctx, "mobile-app", "checkout", ActiveVersionAlias, "en")
	require.Nil(t, err)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.True(t, doc.Metadata.Active)

	// misses collapse to errors the endpoint reports uniformly
	_, err = FetchTranslations(ctx, "mobile-app", "checkout", "9.9.9", "en")
	assert.NotNil(t, err)
	_, err = FetchTranslations(ctx, "mobile-app", "checkout", "1.0.0", "de")
	assert.NotNil(t, err)
	_, err = FetchTranslations(ctx, "no-such-project", "checkout", "1.0.0", "en")
	assert.NotNil(t, err)
}

func TestPublishTranslations(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	en := newLanguage(t, ctx, ws, v.VersionID, "en")
	de := newLanguage(t, ctx, ws, v.VersionID, "de")
	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, en.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)
	_, err = UploadLanguageFile(ctx, ws.WorkspaceID, de.LanguageID, []byte(`{"greeting":"hallo"}`))
	require.Nil(t, err)
	require.Nil(t, SetActiveVersion(ctx, ws.WorkspaceID, ns.NamespaceID, v.VersionID))

	doc, err := PublishTranslations(ctx, "mobile-app", "checkout", "1.0.0", "en", []byte(`{"greeting":"hi"}`))
	require.Nil(t, err)
	assert.Equal(t, "1.0.1", doc.Version, "a patch version is cut from the base")

	// the new version is now active and carries the base's other languages
	active, err := FetchTranslations(ctx, "mobile-app", "checkout", ActiveVersionAlias, "en")
	require.Nil(t, err)
	assert.Equal(t, "1.0.1", active.Version)
	assert.JSONEq(t, `{"greeting":"hi"}`, string(active.Translations))

	carried, err := FetchTranslations(ctx, "mobile-app", "checkout", "1.0.1", "de")
	require.Nil(t, err)
	assert.JSONEq(t, `{"greeting":"hallo"}`, string(carried.Translations))

	// the base version is untouched
	base, err := FetchTranslations(ctx, "mobile-app", "checkout", "1.0.0", "en")
	require.Nil(t, err)
	assert.JSONEq(t, `{"greeting":"hello"}`, string(base.Translations))
	assert.False(t, base.Metadata.Active)

	// publishing again walks to the next free patch
	doc, err = PublishTranslations(ctx, "mobile-app", "checkout", "1.0.1", "en", []byte(`{"greeting":"hey"}`))
	require.Nil(t, err)
	assert.Equal(t, "1.0.2", doc.Version)
}

func TestPublishTranslationsFromMain(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "main")
	en := newLanguage(t, ctx, ws, v.VersionID, "en")
	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, en.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)

	doc, err := PublishTranslations(ctx, "mobile-app", "checkout", "main", "en", []byte(`{"greeting":"hi"}`))
	require.Nil(t, err)
	assert.Equal(t, "0.0.1", doc.Version, "main starts the semver line")
}

func TestPublishTranslationsValidation(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	newLanguage(t, ctx, ws, v.VersionID, "en")

	schema := []byte(`{
		"type": "object",
		"properties": {"greeting": {"type": "string"}},
		"additionalProperties": false
	}`)
	require.Nil(t, UploadVersionSchema(ctx, ws.WorkspaceID, v.VersionID, schema))

	_, err := PublishTranslations(ctx, "mobile-app", "checkout", "1.0.0", "en", []byte(`not json`))
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))

	_, err = PublishTranslations(ctx, "mobile-app", "checkout", "1.0.0", "en", []byte(`{"greeting":42}`))
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))

	// a failed publish cuts no new version
	versions, _, err := ListVersions(ctx, ws.WorkspaceID, ns.NamespaceID, models.PageRequest{})
	require.Nil(t, err)
	assert.Len(t, versions, 1)
}
