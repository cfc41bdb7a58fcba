package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

func TestCreateLanguage(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	result, err := CreateLanguage(ctx, ws.WorkspaceID, v.VersionID, &CreateLanguageRequest{Code: "EN-us"})
	require.Nil(t, err)
	assert.Equal(t, "en-US", result.Language.Code, "code is normalized")
	assert.Empty(t, result.TemplateFileURL, "no template before any file exists")

	// the first language becomes the version's primary
	v2, err := GetVersion(ctx, ws.WorkspaceID, v.VersionID)
	require.Nil(t, err)
	assert.Equal(t, result.Language.LanguageID, v2.PrimaryLanguageID)
	assert.Equal(t, 1, v2.UsageLanguages)

	// code unique per version
	_, err = CreateLanguage(ctx, ws.WorkspaceID, v.VersionID, &CreateLanguageRequest{Code: "en-US"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrAlreadyExists))
}

func TestCreateLanguageCodeFormat(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	for _, code := range []string{"en", "de", "pt-BR", "zh-CN"} {
		_, err := CreateLanguage(ctx, ws.WorkspaceID, v.VersionID, &CreateLanguageRequest{Code: code})
		require.Nil(t, err, "expected %q to be accepted", code)
	}
	for _, code := range []string{"", "e", "eng", "en-USA", "en_US", "123"} {
		_, err := CreateLanguage(ctx, ws.WorkspaceID, v.VersionID, &CreateLanguageRequest{Code: code})
		require.NotNil(t, err, "expected %q to be rejected", code)
		assert.True(t, err.Is(ErrValidation))
	}
}

func TestCreateLanguageTemplateURL(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	primary := newLanguage(t, ctx, ws, v.VersionID, "en")
	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, primary.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)

	result, err := CreateLanguage(ctx, ws.WorkspaceID, v.VersionID, &CreateLanguageRequest{Code: "de"})
	require.Nil(t, err)
	assert.NotEmpty(t, result.TemplateFileURL, "primary file is offered as a template")

	// the new language starts empty; content is never copied implicitly
	_, err = GetLanguageFile(ctx, ws.WorkspaceID, result.Language.LanguageID)
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrNotFound))
}

func TestLanguageLimit(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	limits := roomyLimits
	limits.LanguagesPerVersion = 2
	ws := newWorkspaceWithLimits(t, ctx, limits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	newLanguage(t, ctx, ws, v.VersionID, "en")
	newLanguage(t, ctx, ws, v.VersionID, "de")
	_, err := CreateLanguage(ctx, ws.WorkspaceID, v.VersionID, &CreateLanguageRequest{Code: "fr"})
	require.NotNil(t, err)
	assert.True(t, err.Is(dberror.ErrLimitReached))

	v2, err := GetVersion(ctx, ws.WorkspaceID, v.VersionID)
	require.Nil(t, err)
	assert.Equal(t, 2, v2.UsageLanguages)
}

func TestUploadLanguageFile(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	lang := newLanguage(t, ctx, ws, v.VersionID, "en")

	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`not json`))
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))

	uploaded, err := UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)
	assert.NotEmpty(t, uploaded.FileBlobID)

	content, err := GetLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID)
	require.Nil(t, err)
	assert.JSONEq(t, `{"greeting":"hello"}`, string(content))

	// replacing the file swaps the blob
	replaced, err := UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`{"greeting":"hi"}`))
	require.Nil(t, err)
	assert.NotEqual(t, uploaded.FileBlobID, replaced.FileBlobID)

	content, err = GetLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID)
	require.Nil(t, err)
	assert.JSONEq(t, `{"greeting":"hi"}`, string(content))
}

func TestUploadLanguageFileSchemaValidation(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	lang := newLanguage(t, ctx, ws, v.VersionID, "en")

	schema := []byte(`{
		"type": "object",
		"properties": {"greeting": {"type": "string"}},
		"required": ["greeting"],
		"additionalProperties": false
	}`)
	require.Nil(t, UploadVersionSchema(ctx, ws.WorkspaceID, v.VersionID, schema))

	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`{"farewell":"bye"}`))
	require.NotNil(t, err)
	assert.True(t, err.Is(ErrValidation))

	_, err = UploadLanguageFile(ctx, ws.WorkspaceID, lang.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)
}

func TestDeleteLanguageClearsPrimary(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	v := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	primary := newLanguage(t, ctx, ws, v.VersionID, "en")
	newLanguage(t, ctx, ws, v.VersionID, "de")

	require.Nil(t, DeleteLanguage(ctx, ws.WorkspaceID, primary.LanguageID))

	v2, err := GetVersion(ctx, ws.WorkspaceID, v.VersionID)
	require.Nil(t, err)
	assert.Equal(t, 1, v2.UsageLanguages)
	assert.NotEqual(t, primary.LanguageID, v2.PrimaryLanguageID)

	langs, _, err := ListLanguages(ctx, ws.WorkspaceID, v.VersionID, models.PageRequest{})
	require.Nil(t, err)
	require.Len(t, langs, 1)
	assert.Equal(t, "de", langs[0].Code)
}
