package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

func TestVersionCopy(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	src := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")

	en := newLanguage(t, ctx, ws, src.VersionID, "en")
	de := newLanguage(t, ctx, ws, src.VersionID, "de")
	newLanguage(t, ctx, ws, src.VersionID, "fr") // no file

	_, err := UploadLanguageFile(ctx, ws.WorkspaceID, en.LanguageID, []byte(`{"greeting":"hello"}`))
	require.Nil(t, err)
	_, err = UploadLanguageFile(ctx, ws.WorkspaceID, de.LanguageID, []byte(`{"greeting":"hallo"}`))
	require.Nil(t, err)

	dst, err := CreateVersion(ctx, ws.WorkspaceID, ns.NamespaceID, &CreateVersionRequest{
		Version:           "1.1.0",
		CopyFromVersionID: src.VersionID,
	})
	require.Nil(t, err)
	assert.Equal(t, 3, dst.UsageLanguages, "all three languages copied")

	langs, _, err := ListLanguages(ctx, ws.WorkspaceID, dst.VersionID, models.PageRequest{})
	require.Nil(t, err)
	require.Len(t, langs, 3)

	srcLangs, _, err := ListLanguages(ctx, ws.WorkspaceID, src.VersionID, models.PageRequest{})
	require.Nil(t, err)
	srcBlobs := map[string]string{}
	for _, l := range srcLangs {
		srcBlobs[l.Code] = l.FileBlobID
	}

	withFile := 0
	for _, l := range langs {
		switch l.Code {
		case "en", "de":
			assert.NotEmpty(t, l.FileBlobID)
			// copies are new blobs, never shared with the source
			assert.NotEqual(t, srcBlobs[l.Code], l.FileBlobID)
			content, err := GetLanguageFile(ctx, ws.WorkspaceID, l.LanguageID)
			require.Nil(t, err)
			assert.NotEmpty(t, content)
			withFile++
		case "fr":
			assert.Empty(t, l.FileBlobID)
		}
	}
	assert.Equal(t, 2, withFile)

	// the source is untouched
	srcAfter, err := GetVersion(ctx, ws.WorkspaceID, src.VersionID)
	require.Nil(t, err)
	assert.Equal(t, 3, srcAfter.UsageLanguages)
}

func TestVersionCopyCounters(t *testing.T) {
	ctx := newTestContext(t, "org_alpha")
	ws := newWorkspaceWithLimits(t, ctx, roomyLimits)
	project := newProject(t, ctx, ws, "mobile-app")
	ns := newNamespace(t, ctx, ws, project.ProjectID, "checkout")
	src := newVersion(t, ctx, ws, ns.NamespaceID, "1.0.0")
	newLanguage(t, ctx, ws, src.VersionID, "en")
	newLanguage(t, ctx, ws, src.VersionID, "de")

	_, err := CreateVersion(ctx, ws.WorkspaceID, ns.NamespaceID, &CreateVersionRequest{
		Version:           "1.1.0",
		CopyFromVersionID: src.VersionID,
	})
	require.Nil(t, err)

	// namespace-level counter sums both versions
	nsAfter, err := GetNamespace(ctx, ws.WorkspaceID, ns.NamespaceID)
	require.Nil(t, err)
	assert.Equal(t, 2, nsAfter.UsageVersions)
	assert.Equal(t, 4, nsAfter.UsageLanguages)
}
