package hierarchy

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

// ActiveVersionAlias selects whichever version is currently active for the
// namespace instead of naming one explicitly.
const ActiveVersionAlias = "active"

type TranslationsMetadata struct {
	ProjectID   string    `json:"projectId"`
	NamespaceID string    `json:"namespaceId"`
	VersionID   string    `json:"versionId"`
	LanguageID  string    `json:"languageId"`
	Language    string    `json:"language"`
	Active      bool      `json:"active"`
	FileSize    int64     `json:"fileSize"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// TranslationsDocument is the envelope served to end-user applications.
type TranslationsDocument struct {
	Namespace    string               `json:"namespace"`
	Version      string               `json:"version"`
	Translations json.RawMessage      `json:"translations"`
	Metadata     TranslationsMetadata `json:"metadata"`
}

func resolveContentPath(ctx context.Context, projectName, namespaceName, versionString string) (context.Context, *models.Namespace, *models.NamespaceVersion, apperrors.Error) {
	ctx, ws, err := ResolveWorkspaceByOrg(ctx)
	if err != nil {
		return ctx, nil, nil, err
	}
	project, err := db.DB(ctx).GetProjectByName(ctx, ws.WorkspaceID, projectName)
	if err != nil {
		return ctx, nil, nil, err
	}
	ns, err := db.DB(ctx).GetNamespaceByName(ctx, project.ProjectID, namespaceName)
	if err != nil {
		return ctx, nil, nil, err
	}
	var version *models.NamespaceVersion
	if versionString == ActiveVersionAlias {
		version, err = db.DB(ctx).GetActiveVersion(ctx, ns.NamespaceID)
	} else {
		version, err = db.DB(ctx).GetVersionByString(ctx, ns.NamespaceID, versionString)
	}
	if err != nil {
		return ctx, nil, nil, err
	}
	return ctx, ns, version, nil
}

// FetchTranslations serves one language's translation file for a version,
// addressed by names rather than identifiers.
func FetchTranslations(ctx context.Context, projectName, namespaceName, versionString, langCode string) (*TranslationsDocument, apperrors.Error) {
	ctx, ns, version, err := resolveContentPath(ctx, projectName, namespaceName, versionString)
	if err != nil {
		return nil, err
	}
	lang, err := db.DB(ctx).GetLanguageByCode(ctx, version.VersionID, NormalizeLanguageCode(langCode))
	if err != nil {
		return nil, err
	}
	if lang.FileBlobID == "" {
		return nil, ErrValidation.Msg("language has no translation file")
	}
	content, err := objectstore.Default().Get(ctx, lang.FileBlobID)
	if err != nil {
		return nil, err
	}
	return translationsDocument(ns, version, lang, content), nil
}

// PublishTranslations replaces a namespace's served content: it cuts a new
// patch version copied from the base version named in the path, stores the
// posted document as that version's file for the language, and switches the
// namespace's active version over to it. The base version is left untouched.
func PublishTranslations(ctx context.Context, projectName, namespaceName, versionString, langCode string, content []byte) (*TranslationsDocument, apperrors.Error) {
	ctx, ns, base, err := resolveContentPath(ctx, projectName, namespaceName, versionString)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(content) {
		return nil, ErrValidation.Msg("translations document is not valid JSON")
	}
	if base.SchemaBlobID != "" {
		if err := validateAgainstSchema(ctx, base.SchemaBlobID, content); err != nil {
			return nil, err
		}
	}

	version, err := cutPatchVersion(ctx, ns, base)
	if err != nil {
		return nil, err
	}
	copyVersionContents(ctx, base, version)
	if base.SchemaBlobID != "" {
		// carry the schema forward so later uploads to the new version stay
		// validated
		if schema, serr := objectstore.Default().Get(ctx, base.SchemaBlobID); serr == nil {
			if blobID, perr := objectstore.Default().Put(ctx, schema, "application/schema+json"); perr == nil {
				if serr := db.DB(ctx).SetVersionSchema(ctx, version.VersionID, blobID, int64(len(schema))); serr != nil {
					objectstore.Default().Delete(ctx, blobID)
				}
			}
		}
	}

	code := NormalizeLanguageCode(langCode)
	lang, err := db.DB(ctx).GetLanguageByCode(ctx, version.VersionID, code)
	if err != nil {
		if !err.Is(dberror.ErrNotFound) {
			return nil, err
		}
		lang = &models.Language{VersionID: version.VersionID, Code: code}
		if err := db.DB(ctx).CreateLanguage(ctx, lang); err != nil {
			return nil, err
		}
	}
	lang, err = UploadLanguageFile(ctx, ns.WorkspaceID, lang.LanguageID, content)
	if err != nil {
		return nil, err
	}
	if err := db.DB(ctx).SetActiveVersion(ctx, ns.NamespaceID, version.VersionID); err != nil {
		return nil, err
	}
	version.Active = true
	log.Ctx(ctx).Info().
		Str("namespace_id", ns.NamespaceID.String()).
		Str("version", version.Version).
		Msg("translations published")
	return translationsDocument(ns, version, lang, content), nil
}

// cutPatchVersion creates the next free patch version after base. A base of
// "main" starts the semver line at 0.0.1.
func cutPatchVersion(ctx context.Context, ns *models.Namespace, base *models.NamespaceVersion) (*models.NamespaceVersion, apperrors.Error) {
	major, minor, patch, err := parseVersionString(base.Version)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 100; i++ {
		patch++
		version := &models.NamespaceVersion{
			NamespaceID: ns.NamespaceID,
			Version:     fmt.Sprintf("%d.%d.%d", major, minor, patch),
		}
		cerr := db.DB(ctx).CreateVersion(ctx, version)
		if cerr == nil {
			return version, nil
		}
		if !cerr.Is(dberror.ErrAlreadyExists) {
			return nil, cerr
		}
	}
	return nil, ErrValidation.Msg("no free patch version after " + base.Version)
}

func parseVersionString(v string) (major, minor, patch int, err apperrors.Error) {
	if v == "main" {
		return 0, 0, 0, nil
	}
	core, _, _ := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return 0, 0, 0, ErrValidation.Msg("not a semantic version: " + v)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, perr := strconv.Atoi(part)
		if perr != nil {
			return 0, 0, 0, ErrValidation.Msg("not a semantic version: " + v)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

func translationsDocument(ns *models.Namespace, version *models.NamespaceVersion, lang *models.Language, content []byte) *TranslationsDocument {
	return &TranslationsDocument{
		Namespace:    ns.Name,
		Version:      version.Version,
		Translations: json.RawMessage(content),
		Metadata: TranslationsMetadata{
			ProjectID:   ns.ProjectID.String(),
			NamespaceID: ns.NamespaceID.String(),
			VersionID:   version.VersionID.String(),
			LanguageID:  lang.LanguageID.String(),
			Language:    lang.Code,
			Active:      version.Active,
			FileSize:    int64(len(content)),
			FetchedAt:   time.Now().UTC(),
		},
	}
}
