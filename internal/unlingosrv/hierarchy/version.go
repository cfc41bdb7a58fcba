package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

type CreateVersionRequest struct {
	Version string `json:"version" validate:"required,max=64,versionstring"`

	// CopyFromVersionID duplicates the source version's language set,
	// including file blobs, into the new version. Best effort: individual
	// copy failures are logged and skipped, never rolled back.
	CopyFromVersionID uuid.UUID `json:"copyFromVersionId"`
}

func CreateVersion(ctx context.Context, workspaceID, namespaceID uuid.UUID, req *CreateVersionRequest) (*models.NamespaceVersion, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ns, err := db.DB(ctx).GetNamespace(ctx, namespaceID)
	if err != nil {
		return nil, err
	}

	var source *models.NamespaceVersion
	if req.CopyFromVersionID != uuid.Nil {
		source, err = db.DB(ctx).GetVersion(ctx, req.CopyFromVersionID)
		if err != nil {
			return nil, err
		}
		if source.NamespaceID != ns.NamespaceID {
			return nil, ErrAccessDenied
		}
	}

	version := &models.NamespaceVersion{
		NamespaceID: ns.NamespaceID,
		Version:     req.Version,
	}
	if err := db.DB(ctx).CreateVersion(ctx, version); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("version_id", version.VersionID.String()).Str("version", version.Version).Msg("version created")

	if source != nil {
		copyVersionContents(ctx, source, version)
		// Counters and primary language moved during the copy; re-read so
		// the caller sees them.
		if fresh, err := db.DB(ctx).GetVersion(ctx, version.VersionID); err == nil {
			version = fresh
		}
	}
	return version, nil
}

func GetVersion(ctx context.Context, workspaceID, versionID uuid.UUID) (*models.NamespaceVersion, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return db.DB(ctx).GetVersion(ctx, versionID)
}

func ListVersions(ctx context.Context, workspaceID, namespaceID uuid.UUID, page models.PageRequest) ([]*models.NamespaceVersion, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	if _, err := db.DB(ctx).GetNamespace(ctx, namespaceID); err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListVersions(ctx, namespaceID, page)
}

// SetActiveVersion switches which version the public content endpoint serves
// for the namespace. Exactly one version is active after the call.
func SetActiveVersion(ctx context.Context, workspaceID, namespaceID, versionID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if _, err := versionInNamespace(ctx, namespaceID, versionID); err != nil {
		return err
	}
	return db.DB(ctx).SetActiveVersion(ctx, namespaceID, versionID)
}

// UploadVersionSchema stores a JSON schema blob and attaches it to the
// version. Translation uploads are validated against it from then on.
func UploadVersionSchema(ctx context.Context, workspaceID, versionID uuid.UUID, schema []byte) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(schema) {
		return ErrValidation.Msg("schema is not valid JSON")
	}
	version, err := db.DB(ctx).GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	blobID, err := objectstore.Default().Put(ctx, schema, "application/schema+json")
	if err != nil {
		return err
	}
	if err := db.DB(ctx).SetVersionSchema(ctx, versionID, blobID, int64(len(schema))); err != nil {
		objectstore.Default().Delete(ctx, blobID)
		return err
	}
	if version.SchemaBlobID != "" {
		if derr := objectstore.Default().Delete(ctx, version.SchemaBlobID); derr != nil {
			log.Ctx(ctx).Warn().Str("blob_id", version.SchemaBlobID).Msg("failed to delete replaced schema blob")
		}
	}
	return nil
}

// versionInNamespace walks version -> namespace for the ownership chain.
func versionInNamespace(ctx context.Context, namespaceID, versionID uuid.UUID) (*models.NamespaceVersion, apperrors.Error) {
	version, err := db.DB(ctx).GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.NamespaceID != namespaceID {
		log.Ctx(ctx).Info().Str("version_id", versionID.String()).Msg("version namespace mismatch")
		return nil, ErrAccessDenied
	}
	return version, nil
}
