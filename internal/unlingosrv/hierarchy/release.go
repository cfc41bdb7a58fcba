package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

type ReleaseRequest struct {
	Name     string                `json:"name" validate:"required,max=100"`
	Tag      string                `json:"tag" validate:"required,max=50"`
	Manifest []models.ReleaseEntry `json:"manifest"`
}

// validateManifest checks every (namespace, version) pair against the live
// hierarchy: the namespace must belong to the release's project and the
// version to that namespace. One bad pair rejects the whole manifest.
func validateManifest(ctx context.Context, projectID uuid.UUID, manifest []models.ReleaseEntry) apperrors.Error {
	for _, entry := range manifest {
		ns, err := db.DB(ctx).GetNamespace(ctx, entry.NamespaceID)
		if err != nil || ns.ProjectID != projectID {
			return ErrInvalidReference
		}
		version, err := db.DB(ctx).GetVersion(ctx, entry.VersionID)
		if err != nil || version.NamespaceID != entry.NamespaceID {
			return ErrInvalidReference
		}
	}
	return nil
}

// CreateRelease freezes a manifest of namespace-version pairs under a tag.
// The manifest is a snapshot of identifiers: deleting a referenced version
// later does not touch the release.
func CreateRelease(ctx context.Context, workspaceID, projectID uuid.UUID, req *ReleaseRequest) (*models.Release, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := db.DB(ctx).GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if err := validateManifest(ctx, projectID, req.Manifest); err != nil {
		return nil, err
	}
	release := &models.Release{
		ProjectID: projectID,
		Name:      req.Name,
		Tag:       req.Tag,
		Manifest:  req.Manifest,
	}
	if err := db.DB(ctx).CreateRelease(ctx, release); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("release_id", release.ReleaseID.String()).Str("tag", release.Tag).Msg("release created")
	return release, nil
}

func GetRelease(ctx context.Context, workspaceID, releaseID uuid.UUID) (*models.Release, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return db.DB(ctx).GetRelease(ctx, releaseID)
}

func UpdateRelease(ctx context.Context, workspaceID, releaseID uuid.UUID, req *ReleaseRequest) (*models.Release, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	release, err := db.DB(ctx).GetRelease(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if err := validateManifest(ctx, release.ProjectID, req.Manifest); err != nil {
		return nil, err
	}
	release.Name = req.Name
	release.Tag = req.Tag
	release.Manifest = req.Manifest
	if err := db.DB(ctx).UpdateRelease(ctx, release); err != nil {
		return nil, err
	}
	return release, nil
}

func DeleteRelease(ctx context.Context, workspaceID, releaseID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	return db.DB(ctx).DeleteRelease(ctx, releaseID)
}

func ListReleases(ctx context.Context, workspaceID, projectID uuid.UUID, page models.PageRequest) ([]*models.Release, models.PageResult, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	if _, err := db.DB(ctx).GetProject(ctx, projectID); err != nil {
		return nil, models.PageResult{}, err
	}
	return db.DB(ctx).ListReleases(ctx, projectID, page)
}

// ResolvedReleaseEntry pairs a manifest entry with its live version record.
// Stale is true when the referenced version no longer exists; the entry is
// reported rather than repaired.
type ResolvedReleaseEntry struct {
	Entry   models.ReleaseEntry      `json:"entry"`
	Version *models.NamespaceVersion `json:"version,omitempty"`
	Stale   bool                     `json:"stale"`
}

// ResolveRelease looks up each manifest entry against the live hierarchy.
func ResolveRelease(ctx context.Context, workspaceID, releaseID uuid.UUID) (*models.Release, []ResolvedReleaseEntry, apperrors.Error) {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}
	release, err := db.DB(ctx).GetRelease(ctx, releaseID)
	if err != nil {
		return nil, nil, err
	}
	resolved := make([]ResolvedReleaseEntry, 0, len(release.Manifest))
	for _, entry := range release.Manifest {
		version, verr := db.DB(ctx).GetVersion(ctx, entry.VersionID)
		if verr != nil {
			resolved = append(resolved, ResolvedReleaseEntry{Entry: entry, Stale: true})
			continue
		}
		resolved = append(resolved, ResolvedReleaseEntry{Entry: entry, Version: version})
	}
	return release, resolved, nil
}
