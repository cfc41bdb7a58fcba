package hierarchy

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/identity"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

// The deletion engine removes a subtree bottom-up: leaves and their blobs
// first, then their parents, then the root record. Steps are independent and
// best effort; a mid-sequence failure leaves a partially deleted subtree
// rather than rolling back, and counter decrements floor at zero to absorb
// the drift that can leave behind.

func deleteBlob(ctx context.Context, blobID string) {
	if blobID == "" {
		return
	}
	if err := objectstore.Default().Delete(ctx, blobID); err != nil {
		log.Ctx(ctx).Warn().Str("blob_id", blobID).Msg("failed to delete blob during cascade")
	}
}

// drain repeatedly fetches the first page until the listing comes back
// empty. Deletions shrink the listing as the loop runs, so cursors are not
// carried across iterations.
func drain[T any](list func(models.PageRequest) ([]T, models.PageResult, apperrors.Error), each func(T)) apperrors.Error {
	for {
		items, _, err := list(models.PageRequest{Limit: models.MaxPageLimit})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for _, item := range items {
			each(item)
		}
	}
}

func deleteLanguageRecord(ctx context.Context, lang *models.Language) {
	deleteBlob(ctx, lang.FileBlobID)
	if err := db.DB(ctx).DeleteLanguage(ctx, lang.LanguageID); err != nil {
		log.Ctx(ctx).Warn().Str("language_id", lang.LanguageID.String()).Msg("failed to delete language during cascade")
	}
}

func deleteVersionSubtree(ctx context.Context, version *models.NamespaceVersion) {
	err := drain(func(page models.PageRequest) ([]*models.Language, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListLanguages(ctx, version.VersionID, page)
	}, func(lang *models.Language) {
		deleteLanguageRecord(ctx, lang)
	})
	if err != nil {
		log.Ctx(ctx).Warn().Str("version_id", version.VersionID.String()).Msg("failed to enumerate languages during cascade")
	}
	deleteBlob(ctx, version.SchemaBlobID)
	if err := db.DB(ctx).DeleteVersion(ctx, version.VersionID); err != nil {
		log.Ctx(ctx).Warn().Str("version_id", version.VersionID.String()).Msg("failed to delete version during cascade")
	}
}

func deleteNamespaceSubtree(ctx context.Context, ns *models.Namespace) {
	err := drain(func(page models.PageRequest) ([]*models.NamespaceVersion, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListVersions(ctx, ns.NamespaceID, page)
	}, func(version *models.NamespaceVersion) {
		deleteVersionSubtree(ctx, version)
	})
	if err != nil {
		log.Ctx(ctx).Warn().Str("namespace_id", ns.NamespaceID.String()).Msg("failed to enumerate versions during cascade")
	}
	if err := db.DB(ctx).DeleteNamespace(ctx, ns.NamespaceID); err != nil {
		log.Ctx(ctx).Warn().Str("namespace_id", ns.NamespaceID.String()).Msg("failed to delete namespace during cascade")
	}
}

func deleteContainerSubtree(ctx context.Context, containerID uuid.UUID) {
	err := drain(func(page models.PageRequest) ([]*models.ScreenshotKeyMapping, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListKeyMappings(ctx, containerID, page)
	}, func(mapping *models.ScreenshotKeyMapping) {
		if err := db.DB(ctx).DeleteKeyMapping(ctx, mapping.MappingID); err != nil {
			log.Ctx(ctx).Warn().Str("mapping_id", mapping.MappingID.String()).Msg("failed to delete key mapping during cascade")
		}
	})
	if err != nil {
		log.Ctx(ctx).Warn().Str("container_id", containerID.String()).Msg("failed to enumerate key mappings during cascade")
	}
	if err := db.DB(ctx).DeleteContainer(ctx, containerID); err != nil {
		log.Ctx(ctx).Warn().Str("container_id", containerID.String()).Msg("failed to delete container during cascade")
	}
}

func deleteScreenshotSubtree(ctx context.Context, screenshot *models.Screenshot) {
	err := drain(func(page models.PageRequest) ([]*models.ScreenshotContainer, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListContainers(ctx, screenshot.ScreenshotID, page)
	}, func(container *models.ScreenshotContainer) {
		deleteContainerSubtree(ctx, container.ContainerID)
	})
	if err != nil {
		log.Ctx(ctx).Warn().Str("screenshot_id", screenshot.ScreenshotID.String()).Msg("failed to enumerate containers during cascade")
	}
	deleteBlob(ctx, screenshot.ImageBlobID)
	if err := db.DB(ctx).DeleteScreenshot(ctx, screenshot.ScreenshotID); err != nil {
		log.Ctx(ctx).Warn().Str("screenshot_id", screenshot.ScreenshotID.String()).Msg("failed to delete screenshot during cascade")
	}
}

// DeleteProject removes the project and everything under it: releases,
// screenshots with their containers, mappings and image blobs, namespaces
// with their versions, languages and file blobs, and finally the project
// record itself, which also releases its slot in the workspace counter.
func DeleteProject(ctx context.Context, workspaceID, projectID uuid.UUID) apperrors.Error {
	ctx, ws, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	project, err := db.DB(ctx).GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	identity.RevokeProject(project.IdentityRef)

	derr := drain(func(page models.PageRequest) ([]*models.Release, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListReleases(ctx, projectID, page)
	}, func(release *models.Release) {
		if err := db.DB(ctx).DeleteRelease(ctx, release.ReleaseID); err != nil {
			log.Ctx(ctx).Warn().Str("release_id", release.ReleaseID.String()).Msg("failed to delete release during cascade")
		}
	})
	if derr != nil {
		log.Ctx(ctx).Warn().Msg("failed to enumerate releases during cascade")
	}

	derr = drain(func(page models.PageRequest) ([]*models.Screenshot, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListScreenshots(ctx, projectID, page)
	}, func(screenshot *models.Screenshot) {
		deleteScreenshotSubtree(ctx, screenshot)
	})
	if derr != nil {
		log.Ctx(ctx).Warn().Msg("failed to enumerate screenshots during cascade")
	}

	derr = drain(func(page models.PageRequest) ([]*models.Namespace, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListNamespaces(ctx, projectID, page)
	}, func(ns *models.Namespace) {
		deleteNamespaceSubtree(ctx, ns)
	})
	if derr != nil {
		log.Ctx(ctx).Warn().Msg("failed to enumerate namespaces during cascade")
	}

	if err := db.DB(ctx).DeleteProject(ctx, projectID); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("project_id", projectID.String()).Msg("project deleted")
	identity.Track(ws.OrgID, "project_deleted", map[string]any{"project": project.Name})
	return nil
}

// DeleteWorkspace offboards the tenant: every project is cascaded, then the
// workspace record itself is removed.
func DeleteWorkspace(ctx context.Context, workspaceID uuid.UUID) apperrors.Error {
	ctx, ws, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	derr := drain(func(page models.PageRequest) ([]*models.Project, models.PageResult, apperrors.Error) {
		return db.DB(ctx).ListProjects(ctx, workspaceID, page)
	}, func(project *models.Project) {
		if err := DeleteProject(ctx, workspaceID, project.ProjectID); err != nil {
			log.Ctx(ctx).Warn().Str("project_id", project.ProjectID.String()).Msg("failed to delete project during cascade")
		}
	})
	if derr != nil {
		log.Ctx(ctx).Warn().Msg("failed to enumerate projects during cascade")
	}
	if err := db.DB(ctx).DeleteWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("workspace_id", workspaceID.String()).Msg("workspace deleted")
	identity.Track(ws.OrgID, "workspace_deleted", nil)
	return nil
}

// DeleteNamespace removes a namespace with all its versions and languages.
func DeleteNamespace(ctx context.Context, workspaceID, namespaceID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	ns, err := db.DB(ctx).GetNamespace(ctx, namespaceID)
	if err != nil {
		return err
	}
	deleteNamespaceSubtree(ctx, ns)
	log.Ctx(ctx).Info().Str("namespace_id", namespaceID.String()).Msg("namespace deleted")
	return nil
}

// DeleteVersion removes a single version with its languages and blobs,
// leaving the rest of the namespace intact.
func DeleteVersion(ctx context.Context, workspaceID, versionID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	version, err := db.DB(ctx).GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	deleteVersionSubtree(ctx, version)
	log.Ctx(ctx).Info().Str("version_id", versionID.String()).Msg("version deleted")
	return nil
}

// DeleteLanguage removes a single language and its file blob.
func DeleteLanguage(ctx context.Context, workspaceID, languageID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	lang, err := db.DB(ctx).GetLanguage(ctx, languageID)
	if err != nil {
		return err
	}
	deleteLanguageRecord(ctx, lang)
	return nil
}

// DeleteScreenshot removes a screenshot with its containers, mappings and
// image blob.
func DeleteScreenshot(ctx context.Context, workspaceID, screenshotID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	screenshot, err := db.DB(ctx).GetScreenshot(ctx, screenshotID)
	if err != nil {
		return err
	}
	deleteScreenshotSubtree(ctx, screenshot)
	log.Ctx(ctx).Info().Str("screenshot_id", screenshotID.String()).Msg("screenshot deleted")
	return nil
}

// DeleteContainer removes a container and its key mappings.
func DeleteContainer(ctx context.Context, workspaceID, containerID uuid.UUID) apperrors.Error {
	ctx, _, err := ResolveWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if _, err := db.DB(ctx).GetContainer(ctx, containerID); err != nil {
		return err
	}
	deleteContainerSubtree(ctx, containerID)
	return nil
}
