package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dbmanager"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/memstore"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/postgresql"
)

// MetadataManager is the typed store surface for the entity hierarchy.
// Every operation below workspace level filters by the workspace scope set in
// the context; cross-workspace identifiers resolve to ErrNotFound.
type MetadataManager interface {
	// Workspace
	CreateWorkspace(ctx context.Context, ws *models.Workspace) apperrors.Error
	GetWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, apperrors.Error)
	GetWorkspaceByOrg(ctx context.Context, orgID string) (*models.Workspace, apperrors.Error)
	UpdateWorkspaceLimits(ctx context.Context, workspaceID uuid.UUID, limits models.Limits) apperrors.Error
	AdjustWorkspaceProjectUsage(ctx context.Context, workspaceID uuid.UUID, delta int) apperrors.Error
	DeleteWorkspace(ctx context.Context, workspaceID uuid.UUID) apperrors.Error

	// Project
	CreateProject(ctx context.Context, project *models.Project) apperrors.Error
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, apperrors.Error)
	GetProjectByName(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Project, apperrors.Error)
	UpdateProject(ctx context.Context, project *models.Project) apperrors.Error
	DeleteProject(ctx context.Context, projectID uuid.UUID) apperrors.Error
	ListProjects(ctx context.Context, workspaceID uuid.UUID, page models.PageRequest) ([]*models.Project, models.PageResult, apperrors.Error)

	// Namespace
	CreateNamespace(ctx context.Context, ns *models.Namespace) apperrors.Error
	GetNamespace(ctx context.Context, namespaceID uuid.UUID) (*models.Namespace, apperrors.Error)
	GetNamespaceByName(ctx context.Context, projectID uuid.UUID, name string) (*models.Namespace, apperrors.Error)
	DeleteNamespace(ctx context.Context, namespaceID uuid.UUID) apperrors.Error
	ListNamespaces(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Namespace, models.PageResult, apperrors.Error)

	// NamespaceVersion
	CreateVersion(ctx context.Context, version *models.NamespaceVersion) apperrors.Error
	GetVersion(ctx context.Context, versionID uuid.UUID) (*models.NamespaceVersion, apperrors.Error)
	GetVersionByString(ctx context.Context, namespaceID uuid.UUID, version string) (*models.NamespaceVersion, apperrors.Error)
	GetActiveVersion(ctx context.Context, namespaceID uuid.UUID) (*models.NamespaceVersion, apperrors.Error)
	SetActiveVersion(ctx context.Context, namespaceID, versionID uuid.UUID) apperrors.Error
	SetVersionSchema(ctx context.Context, versionID uuid.UUID, blobID string, size int64) apperrors.Error
	SetPrimaryLanguage(ctx context.Context, versionID, languageID uuid.UUID) apperrors.Error
	DeleteVersion(ctx context.Context, versionID uuid.UUID) apperrors.Error
	ListVersions(ctx context.Context, namespaceID uuid.UUID, page models.PageRequest) ([]*models.NamespaceVersion, models.PageResult, apperrors.Error)

	// Language
	CreateLanguage(ctx context.Context, lang *models.Language) apperrors.Error
	GetLanguage(ctx context.Context, languageID uuid.UUID) (*models.Language, apperrors.Error)
	GetLanguageByCode(ctx context.Context, versionID uuid.UUID, code string) (*models.Language, apperrors.Error)
	SetLanguageFile(ctx context.Context, languageID uuid.UUID, blobID string, size int64) apperrors.Error
	DeleteLanguage(ctx context.Context, languageID uuid.UUID) apperrors.Error
	ListLanguages(ctx context.Context, versionID uuid.UUID, page models.PageRequest) ([]*models.Language, models.PageResult, apperrors.Error)

	// Release
	CreateRelease(ctx context.Context, release *models.Release) apperrors.Error
	GetRelease(ctx context.Context, releaseID uuid.UUID) (*models.Release, apperrors.Error)
	GetReleaseByTag(ctx context.Context, projectID uuid.UUID, tag string) (*models.Release, apperrors.Error)
	UpdateRelease(ctx context.Context, release *models.Release) apperrors.Error
	DeleteRelease(ctx context.Context, releaseID uuid.UUID) apperrors.Error
	ListReleases(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Release, models.PageResult, apperrors.Error)

	// Screenshot
	CreateScreenshot(ctx context.Context, screenshot *models.Screenshot) apperrors.Error
	GetScreenshot(ctx context.Context, screenshotID uuid.UUID) (*models.Screenshot, apperrors.Error)
	GetScreenshotByName(ctx context.Context, projectID uuid.UUID, name string) (*models.Screenshot, apperrors.Error)
	UpdateScreenshot(ctx context.Context, screenshot *models.Screenshot) apperrors.Error
	DeleteScreenshot(ctx context.Context, screenshotID uuid.UUID) apperrors.Error
	ListScreenshots(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Screenshot, models.PageResult, apperrors.Error)

	// ScreenshotContainer
	CreateContainer(ctx context.Context, container *models.ScreenshotContainer) apperrors.Error
	GetContainer(ctx context.Context, containerID uuid.UUID) (*models.ScreenshotContainer, apperrors.Error)
	UpdateContainer(ctx context.Context, container *models.ScreenshotContainer) apperrors.Error
	DeleteContainer(ctx context.Context, containerID uuid.UUID) apperrors.Error
	ListContainers(ctx context.Context, screenshotID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotContainer, models.PageResult, apperrors.Error)

	// ScreenshotKeyMapping. UpsertKeyMapping is idempotent: on a duplicate
	// (container, version, language, key) the existing mapping ID is returned
	// on the passed model and no new record is created.
	UpsertKeyMapping(ctx context.Context, mapping *models.ScreenshotKeyMapping) apperrors.Error
	GetKeyMapping(ctx context.Context, mappingID uuid.UUID) (*models.ScreenshotKeyMapping, apperrors.Error)
	DeleteKeyMapping(ctx context.Context, mappingID uuid.UUID) apperrors.Error
	ListKeyMappings(ctx context.Context, containerID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotKeyMapping, models.PageResult, apperrors.Error)
}

type ConnectionManager interface {
	AddScope(ctx context.Context, scope, value string)
	DropAllScopes(ctx context.Context) error
	Close(ctx context.Context)
}

type DB_ interface {
	MetadataManager
	ConnectionManager
}

const Scope_WorkspaceId string = "unlingo.curr_workspaceid"

var configuredScopes = []string{
	Scope_WorkspaceId,
}

var (
	pool   dbmanager.ScopedDb
	shared *memstore.Store
)

// Init selects the store backend. "postgresql" opens the scoped connection
// pool; "memory" installs a process-wide in-memory store used by tests.
func Init(ctx context.Context, backend string) error {
	switch backend {
	case "memory":
		shared = memstore.New()
		pool = nil
		return nil
	default:
		pg := dbmanager.NewScopedDb(ctx, backend, configuredScopes)
		if pg == nil {
			return dbErrInit
		}
		pool = pg
		return nil
	}
}

var dbErrInit = apperrors.New("unable to create db pool")

func Conn(ctx context.Context) dbmanager.ScopedConn {
	if pool != nil {
		conn, err := pool.Conn(ctx)
		if err == nil {
			return conn
		}
		log.Ctx(ctx).Error().Err(err).Msg("unable to get db connection")
	}
	return nil
}

type ctxDbKeyType string

const ctxDbKey ctxDbKeyType = "UnlingoDb"

// ConnCtx attaches a store handle to the context. Every request gets its own
// scoped connection; the memory backend shares one store.
func ConnCtx(ctx context.Context) context.Context {
	if shared != nil {
		return context.WithValue(ctx, ctxDbKey, shared)
	}
	conn := Conn(ctx)
	return context.WithValue(ctx, ctxDbKey, conn)
}

// SQLConn exposes the request's raw connection for callers that run their
// own SQL, like the blob store. Returns nil on the memory backend.
func SQLConn(ctx context.Context) *sql.Conn {
	if conn, ok := ctx.Value(ctxDbKey).(dbmanager.ScopedConn); ok {
		return conn.Conn()
	}
	return nil
}

type unlingoDb struct {
	MetadataManager
	ConnectionManager
}

func DB(ctx context.Context) DB_ {
	switch v := ctx.Value(ctxDbKey).(type) {
	case *memstore.Store:
		return v
	case dbmanager.ScopedConn:
		mm, cm := postgresql.NewUnlingoDb(v)
		return &unlingoDb{
			MetadataManager:   mm,
			ConnectionManager: cm,
		}
	}
	log.Ctx(ctx).Error().Msg("unable to get db connection from context")
	return nil
}
