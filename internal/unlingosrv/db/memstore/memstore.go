// Package memstore is an in-memory implementation of the metadata store.
// It mirrors the postgresql backend's semantics, including workspace
// scoping, uniqueness conflicts, counter movement and cursor pagination, so
// the hierarchy layer can be exercised without a running database.
package memstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

type Store struct {
	mu sync.Mutex

	workspaces map[uuid.UUID]*models.Workspace
	byOrg      map[string]uuid.UUID

	projects   map[uuid.UUID]*models.Project
	namespaces map[uuid.UUID]*models.Namespace
	versions   map[uuid.UUID]*models.NamespaceVersion
	languages  map[uuid.UUID]*models.Language
	releases   map[uuid.UUID]*models.Release

	screenshots map[uuid.UUID]*models.Screenshot
	containers  map[uuid.UUID]*models.ScreenshotContainer
	mappings    map[uuid.UUID]*models.ScreenshotKeyMapping

	// seq disambiguates records created within the same wall-clock tick so
	// (created_at, id) ordering stays stable.
	seq int64
}

func New() *Store {
	return &Store{
		workspaces:  map[uuid.UUID]*models.Workspace{},
		byOrg:       map[string]uuid.UUID{},
		projects:    map[uuid.UUID]*models.Project{},
		namespaces:  map[uuid.UUID]*models.Namespace{},
		versions:    map[uuid.UUID]*models.NamespaceVersion{},
		languages:   map[uuid.UUID]*models.Language{},
		releases:    map[uuid.UUID]*models.Release{},
		screenshots: map[uuid.UUID]*models.Screenshot{},
		containers:  map[uuid.UUID]*models.ScreenshotContainer{},
		mappings:    map[uuid.UUID]*models.ScreenshotKeyMapping{},
	}
}

// now returns a strictly increasing timestamp. Callers hold s.mu.
func (s *Store) now() time.Time {
	s.seq++
	return time.Now().UTC().Add(time.Duration(s.seq) * time.Nanosecond)
}

func scopeOf(ctx context.Context) (uuid.UUID, apperrors.Error) {
	wsID := uncommon.WorkspaceIdFromContext(ctx)
	if wsID == uuid.Nil {
		return uuid.Nil, dberror.ErrMissingWorkspaceID
	}
	return wsID, nil
}

// Cursor format matches the postgresql backend: base64("RFC3339Nano|uuid").

func encodeCursor(t time.Time, id uuid.UUID) string {
	raw := t.UTC().Format(time.RFC3339Nano) + "|" + id.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (time.Time, uuid.UUID, apperrors.Error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	return t, id, nil
}

// keyLess orders records by (created_at, id) ascending, matching the keyset
// the postgresql backend paginates on.
func keyLess(at time.Time, aid uuid.UUID, bt time.Time, bid uuid.UUID) bool {
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	return bytes.Compare(aid[:], bid[:]) < 0
}

// ConnectionManager. Scopes are carried in the context for this backend, so
// these are no-ops kept for interface parity.

func (s *Store) AddScope(ctx context.Context, scope, value string) {}

func (s *Store) DropAllScopes(ctx context.Context) error { return nil }

func (s *Store) Close(ctx context.Context) {}

// Workspace

func (s *Store) CreateWorkspace(ctx context.Context, ws *models.Workspace) apperrors.Error {
	if ws.OrgID == "" {
		return dberror.ErrInvalidInput.Msg("org ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byOrg[ws.OrgID]; ok {
		return dberror.ErrAlreadyExists.Msg("workspace already exists")
	}
	if ws.WorkspaceID == uuid.Nil {
		ws.WorkspaceID = uuid.New()
	}
	ws.UsageProjects = 0
	ws.CreatedAt = s.now()
	cp := *ws
	s.workspaces[ws.WorkspaceID] = &cp
	s.byOrg[ws.OrgID] = ws.WorkspaceID
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, apperrors.Error) {
	if workspaceID == uuid.Nil {
		return nil, dberror.ErrInvalidInput.Msg("workspace ID must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("workspace not found")
	}
	cp := *ws
	return &cp, nil
}

func (s *Store) GetWorkspaceByOrg(ctx context.Context, orgID string) (*models.Workspace, apperrors.Error) {
	if orgID == "" {
		return nil, dberror.ErrInvalidInput.Msg("org ID must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byOrg[orgID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("workspace not found")
	}
	cp := *s.workspaces[id]
	return &cp, nil
}

func (s *Store) UpdateWorkspaceLimits(ctx context.Context, workspaceID uuid.UUID, limits models.Limits) apperrors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return dberror.ErrNotFound.Msg("workspace not found")
	}
	ws.Limits = limits
	return nil
}

func (s *Store) AdjustWorkspaceProjectUsage(ctx context.Context, workspaceID uuid.UUID, delta int) apperrors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil
	}
	ws.UsageProjects += delta
	if ws.UsageProjects < 0 {
		ws.UsageProjects = 0
	}
	return nil
}

func (s *Store) DeleteWorkspace(ctx context.Context, workspaceID uuid.UUID) apperrors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil
	}
	delete(s.byOrg, ws.OrgID)
	delete(s.workspaces, workspaceID)
	return nil
}
