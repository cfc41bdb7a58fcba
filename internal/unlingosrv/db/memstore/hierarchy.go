package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

// paginate sorts items newest first by (created_at, id), drops everything at
// or after the cursor, and slices one page. key returns a record's sort pair.
func paginate[T any](items []T, page models.PageRequest, key func(T) (time.Time, uuid.UUID)) ([]T, models.PageResult, apperrors.Error) {
	page = page.Normalize()
	sort.Slice(items, func(i, j int) bool {
		it, iid := key(items[i])
		jt, jid := key(items[j])
		return keyLess(jt, jid, it, iid)
	})
	if page.Cursor != "" {
		ct, cid, err := decodeCursor(page.Cursor)
		if err != nil {
			return nil, models.PageResult{}, err
		}
		n := sort.Search(len(items), func(i int) bool {
			t, id := key(items[i])
			return keyLess(t, id, ct, cid)
		})
		items = items[n:]
	}
	if len(items) <= page.Limit {
		return items, models.PageResult{Exhausted: true}, nil
	}
	items = items[:page.Limit]
	lt, lid := key(items[len(items)-1])
	return items, models.PageResult{Cursor: encodeCursor(lt, lid)}, nil
}

// Project

func (s *Store) CreateProject(ctx context.Context, project *models.Project) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[wsID]
	if !ok {
		return dberror.ErrInvalidParent.Msg("workspace not found")
	}
	if ws.UsageProjects >= ws.Limits.Projects {
		return dberror.ErrLimitReached.Msg("project limit reached for this workspace")
	}
	for _, p := range s.projects {
		if p.WorkspaceID == wsID && p.Name == project.Name {
			return dberror.ErrAlreadyExists.Msg("project name already exists in this workspace")
		}
	}
	project.WorkspaceID = wsID
	if project.ProjectID == uuid.Nil {
		project.ProjectID = uuid.New()
	}
	project.UsageNamespaces = 0
	project.CreatedAt = s.now()
	cp := *project
	s.projects[project.ProjectID] = &cp
	ws.UsageProjects++
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok || p.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("project not found")
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetProjectByName(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Project, apperrors.Error) {
	if name == "" {
		return nil, dberror.ErrInvalidInput.Msg("project name must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.WorkspaceID == workspaceID && p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, dberror.ErrNotFound.Msg("project not found")
}

func (s *Store) UpdateProject(ctx context.Context, project *models.Project) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[project.ProjectID]
	if !ok || p.WorkspaceID != wsID {
		return dberror.ErrNotFound.Msg("project not found")
	}
	for _, other := range s.projects {
		if other.WorkspaceID == wsID && other.Name == project.Name && other.ProjectID != project.ProjectID {
			return dberror.ErrAlreadyExists.Msg("project name already exists in this workspace")
		}
	}
	p.Name = project.Name
	p.Description = project.Description
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok || p.WorkspaceID != wsID {
		return nil
	}
	delete(s.projects, projectID)
	if ws, ok := s.workspaces[wsID]; ok && ws.UsageProjects > 0 {
		ws.UsageProjects--
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context, workspaceID uuid.UUID, page models.PageRequest) ([]*models.Project, models.PageResult, apperrors.Error) {
	s.mu.Lock()
	var projects []*models.Project
	for _, p := range s.projects {
		if p.WorkspaceID == workspaceID {
			cp := *p
			projects = append(projects, &cp)
		}
	}
	s.mu.Unlock()
	return paginate(projects, page, func(p *models.Project) (time.Time, uuid.UUID) {
		return p.CreatedAt, p.ProjectID
	})
}

// Namespace

func (s *Store) CreateNamespace(ctx context.Context, ns *models.Namespace) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[ns.ProjectID]
	if !ok || p.WorkspaceID != wsID {
		return dberror.ErrInvalidParent.Msg("project not found")
	}
	ws := s.workspaces[wsID]
	if p.UsageNamespaces >= ws.Limits.NamespacesPerProject {
		return dberror.ErrLimitReached.Msg("namespace limit reached for this project")
	}
	for _, n := range s.namespaces {
		if n.ProjectID == ns.ProjectID && n.Name == ns.Name {
			return dberror.ErrAlreadyExists.Msg("namespace name already exists in this project")
		}
	}
	ns.WorkspaceID = wsID
	if ns.NamespaceID == uuid.Nil {
		ns.NamespaceID = uuid.New()
	}
	ns.UsageVersions = 0
	ns.UsageLanguages = 0
	ns.CreatedAt = s.now()
	cp := *ns
	s.namespaces[ns.NamespaceID] = &cp
	p.UsageNamespaces++
	return nil
}

func (s *Store) GetNamespace(ctx context.Context, namespaceID uuid.UUID) (*models.Namespace, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespaceID]
	if !ok || ns.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("namespace not found")
	}
	cp := *ns
	return &cp, nil
}

func (s *Store) GetNamespaceByName(ctx context.Context, projectID uuid.UUID, name string) (*models.Namespace, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, dberror.ErrInvalidInput.Msg("namespace name must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ns := range s.namespaces {
		if ns.ProjectID == projectID && ns.Name == name && ns.WorkspaceID == wsID {
			cp := *ns
			return &cp, nil
		}
	}
	return nil, dberror.ErrNotFound.Msg("namespace not found")
}

func (s *Store) DeleteNamespace(ctx context.Context, namespaceID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespaceID]
	if !ok || ns.WorkspaceID != wsID {
		return nil
	}
	delete(s.namespaces, namespaceID)
	if p, ok := s.projects[ns.ProjectID]; ok && p.UsageNamespaces > 0 {
		p.UsageNamespaces--
	}
	return nil
}

func (s *Store) ListNamespaces(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Namespace, models.PageResult, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	s.mu.Lock()
	var namespaces []*models.Namespace
	for _, ns := range s.namespaces {
		if ns.ProjectID == projectID && ns.WorkspaceID == wsID {
			cp := *ns
			namespaces = append(namespaces, &cp)
		}
	}
	s.mu.Unlock()
	return paginate(namespaces, page, func(ns *models.Namespace) (time.Time, uuid.UUID) {
		return ns.CreatedAt, ns.NamespaceID
	})
}

// NamespaceVersion

func (s *Store) CreateVersion(ctx context.Context, version *models.NamespaceVersion) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[version.NamespaceID]
	if !ok || ns.WorkspaceID != wsID {
		return dberror.ErrInvalidParent.Msg("namespace not found")
	}
	ws := s.workspaces[wsID]
	if ns.UsageVersions >= ws.Limits.VersionsPerNamespace {
		return dberror.ErrLimitReached.Msg("version limit reached for this namespace")
	}
	for _, v := range s.versions {
		if v.NamespaceID == version.NamespaceID && v.Version == version.Version {
			return dberror.ErrAlreadyExists.Msg("version already exists in this namespace")
		}
	}
	version.WorkspaceID = wsID
	if version.VersionID == uuid.Nil {
		version.VersionID = uuid.New()
	}
	version.PrimaryLanguageID = uuid.Nil
	version.UsageLanguages = 0
	version.CreatedAt = s.now()
	cp := *version
	s.versions[version.VersionID] = &cp
	ns.UsageVersions++
	return nil
}

func (s *Store) GetVersion(ctx context.Context, versionID uuid.UUID) (*models.NamespaceVersion, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok || v.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("version not found")
	}
	cp := *v
	return &cp, nil
}

func (s *Store) GetVersionByString(ctx context.Context, namespaceID uuid.UUID, version string) (*models.NamespaceVersion, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, dberror.ErrInvalidInput.Msg("version string must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions {
		if v.NamespaceID == namespaceID && v.Version == version && v.WorkspaceID == wsID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, dberror.ErrNotFound.Msg("version not found")
}

func (s *Store) GetActiveVersion(ctx context.Context, namespaceID uuid.UUID) (*models.NamespaceVersion, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions {
		if v.NamespaceID == namespaceID && v.WorkspaceID == wsID && v.Active {
			cp := *v
			return &cp, nil
		}
	}
	return nil, dberror.ErrNotFound.Msg("no active version for this namespace")
}

func (s *Store) SetActiveVersion(ctx context.Context, namespaceID, versionID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, v := range s.versions {
		if v.NamespaceID == namespaceID && v.WorkspaceID == wsID {
			v.Active = v.VersionID == versionID
			found = true
		}
	}
	if !found {
		return dberror.ErrNotFound.Msg("namespace has no versions")
	}
	return nil
}

func (s *Store) SetVersionSchema(ctx context.Context, versionID uuid.UUID, blobID string, size int64) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok || v.WorkspaceID != wsID {
		return dberror.ErrNotFound.Msg("version not found")
	}
	v.SchemaBlobID = blobID
	v.SchemaSize = size
	return nil
}

func (s *Store) SetPrimaryLanguage(ctx context.Context, versionID, languageID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok || v.WorkspaceID != wsID {
		return dberror.ErrNotFound.Msg("version not found")
	}
	v.PrimaryLanguageID = languageID
	return nil
}

func (s *Store) DeleteVersion(ctx context.Context, versionID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok || v.WorkspaceID != wsID {
		return nil
	}
	delete(s.versions, versionID)
	if ns, ok := s.namespaces[v.NamespaceID]; ok {
		if ns.UsageVersions > 0 {
			ns.UsageVersions--
		}
		ns.UsageLanguages -= v.UsageLanguages
		if ns.UsageLanguages < 0 {
			ns.UsageLanguages = 0
		}
	}
	return nil
}

func (s *Store) ListVersions(ctx context.Context, namespaceID uuid.UUID, page models.PageRequest) ([]*models.NamespaceVersion, models.PageResult, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	s.mu.Lock()
	var versions []*models.NamespaceVersion
	for _, v := range s.versions {
		if v.NamespaceID == namespaceID && v.WorkspaceID == wsID {
			cp := *v
			versions = append(versions, &cp)
		}
	}
	s.mu.Unlock()
	return paginate(versions, page, func(v *models.NamespaceVersion) (time.Time, uuid.UUID) {
		return v.CreatedAt, v.VersionID
	})
}

// Language

func (s *Store) CreateLanguage(ctx context.Context, lang *models.Language) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[lang.VersionID]
	if !ok || v.WorkspaceID != wsID {
		return dberror.ErrInvalidParent.Msg("version not found")
	}
	ws := s.workspaces[wsID]
	if v.UsageLanguages >= ws.Limits.LanguagesPerVersion {
		return dberror.ErrLimitReached.Msg("language limit reached for this version")
	}
	for _, l := range s.languages {
		if l.VersionID == lang.VersionID && l.Code == lang.Code {
			return dberror.ErrAlreadyExists.Msg("language code already exists in this version")
		}
	}
	lang.WorkspaceID = wsID
	if lang.LanguageID == uuid.Nil {
		lang.LanguageID = uuid.New()
	}
	lang.CreatedAt = s.now()
	cp := *lang
	s.languages[lang.LanguageID] = &cp
	v.UsageLanguages++
	if v.PrimaryLanguageID == uuid.Nil {
		v.PrimaryLanguageID = lang.LanguageID
	}
	if ns, ok := s.namespaces[v.NamespaceID]; ok {
		ns.UsageLanguages++
	}
	return nil
}

func (s *Store) GetLanguage(ctx context.Context, languageID uuid.UUID) (*models.Language, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.languages[languageID]
	if !ok || l.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("language not found")
	}
	cp := *l
	return &cp, nil
}

func (s *Store) GetLanguageByCode(ctx context.Context, versionID uuid.UUID, code string) (*models.Language, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, dberror.ErrInvalidInput.Msg("language code must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.languages {
		if l.VersionID == versionID && l.Code == code && l.WorkspaceID == wsID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, dberror.ErrNotFound.Msg("language not found")
}

func (s *Store) SetLanguageFile(ctx context.Context, languageID uuid.UUID, blobID string, size int64) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.languages[languageID]
	if !ok || l.WorkspaceID != wsID {
		return dberror.ErrNotFound.Msg("language not found")
	}
	l.FileBlobID = blobID
	l.FileSize = size
	return nil
}

func (s *Store) DeleteLanguage(ctx context.Context, languageID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.languages[languageID]
	if !ok || l.WorkspaceID != wsID {
		return nil
	}
	delete(s.languages, languageID)
	if v, ok := s.versions[l.VersionID]; ok {
		if v.UsageLanguages > 0 {
			v.UsageLanguages--
		}
		if v.PrimaryLanguageID == languageID {
			v.PrimaryLanguageID = uuid.Nil
		}
		if ns, ok := s.namespaces[v.NamespaceID]; ok && ns.UsageLanguages > 0 {
			ns.UsageLanguages--
		}
	}
	return nil
}

func (s *Store) ListLanguages(ctx context.Context, versionID uuid.UUID, page models.PageRequest) ([]*models.Language, models.PageResult, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	s.mu.Lock()
	var languages []*models.Language
	for _, l := range s.languages {
		if l.VersionID == versionID && l.WorkspaceID == wsID {
			cp := *l
			languages = append(languages, &cp)
		}
	}
	s.mu.Unlock()
	return paginate(languages, page, func(l *models.Language) (time.Time, uuid.UUID) {
		return l.CreatedAt, l.LanguageID
	})
}
