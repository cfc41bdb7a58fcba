package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

func cloneRelease(r *models.Release) *models.Release {
	cp := *r
	cp.Manifest = append([]models.ReleaseEntry(nil), r.Manifest...)
	return &cp
}

// Release

func (s *Store) CreateRelease(ctx context.Context, release *models.Release) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[release.ProjectID]
	if !ok || p.WorkspaceID != wsID {
		return dberror.ErrInvalidParent.Msg("project not found")
	}
	for _, r := range s.releases {
		if r.ProjectID == release.ProjectID && r.Tag == release.Tag {
			return dberror.ErrAlreadyExists.Msg("release tag already exists in this project")
		}
	}
	release.WorkspaceID = wsID
	if release.ReleaseID == uuid.Nil {
		release.ReleaseID = uuid.New()
	}
	release.CreatedAt = s.now()
	s.releases[release.ReleaseID] = cloneRelease(release)
	return nil
}

func (s *Store) GetRelease(ctx context.Context, releaseID uuid.UUID) (*models.Release, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.releases[releaseID]
	if !ok || r.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("release not found")
	}
	return cloneRelease(r), nil
}

func (s *Store) GetReleaseByTag(ctx context.Context, projectID uuid.UUID, tag string) (*models.Release, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, dberror.ErrInvalidInput.Msg("release tag must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.releases {
		if r.ProjectID == projectID && r.Tag == tag && r.WorkspaceID == wsID {
			return cloneRelease(r), nil
		}
	}
	return nil, dberror.ErrNotFound.Msg("release not found")
}

func (s *Store) UpdateRelease(ctx context.Context, release *models.Release) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.releases[release.ReleaseID]
	if !ok || r.WorkspaceID != wsID {
		return dberror.ErrNotFound.Msg("release not found")
	}
	for _, other := range s.releases {
		if other.ProjectID == r.ProjectID && other.Tag == release.Tag && other.ReleaseID != release.ReleaseID {
			return dberror.ErrAlreadyExists.Msg("release tag already exists in this project")
		}
	}
	r.Name = release.Name
	r.Tag = release.Tag
	r.Manifest = append([]models.ReleaseEntry(nil), release.Manifest...)
	return nil
}

func (s *Store) DeleteRelease(ctx context.Context, releaseID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.releases[releaseID]
	if !ok || r.WorkspaceID != wsID {
		return nil
	}
	delete(s.releases, releaseID)
	return nil
}

func (s *Store) ListReleases(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Release, models.PageResult, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	s.mu.Lock()
	var releases []*models.Release
	for _, r := range s.releases {
		if r.ProjectID == projectID && r.WorkspaceID == wsID {
			releases = append(releases, cloneRelease(r))
		}
	}
	s.mu.Unlock()
	return paginate(releases, page, func(r *models.Release) (time.Time, uuid.UUID) {
		return r.CreatedAt, r.ReleaseID
	})
}

// Screenshot

func (s *Store) CreateScreenshot(ctx context.Context, screenshot *models.Screenshot) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[screenshot.ProjectID]
	if !ok || p.WorkspaceID != wsID {
		return dberror.ErrInvalidParent.Msg("project not found")
	}
	for _, sc := range s.screenshots {
		if sc.ProjectID == screenshot.ProjectID && sc.Name == screenshot.Name {
			return dberror.ErrAlreadyExists.Msg("screenshot name already exists in this project")
		}
	}
	screenshot.WorkspaceID = wsID
	if screenshot.ScreenshotID == uuid.Nil {
		screenshot.ScreenshotID = uuid.New()
	}
	screenshot.CreatedAt = s.now()
	cp := *screenshot
	s.screenshots[screenshot.ScreenshotID] = &cp
	return nil
}

func (s *Store) GetScreenshot(ctx context.Context, screenshotID uuid.UUID) (*models.Screenshot, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenshots[screenshotID]
	if !ok || sc.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("screenshot not found")
	}
	cp := *sc
	return &cp, nil
}

func (s *Store) GetScreenshotByName(ctx context.Context, projectID uuid.UUID, name string) (*models.Screenshot, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, dberror.ErrInvalidInput.Msg("screenshot name must be provided")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.screenshots {
		if sc.ProjectID == projectID && sc.Name == name && sc.WorkspaceID == wsID {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, dberror.ErrNotFound.Msg("screenshot not found")
}

func (s *Store) UpdateScreenshot(ctx context.Context, screenshot *models.Screenshot) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenshots[screenshot.ScreenshotID]
	if !ok || sc.WorkspaceID != wsID {
		return dberror.ErrNotFound.Msg("screenshot not found")
	}
	for _, other := range s.screenshots {
		if other.ProjectID == sc.ProjectID && other.Name == screenshot.Name && other.ScreenshotID != screenshot.ScreenshotID {
			return dberror.ErrAlreadyExists.Msg("screenshot name already exists in this project")
		}
	}
	sc.Name = screenshot.Name
	sc.Description = screenshot.Description
	return nil
}

func (s *Store) DeleteScreenshot(ctx context.Context, screenshotID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenshots[screenshotID]
	if !ok || sc.WorkspaceID != wsID {
		return nil
	}
	delete(s.screenshots, screenshotID)
	return nil
}

func (s *Store) ListScreenshots(ctx context.Context, projectID uuid.UUID, page models.PageRequest) ([]*models.Screenshot, models.PageResult, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	s.mu.Lock()
	var screenshots []*models.Screenshot
	for _, sc := range s.screenshots {
		if sc.ProjectID == projectID && sc.WorkspaceID == wsID {
			cp := *sc
			screenshots = append(screenshots, &cp)
		}
	}
	s.mu.Unlock()
	return paginate(screenshots, page, func(sc *models.Screenshot) (time.Time, uuid.UUID) {
		return sc.CreatedAt, sc.ScreenshotID
	})
}

// ScreenshotContainer

func (s *Store) CreateContainer(ctx context.Context, container *models.ScreenshotContainer) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenshots[container.ScreenshotID]
	if !ok || sc.WorkspaceID != wsID {
		return dberror.ErrInvalidParent.Msg("screenshot not found")
	}
	container.WorkspaceID = wsID
	if container.ContainerID == uuid.Nil {
		container.ContainerID = uuid.New()
	}
	container.CreatedAt = s.now()
	cp := *container
	s.containers[container.ContainerID] = &cp
	return nil
}

func (s *Store) GetContainer(ctx context.Context, containerID uuid.UUID) (*models.ScreenshotContainer, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[containerID]
	if !ok || c.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("container not found")
	}
	cp := *c
	return &cp, nil
}

func (s *Store) UpdateContainer(ctx context.Context, container *models.ScreenshotContainer) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[container.ContainerID]
	if !ok || c.WorkspaceID != wsID {
		return dberror.ErrNotFound.Msg("container not found")
	}
	c.X = container.X
	c.Y = container.Y
	c.Width = container.Width
	c.Height = container.Height
	c.BackgroundColor = container.BackgroundColor
	c.Description = container.Description
	return nil
}

func (s *Store) DeleteContainer(ctx context.Context, containerID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[containerID]
	if !ok || c.WorkspaceID != wsID {
		return nil
	}
	delete(s.containers, containerID)
	return nil
}

func (s *Store) ListContainers(ctx context.Context, screenshotID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotContainer, models.PageResult, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	s.mu.Lock()
	var containers []*models.ScreenshotContainer
	for _, c := range s.containers {
		if c.ScreenshotID == screenshotID && c.WorkspaceID == wsID {
			cp := *c
			containers = append(containers, &cp)
		}
	}
	s.mu.Unlock()
	return paginate(containers, page, func(c *models.ScreenshotContainer) (time.Time, uuid.UUID) {
		return c.CreatedAt, c.ContainerID
	})
}

// ScreenshotKeyMapping

func (s *Store) UpsertKeyMapping(ctx context.Context, mapping *models.ScreenshotKeyMapping) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[mapping.ContainerID]
	if !ok || c.WorkspaceID != wsID {
		return dberror.ErrInvalidParent.Msg("container not found")
	}
	for _, m := range s.mappings {
		if m.ContainerID == mapping.ContainerID && m.VersionID == mapping.VersionID &&
			m.LanguageID == mapping.LanguageID && m.TranslationKey == mapping.TranslationKey {
			mapping.MappingID = m.MappingID
			mapping.CreatedAt = m.CreatedAt
			mapping.WorkspaceID = wsID
			return nil
		}
	}
	mapping.WorkspaceID = wsID
	if mapping.MappingID == uuid.Nil {
		mapping.MappingID = uuid.New()
	}
	mapping.CreatedAt = s.now()
	cp := *mapping
	s.mappings[mapping.MappingID] = &cp
	return nil
}

func (s *Store) GetKeyMapping(ctx context.Context, mappingID uuid.UUID) (*models.ScreenshotKeyMapping, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[mappingID]
	if !ok || m.WorkspaceID != wsID {
		return nil, dberror.ErrNotFound.Msg("key mapping not found")
	}
	cp := *m
	return &cp, nil
}

func (s *Store) DeleteKeyMapping(ctx context.Context, mappingID uuid.UUID) apperrors.Error {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[mappingID]
	if !ok || m.WorkspaceID != wsID {
		return nil
	}
	delete(s.mappings, mappingID)
	return nil
}

func (s *Store) ListKeyMappings(ctx context.Context, containerID uuid.UUID, page models.PageRequest) ([]*models.ScreenshotKeyMapping, models.PageResult, apperrors.Error) {
	wsID, err := scopeOf(ctx)
	if err != nil {
		return nil, models.PageResult{}, err
	}
	s.mu.Lock()
	var mappings []*models.ScreenshotKeyMapping
	for _, m := range s.mappings {
		if m.ContainerID == containerID && m.WorkspaceID == wsID {
			cp := *m
			mappings = append(mappings, &cp)
		}
	}
	s.mu.Unlock()
	return paginate(mappings, page, func(m *models.ScreenshotKeyMapping) (time.Time, uuid.UUID) {
		return m.CreatedAt, m.MappingID
	})
}
