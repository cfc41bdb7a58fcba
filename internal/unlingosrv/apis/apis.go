// Package apis wires the dashboard REST surface and the public content
// endpoint onto the hierarchy layer. Dashboard routes require a bearer
// token; the content routes live under /content with permissive CORS.
package apis

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/auth"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
)

var workspaceHandlers = []httpx.ResponseHandlerParam{
	{Method: http.MethodPost, Path: "/workspaces", Handler: onboardWorkspace},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}", Handler: getWorkspace},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/limits", Handler: updateWorkspaceLimits},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}", Handler: deleteWorkspace},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/projects", Handler: createProject},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/projects", Handler: listProjects},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/projects/{projectId}", Handler: getProject},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/projects/{projectId}", Handler: updateProject},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/projects/{projectId}", Handler: deleteProject},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/projects/{projectId}/namespaces", Handler: createNamespace},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/projects/{projectId}/namespaces", Handler: listNamespaces},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/namespaces/{namespaceId}", Handler: getNamespace},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/namespaces/{namespaceId}", Handler: deleteNamespace},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/namespaces/{namespaceId}/versions", Handler: createVersion},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/namespaces/{namespaceId}/versions", Handler: listVersions},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/versions/{versionId}", Handler: getVersion},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/versions/{versionId}", Handler: deleteVersion},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/namespaces/{namespaceId}/versions/{versionId}/activate", Handler: activateVersion},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/versions/{versionId}/schema", Handler: uploadVersionSchema},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/versions/{versionId}/languages", Handler: createLanguage},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/versions/{versionId}/languages", Handler: listLanguages},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/languages/{languageId}", Handler: getLanguage},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/languages/{languageId}", Handler: deleteLanguage},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/languages/{languageId}/file", Handler: uploadLanguageFile},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/languages/{languageId}/file", Handler: getLanguageFile},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/projects/{projectId}/releases", Handler: createRelease},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/projects/{projectId}/releases", Handler: listReleases},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/releases/{releaseId}", Handler: getRelease},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/releases/{releaseId}", Handler: updateRelease},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/releases/{releaseId}", Handler: deleteRelease},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/releases/{releaseId}/resolve", Handler: resolveRelease},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/projects/{projectId}/screenshots", Handler: createScreenshot},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/projects/{projectId}/screenshots", Handler: listScreenshots},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/screenshots/{screenshotId}", Handler: getScreenshot},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/screenshots/{screenshotId}", Handler: updateScreenshot},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/screenshots/{screenshotId}", Handler: deleteScreenshot},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/screenshots/{screenshotId}/containers", Handler: createContainer},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/screenshots/{screenshotId}/containers", Handler: listContainers},
	{Method: http.MethodPut, Path: "/workspaces/{workspaceId}/containers/{containerId}", Handler: updateContainer},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/containers/{containerId}", Handler: deleteContainer},

	{Method: http.MethodPost, Path: "/workspaces/{workspaceId}/containers/{containerId}/keys", Handler: assignKeyToContainer},
	{Method: http.MethodGet, Path: "/workspaces/{workspaceId}/containers/{containerId}/keys", Handler: listKeyMappings},
	{Method: http.MethodDelete, Path: "/workspaces/{workspaceId}/keymappings/{mappingId}", Handler: deleteKeyMapping},
}

// Router mounts the authenticated dashboard routes.
func Router(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		for _, handler := range workspaceHandlers {
			r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
		}
	})
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, httpx.ErrInvalidRequest("invalid " + name)
	}
	return id, nil
}

func pageFromRequest(r *http.Request) models.PageRequest {
	page := models.PageRequest{Cursor: r.URL.Query().Get("cursor")}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			page.Limit = n
		}
	}
	return page
}

// listResponse is the envelope for paginated collections.
type listResponse struct {
	Items     any    `json:"items"`
	Cursor    string `json:"cursor,omitempty"`
	Exhausted bool   `json:"exhausted"`
}

func listRsp(items any, result models.PageResult) *httpx.Response {
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response: listResponse{
			Items:     items,
			Cursor:    result.Cursor,
			Exhausted: result.Exhausted,
		},
	}
}
