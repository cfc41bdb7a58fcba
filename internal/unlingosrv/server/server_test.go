package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/unlingo/unlingo/internal/unlingosrv/auth"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

func setupServer(t *testing.T) (*UnlingoServer, string) {
	t.Helper()
	require.NoError(t, db.Init(context.Background(), "memory"))
	objectstore.Init("memory")
	s, err := CreateNewServer()
	require.NoError(t, err, "create new server")
	s.MountHandlers()
	token, err := auth.CreateToken("org_test", time.Hour)
	require.NoError(t, err)
	return s, token
}

func executeRequest(t *testing.T, s *UnlingoServer, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func TestGetVersionEndpoint(t *testing.T) {
	s, _ := setupServer(t)
	rr := executeRequest(t, s, http.MethodGet, "/version", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "serverVersion")
}

func TestDashboardRequiresToken(t *testing.T) {
	s, _ := setupServer(t)
	rr := executeRequest(t, s, http.MethodPost, "/workspaces", "", []byte(`{}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWorkspaceToContentFlow(t *testing.T) {
	s, token := setupServer(t)

	rr := executeRequest(t, s, http.MethodPost, "/workspaces", token, []byte(`{}`))
	require.Equal(t, http.StatusCreated, rr.Code, "response: %s", rr.Body.String())
	wsID := gjson.Get(rr.Body.String(), "workspaceId").String()
	require.NotEmpty(t, wsID)
	assert.Contains(t, rr.Header().Get("Location"), wsID)

	base := "/workspaces/" + wsID

	rr = executeRequest(t, s, http.MethodPost, base+"/projects", token, []byte(`{"name":"mobile-app"}`))
	require.Equal(t, http.StatusCreated, rr.Code, "response: %s", rr.Body.String())
	projectID := gjson.Get(rr.Body.String(), "projectId").String()

	rr = executeRequest(t, s, http.MethodPost, base+"/projects/"+projectID+"/namespaces", token, []byte(`{"name":"checkout"}`))
	require.Equal(t, http.StatusCreated, rr.Code, "response: %s", rr.Body.String())
	nsID := gjson.Get(rr.Body.String(), "namespaceId").String()

	rr = executeRequest(t, s, http.MethodPost, base+"/namespaces/"+nsID+"/versions", token, []byte(`{"version":"1.0.0"}`))
	require.Equal(t, http.StatusCreated, rr.Code, "response: %s", rr.Body.String())
	versionID := gjson.Get(rr.Body.String(), "versionId").String()

	rr = executeRequest(t, s, http.MethodPost, base+"/versions/"+versionID+"/languages", token, []byte(`{"code":"en"}`))
	require.Equal(t, http.StatusCreated, rr.Code, "response: %s", rr.Body.String())
	langID := gjson.Get(rr.Body.String(), "language.languageId").String()

	rr = executeRequest(t, s, http.MethodPut, base+"/languages/"+langID+"/file", token, []byte(`{"greeting":"hello"}`))
	require.Equal(t, http.StatusOK, rr.Code, "response: %s", rr.Body.String())

	rr = executeRequest(t, s, http.MethodPut, base+"/namespaces/"+nsID+"/versions/"+versionID+"/activate", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, "response: %s", rr.Body.String())

	rr = executeRequest(t, s, http.MethodGet, "/content/mobile-app/checkout/active/en", token, nil)
	require.Equal(t, http.StatusOK, rr.Code, "response: %s", rr.Body.String())
	body := rr.Body.String()
	assert.Equal(t, "checkout", gjson.Get(body, "namespace").String())
	assert.Equal(t, "1.0.0", gjson.Get(body, "version").String())
	assert.Equal(t, "hello", gjson.Get(body, "translations.greeting").String())

	// any content miss is a 400 with an error body
	rr = executeRequest(t, s, http.MethodGet, "/content/mobile-app/checkout/active/de", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotEmpty(t, gjson.Get(rr.Body.String(), "error").String())
}

func TestContentPostCutsNewVersion(t *testing.T) {
	s, token := setupServer(t)

	rr := executeRequest(t, s, http.MethodPost, "/workspaces", token, []byte(`{}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	wsID := gjson.Get(rr.Body.String(), "workspaceId").String()
	base := "/workspaces/" + wsID

	rr = executeRequest(t, s, http.MethodPost, base+"/projects", token, []byte(`{"name":"mobile-app"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	projectID := gjson.Get(rr.Body.String(), "projectId").String()

	rr = executeRequest(t, s, http.MethodPost, base+"/projects/"+projectID+"/namespaces", token, []byte(`{"name":"checkout"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	nsID := gjson.Get(rr.Body.String(), "namespaceId").String()

	rr = executeRequest(t, s, http.MethodPost, base+"/namespaces/"+nsID+"/versions", token, []byte(`{"version":"1.0.0"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	versionID := gjson.Get(rr.Body.String(), "versionId").String()

	rr = executeRequest(t, s, http.MethodPost, base+"/versions/"+versionID+"/languages", token, []byte(`{"code":"en"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	langID := gjson.Get(rr.Body.String(), "language.languageId").String()

	rr = executeRequest(t, s, http.MethodPut, base+"/languages/"+langID+"/file", token, []byte(`{"greeting":"hello"}`))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = executeRequest(t, s, http.MethodPost, "/content/mobile-app/checkout/1.0.0/en", token, []byte(`{"greeting":"hi"}`))
	require.Equal(t, http.StatusOK, rr.Code, "response: %s", rr.Body.String())
	assert.Equal(t, "1.0.1", gjson.Get(rr.Body.String(), "version").String())

	rr = executeRequest(t, s, http.MethodGet, "/content/mobile-app/checkout/active/en", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1.0.1", gjson.Get(rr.Body.String(), "version").String())
	assert.Equal(t, "hi", gjson.Get(rr.Body.String(), "translations.greeting").String())
}
