package apis

import (
	"io"
	"net/http"

	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

func createVersion(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	namespaceID, err := uuidParam(r, "namespaceId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.CreateVersionRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	version, aerr := hierarchy.CreateVersion(r.Context(), workspaceID, namespaceID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/versions/" + version.VersionID.String(),
		Response:   version,
	}, nil
}

func getVersion(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		return nil, err
	}
	version, aerr := hierarchy.GetVersion(r.Context(), workspaceID, versionID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: version}, nil
}

func deleteVersion(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteVersion(r.Context(), workspaceID, versionID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func listVersions(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	namespaceID, err := uuidParam(r, "namespaceId")
	if err != nil {
		return nil, err
	}
	versions, result, aerr := hierarchy.ListVersions(r.Context(), workspaceID, namespaceID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(versions, result), nil
}

func activateVersion(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	namespaceID, err := uuidParam(r, "namespaceId")
	if err != nil {
		return nil, err
	}
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.SetActiveVersion(r.Context(), workspaceID, namespaceID, versionID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]string{"status": "active"}}, nil
}

func uploadVersionSchema(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		return nil, err
	}
	schema, err := io.ReadAll(io.LimitReader(r.Body, objectstore.MaxBlobSize+1))
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}
	if len(schema) > objectstore.MaxBlobSize {
		return nil, httpx.ErrInvalidRequest("schema exceeds the size limit")
	}
	if aerr := hierarchy.UploadVersionSchema(r.Context(), workspaceID, versionID, schema); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: map[string]string{"status": "stored"}}, nil
}
