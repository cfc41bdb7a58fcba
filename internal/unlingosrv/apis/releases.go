package apis

import (
	"net/http"

	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
)

func createRelease(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.ReleaseRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	release, aerr := hierarchy.CreateRelease(r.Context(), workspaceID, projectID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/releases/" + release.ReleaseID.String(),
		Response:   release,
	}, nil
}

func getRelease(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	releaseID, err := uuidParam(r, "releaseId")
	if err != nil {
		return nil, err
	}
	release, aerr := hierarchy.GetRelease(r.Context(), workspaceID, releaseID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: release}, nil
}

func updateRelease(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	releaseID, err := uuidParam(r, "releaseId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.ReleaseRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	release, aerr := hierarchy.UpdateRelease(r.Context(), workspaceID, releaseID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: release}, nil
}

func deleteRelease(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	releaseID, err := uuidParam(r, "releaseId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteRelease(r.Context(), workspaceID, releaseID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func listReleases(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	releases, result, aerr := hierarchy.ListReleases(r.Context(), workspaceID, projectID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(releases, result), nil
}

func resolveRelease(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	releaseID, err := uuidParam(r, "releaseId")
	if err != nil {
		return nil, err
	}
	release, entries, aerr := hierarchy.ResolveRelease(r.Context(), workspaceID, releaseID)
	if aerr != nil {
		return nil, aerr
	}
	rsp := map[string]any{
		"release": release,
		"entries": entries,
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}
