package apis

import (
	"net/http"

	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/models"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
)

func onboardWorkspace(r *http.Request) (*httpx.Response, error) {
	req := &hierarchy.OnboardWorkspaceRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	ws, err := hierarchy.OnboardWorkspace(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + ws.WorkspaceID.String(),
		Response:   ws,
	}, nil
}

func getWorkspace(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	ws, aerr := hierarchy.GetWorkspace(r.Context(), workspaceID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: ws}, nil
}

func deleteWorkspace(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteWorkspace(r.Context(), workspaceID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func updateWorkspaceLimits(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	limits := models.Limits{}
	if err := httpx.GetRequestData(r, &limits); err != nil {
		return nil, err
	}
	if aerr := hierarchy.UpdateWorkspaceLimits(r.Context(), workspaceID, limits); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: limits}, nil
}
