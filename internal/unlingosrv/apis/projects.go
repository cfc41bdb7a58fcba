package apis

import (
	"net/http"

	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
)

func createProject(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.CreateProjectRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	project, aerr := hierarchy.CreateProject(r.Context(), workspaceID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/projects/" + project.ProjectID.String(),
		Response:   project,
	}, nil
}

func getProject(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	project, aerr := hierarchy.GetProject(r.Context(), workspaceID, projectID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: project}, nil
}

func updateProject(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.UpdateProjectRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	project, aerr := hierarchy.UpdateProject(r.Context(), workspaceID, projectID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: project}, nil
}

func deleteProject(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteProject(r.Context(), workspaceID, projectID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func listProjects(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projects, result, aerr := hierarchy.ListProjects(r.Context(), workspaceID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(projects, result), nil
}
