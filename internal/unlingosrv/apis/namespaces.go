package apis

import (
	"net/http"

	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
)

func createNamespace(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.CreateNamespaceRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	ns, aerr := hierarchy.CreateNamespace(r.Context(), workspaceID, projectID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/namespaces/" + ns.NamespaceID.String(),
		Response:   ns,
	}, nil
}

func getNamespace(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	namespaceID, err := uuidParam(r, "namespaceId")
	if err != nil {
		return nil, err
	}
	ns, aerr := hierarchy.GetNamespace(r.Context(), workspaceID, namespaceID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: ns}, nil
}

func deleteNamespace(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	namespaceID, err := uuidParam(r, "namespaceId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteNamespace(r.Context(), workspaceID, namespaceID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func listNamespaces(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	namespaces, result, aerr := hierarchy.ListNamespaces(r.Context(), workspaceID, projectID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(namespaces, result), nil
}
