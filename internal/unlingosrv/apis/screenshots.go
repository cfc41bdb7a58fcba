package apis

import (
	"encoding/base64"
	"net/http"

	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
)

// createScreenshotBody carries the image inline as base64 so the create
// stays a single JSON request.
type createScreenshotBody struct {
	hierarchy.CreateScreenshotRequest
	Image string `json:"image"`
}

func createScreenshot(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	body := &createScreenshotBody{}
	if err := httpx.GetRequestData(r, body); err != nil {
		return nil, err
	}
	image, err := base64.StdEncoding.DecodeString(body.Image)
	if err != nil {
		return nil, httpx.ErrInvalidRequest("image is not valid base64")
	}
	screenshot, aerr := hierarchy.CreateScreenshot(r.Context(), workspaceID, projectID, &body.CreateScreenshotRequest, image)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/screenshots/" + screenshot.ScreenshotID.String(),
		Response:   screenshot,
	}, nil
}

func getScreenshot(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	screenshotID, err := uuidParam(r, "screenshotId")
	if err != nil {
		return nil, err
	}
	screenshot, aerr := hierarchy.GetScreenshot(r.Context(), workspaceID, screenshotID)
	if aerr != nil {
		return nil, aerr
	}
	imageURL, aerr := hierarchy.GetScreenshotImageURL(r.Context(), workspaceID, screenshotID)
	if aerr != nil {
		return nil, aerr
	}
	rsp := map[string]any{
		"screenshot": screenshot,
		"imageUrl":   imageURL,
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func updateScreenshot(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	screenshotID, err := uuidParam(r, "screenshotId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.UpdateScreenshotRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	screenshot, aerr := hierarchy.UpdateScreenshot(r.Context(), workspaceID, screenshotID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: screenshot}, nil
}

func deleteScreenshot(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	screenshotID, err := uuidParam(r, "screenshotId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteScreenshot(r.Context(), workspaceID, screenshotID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func listScreenshots(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	projectID, err := uuidParam(r, "projectId")
	if err != nil {
		return nil, err
	}
	screenshots, result, aerr := hierarchy.ListScreenshots(r.Context(), workspaceID, projectID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(screenshots, result), nil
}

func createContainer(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	screenshotID, err := uuidParam(r, "screenshotId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.ContainerRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	container, aerr := hierarchy.CreateContainer(r.Context(), workspaceID, screenshotID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/containers/" + container.ContainerID.String(),
		Response:   container,
	}, nil
}

func updateContainer(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	containerID, err := uuidParam(r, "containerId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.ContainerRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	container, aerr := hierarchy.UpdateContainer(r.Context(), workspaceID, containerID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: container}, nil
}

func deleteContainer(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	containerID, err := uuidParam(r, "containerId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteContainer(r.Context(), workspaceID, containerID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func listContainers(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	screenshotID, err := uuidParam(r, "screenshotId")
	if err != nil {
		return nil, err
	}
	containers, result, aerr := hierarchy.ListContainers(r.Context(), workspaceID, screenshotID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(containers, result), nil
}

func assignKeyToContainer(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	containerID, err := uuidParam(r, "containerId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.AssignKeyRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	mapping, aerr := hierarchy.AssignKeyToContainer(r.Context(), workspaceID, containerID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/keymappings/" + mapping.MappingID.String(),
		Response:   mapping,
	}, nil
}

func listKeyMappings(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	containerID, err := uuidParam(r, "containerId")
	if err != nil {
		return nil, err
	}
	mappings, result, aerr := hierarchy.ListKeyMappings(r.Context(), workspaceID, containerID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(mappings, result), nil
}

func deleteKeyMapping(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	mappingID, err := uuidParam(r, "mappingId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteKeyMapping(r.Context(), workspaceID, mappingID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}
