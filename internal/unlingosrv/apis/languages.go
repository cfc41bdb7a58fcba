package apis

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
)

func createLanguage(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		return nil, err
	}
	req := &hierarchy.CreateLanguageRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	result, aerr := hierarchy.CreateLanguage(r.Context(), workspaceID, versionID, req)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/workspaces/" + workspaceID.String() + "/languages/" + result.Language.LanguageID.String(),
		Response:   result,
	}, nil
}

func getLanguage(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	languageID, err := uuidParam(r, "languageId")
	if err != nil {
		return nil, err
	}
	language, aerr := hierarchy.GetLanguage(r.Context(), workspaceID, languageID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: language}, nil
}

func deleteLanguage(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	languageID, err := uuidParam(r, "languageId")
	if err != nil {
		return nil, err
	}
	if aerr := hierarchy.DeleteLanguage(r.Context(), workspaceID, languageID); aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

func listLanguages(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	versionID, err := uuidParam(r, "versionId")
	if err != nil {
		return nil, err
	}
	languages, result, aerr := hierarchy.ListLanguages(r.Context(), workspaceID, versionID, pageFromRequest(r))
	if aerr != nil {
		return nil, aerr
	}
	return listRsp(languages, result), nil
}

func uploadLanguageFile(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	languageID, err := uuidParam(r, "languageId")
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(io.LimitReader(r.Body, objectstore.MaxBlobSize+1))
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}
	if len(content) > objectstore.MaxBlobSize {
		return nil, httpx.ErrInvalidRequest("translation file exceeds the size limit")
	}
	language, aerr := hierarchy.UploadLanguageFile(r.Context(), workspaceID, languageID, content)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: language}, nil
}

func getLanguageFile(r *http.Request) (*httpx.Response, error) {
	workspaceID, err := uuidParam(r, "workspaceId")
	if err != nil {
		return nil, err
	}
	languageID, err := uuidParam(r, "languageId")
	if err != nil {
		return nil, err
	}
	content, aerr := hierarchy.GetLanguageFile(r.Context(), workspaceID, languageID)
	if aerr != nil {
		return nil, aerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: json.RawMessage(content)}, nil
}
