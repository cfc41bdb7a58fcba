package dberror

import (
	"net/http"

	"github.com/unlingo/unlingo/internal/common/apperrors"
)

var (
	ErrDatabase           apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists      apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound           apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput       apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrLimitReached       apperrors.Error = ErrDatabase.New("plan limit reached").SetStatusCode(http.StatusForbidden)
	ErrInvalidParent      apperrors.Error = ErrDatabase.New("parent record not found or invalid").SetStatusCode(http.StatusBadRequest)
	ErrMissingWorkspaceID apperrors.Error = ErrInvalidInput.New("missing workspace ID").SetStatusCode(http.StatusBadRequest)
)
