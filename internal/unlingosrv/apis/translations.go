package apis

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/httpx"
	"github.com/unlingo/unlingo/internal/unlingosrv/auth"
	"github.com/unlingo/unlingo/internal/unlingosrv/hierarchy"
	"github.com/unlingo/unlingo/internal/unlingosrv/objectstore"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

// ContentRouter mounts the public translations endpoint. End-user
// applications call it from browsers, so CORS is wide open, and every
// failure collapses to a 400 with an error body so clients need only
// distinguish success from not.
func ContentRouter(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/content/{projectName}/{namespaceName}/{version}/{language}", getTranslations)
		r.Post("/content/{projectName}/{namespaceName}/{version}/{language}", postTranslations)
	})
}

func sendContentError(ctx context.Context, w http.ResponseWriter, err error) {
	log.Ctx(ctx).Info().Err(err).Msg("content request failed")
	httpx.SendJsonRsp(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func contentContext(r *http.Request) (context.Context, error) {
	orgID, err := auth.OrgFromRequest(r)
	if err != nil {
		return nil, err
	}
	return uncommon.SetOrgIdInContext(r.Context(), orgID), nil
}

func getTranslations(w http.ResponseWriter, r *http.Request) {
	ctx, err := contentContext(r)
	if err != nil {
		sendContentError(r.Context(), w, err)
		return
	}
	doc, aerr := hierarchy.FetchTranslations(ctx,
		chi.URLParam(r, "projectName"),
		chi.URLParam(r, "namespaceName"),
		chi.URLParam(r, "version"),
		chi.URLParam(r, "language"))
	if aerr != nil {
		sendContentError(ctx, w, aerr)
		return
	}
	httpx.SendJsonRsp(ctx, w, http.StatusOK, doc)
}

func postTranslations(w http.ResponseWriter, r *http.Request) {
	ctx, err := contentContext(r)
	if err != nil {
		sendContentError(r.Context(), w, err)
		return
	}
	content, err := io.ReadAll(io.LimitReader(r.Body, objectstore.MaxBlobSize+1))
	if err != nil {
		sendContentError(ctx, w, err)
		return
	}
	if len(content) > objectstore.MaxBlobSize {
		sendContentError(ctx, w, errContentTooLarge)
		return
	}
	doc, aerr := hierarchy.PublishTranslations(ctx,
		chi.URLParam(r, "projectName"),
		chi.URLParam(r, "namespaceName"),
		chi.URLParam(r, "version"),
		chi.URLParam(r, "language"),
		content)
	if aerr != nil {
		sendContentError(ctx, w, aerr)
		return
	}
	httpx.SendJsonRsp(ctx, w, http.StatusOK, doc)
}

var errContentTooLarge = errors.New("translations document exceeds the size limit")
