// Package http provides http transport for the catalog
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"courseboard/internal/modkit/httpkit"
	perr "courseboard/internal/platform/errors"
	"courseboard/internal/services/catalog/domain"
)

// Register mounts catalog endpoints on the given router
func Register(r httpkit.Router, reader domain.ReaderPort) {
	h := &handlers{reader: reader}
	httpkit.Get(r, "/offerings", h.list)
	httpkit.Get(r, "/offerings/{id}", h.get)
	httpkit.Get(r, "/snapshot", h.snapshot)
}

type handlers struct{ reader domain.ReaderPort }

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	f := domain.Filters{
		Term:           q.Get("term"),
		Code:           q.Get("code"),
		Teacher:        q.Get("teacher"),
		IncludeRemoved: q.Get("include_removed") == "true",
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return h.reader.List(r.Context(), f, limit, offset)
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, perr.InvalidArgf("offering id must be a uuid")
	}
	return h.reader.Get(r.Context(), id)
}

func (h *handlers) snapshot(r *stdhttp.Request) (any, error) {
	snap := h.reader.Current()
	if snap == nil {
		return nil, perr.Newf(perr.ErrorCodeNotFound, "no catalog snapshot committed yet")
	}
	return snap.Meta(), nil
}
