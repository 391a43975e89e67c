// Package http provides http transport for course tables
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"courseboard/internal/modkit/httpkit"
	perr "courseboard/internal/platform/errors"
	pnet "courseboard/internal/platform/net"
	phttp "courseboard/internal/platform/net/http"
	"courseboard/internal/platform/net/http/bind"
	"courseboard/internal/services/coursetable/domain"
)

// Register mounts course table endpoints on the given router
func Register(r httpkit.Router, port domain.TablePort) {
	h := &handlers{port: port}
	httpkit.PostJSON[domain.CreateInput](r, "/", h.create)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.PatchJSON[domain.RenameInput](r, "/{id}", h.rename)
	httpkit.Delete(r, "/{id}", h.remove)
	httpkit.Get(r, "/{id}/conflicts", h.check)
	r.Post("/{id}/offerings", phttp.Handle(h.addOffering))
	httpkit.Delete(r, "/{id}/offerings/{offeringID}", h.removeOffering)
}

// RegisterValidate mounts the standalone preview endpoint
func RegisterValidate(r httpkit.Router, port domain.TablePort) {
	h := &handlers{port: port}
	httpkit.PostJSON[domain.ValidateInput](r, "/", h.validate)
}

type handlers struct{ port domain.TablePort }

func userID(r *stdhttp.Request) (string, error) {
	uid := pnet.UserID(r.Context())
	if uid == "" {
		return "", perr.Unauthorizedf("missing user identity")
	}
	return uid, nil
}

func pathUUID(r *stdhttp.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, perr.InvalidArgf("%s must be a uuid", name)
	}
	return id, nil
}

func (h *handlers) create(r *stdhttp.Request, in domain.CreateInput) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	return h.port.Create(r.Context(), uid, in)
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	return h.port.List(r.Context(), uid)
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.port.Get(r.Context(), uid, id)
}

func (h *handlers) check(r *stdhttp.Request) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.port.Check(r.Context(), uid, id)
}

func (h *handlers) rename(r *stdhttp.Request, in domain.RenameInput) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	return h.port.Rename(r.Context(), uid, id, in)
}

func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	return nil, h.port.Delete(r.Context(), uid, id)
}

// addOffering returns 409 with the conflict report when validation rejects,
// which is an expected outcome rather than an error
func (h *handlers) addOffering(r *stdhttp.Request) phttp.Response {
	uid, err := userID(r)
	if err != nil {
		return phttp.Error(err)
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return phttp.Error(err)
	}
	in, err := bind.ParseJSON[domain.AddInput](r)
	if err != nil {
		return phttp.Error(err)
	}
	offeringID, err := uuid.Parse(in.OfferingID)
	if err != nil {
		return phttp.Error(perr.InvalidArgf("offering_id must be a uuid"))
	}

	res, err := h.port.AddOffering(r.Context(), uid, id, offeringID)
	if err != nil {
		return phttp.Error(err)
	}
	if !res.Report.Ok() {
		return phttp.Response{Status: stdhttp.StatusConflict, Body: res}
	}
	return phttp.OK(res)
}

func (h *handlers) removeOffering(r *stdhttp.Request) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	offeringID, err := pathUUID(r, "offeringID")
	if err != nil {
		return nil, err
	}
	return h.port.RemoveOffering(r.Context(), uid, id, offeringID)
}

func (h *handlers) validate(r *stdhttp.Request, in domain.ValidateInput) (any, error) {
	uid, err := userID(r)
	if err != nil {
		return nil, err
	}
	return h.port.Validate(r.Context(), uid, in)
}
