package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dealer-transfers-api/internal/application/vehicle"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// VehicleHandler handles inventory, comment and vehicle history endpoints.
type VehicleHandler struct {
	svc vehicle.Service
}

func NewVehicleHandler(svc vehicle.Service) *VehicleHandler { return &VehicleHandler{svc: svc} }

func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	f := domain.VehicleFilter{
		LocationID: q.Get("location_id"),
		Status:     domain.VehicleStatus(q.Get("status")),
		Make:       q.Get("make"),
		Search:     q.Get("search"),
		Limit:      limit,
		Offset:     offset,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", f.Status))
		return
	}
	vehicles, total, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope[domain.Vehicle]{
		Data: emptyIfNil(vehicles), Total: total, Limit: limit, Offset: offset,
	})
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.CreateVehicleRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Create(r.Context(), actor, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.UpdateVehicleRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VehicleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.UpdateVehicleStatusRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VehicleHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in domain.CommentInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.AddComment(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *VehicleHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEnvelope[domain.Comment]{Data: emptyIfNil(comments)})
}

func (h *VehicleHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.ListActivity(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEnvelope[domain.VehicleActivity]{Data: emptyIfNil(items)})
}
