package handler

import (
	"net/http"

	"github.com/dealer-transfers-api/internal/application/location"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// LocationHandler handles dealership location endpoints.
type LocationHandler struct {
	svc location.Service
}

func NewLocationHandler(svc location.Service) *LocationHandler { return &LocationHandler{svc: svc} }

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locs, err := h.svc.List(r.Context(), parseBool(r, "active"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEnvelope[domain.Location]{Data: emptyIfNil(locs)})
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.LocationInput
	if !decode(w, r, &in) {
		return
	}
	l, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.LocationInput
	if !decode(w, r, &in) {
		return
	}
	l, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *LocationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "location deactivated"})
}
