package handler

import (
	"fmt"
	"net/http"

	"github.com/dealer-transfers-api/internal/application/transfer"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// TransferHandler handles inter-location transfer endpoints.
type TransferHandler struct {
	svc transfer.Service
}

func NewTransferHandler(svc transfer.Service) *TransferHandler { return &TransferHandler{svc: svc} }

func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	f := domain.TransferFilter{
		Status:     domain.TransferStatus(q.Get("status")),
		LocationID: q.Get("location_id"),
		VehicleID:  q.Get("vehicle_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if f.Status != "" && f.Status.Event() == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", f.Status))
		return
	}
	transfers, total, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope[domain.Transfer]{
		Data: emptyIfNil(transfers), Total: total, Limit: limit, Offset: offset,
	})
}

func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.CreateTransferRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), actor, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TransferHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req domain.UpdateTransferStatusRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.UpdateStatus(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
