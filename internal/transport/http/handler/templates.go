package handler

import (
	"fmt"
	"net/http"

	"github.com/dealer-transfers-api/internal/application/notification"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

var templateCategories = map[domain.TemplateCategory]bool{
	domain.CategoryTransfer: true,
	domain.CategorySystem:   true,
	domain.CategoryVehicle:  true,
	domain.CategoryGeneral:  true,
}

// TemplateHandler handles notification template administration.
type TemplateHandler struct {
	svc notification.TemplateService
}

func NewTemplateHandler(svc notification.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	category := domain.TemplateCategory(r.URL.Query().Get("category"))
	if category != "" && !templateCategories[category] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", category))
		return
	}
	items, err := h.svc.List(r.Context(), category)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEnvelope[domain.NotificationTemplate]{Data: emptyIfNil(items)})
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.TemplateInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.TemplateInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "template deleted"})
}

// Preview renders the template against the JSON object in the request body.
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeData(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Preview(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
