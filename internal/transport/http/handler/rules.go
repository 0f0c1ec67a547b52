package handler

import (
	"net/http"

	"github.com/dealer-transfers-api/internal/application/notification"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// RuleHandler handles notification rule administration.
type RuleHandler struct {
	svc notification.RuleService
}

func NewRuleHandler(svc notification.RuleService) *RuleHandler { return &RuleHandler{svc: svc} }

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.List(r.Context(), domain.NotificationEvent(r.URL.Query().Get("event")))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEnvelope[domain.NotificationRule]{Data: emptyIfNil(rules)})
}

func (h *RuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	rule, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.RuleInput
	if !decode(w, r, &in) {
		return
	}
	rule, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.RuleInput
	if !decode(w, r, &in) {
		return
	}
	rule, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "rule deleted"})
}

func (h *RuleHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decode(w, r, &req) {
		return
	}
	rule, err := h.svc.SetActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// Test dry-runs the rule against the JSON object in the request body.
func (h *RuleHandler) Test(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeData(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Test(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
