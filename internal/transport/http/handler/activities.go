package handler

import (
	"net/http"
	"strconv"

	"github.com/dealer-transfers-api/internal/application/notification"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ActivityHandler serves the notification activity log and the delivery-report webhook.
type ActivityHandler struct {
	svc notification.ActivityService
}

func NewActivityHandler(svc notification.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	f := domain.ActivityFilter{
		RuleID:     q.Get("rule_id"),
		TransferID: q.Get("transfer_id"),
		VehicleID:  q.Get("vehicle_id"),
		Status:     domain.ActivityStatus(q.Get("status")),
		Limit:      limit,
		Cursor:     q.Get("cursor"),
	}
	items, next, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CursorEnvelope[domain.NotificationActivity]{Data: emptyIfNil(items), NextCursor: next})
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delivery accepts a provider delivery report. Stale or out-of-order reports answer 409.
func (h *ActivityHandler) Delivery(w http.ResponseWriter, r *http.Request) {
	var upd domain.DeliveryStatusUpdate
	if !decode(w, r, &upd) {
		return
	}
	a, err := h.svc.AdvanceStatus(r.Context(), upd)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
