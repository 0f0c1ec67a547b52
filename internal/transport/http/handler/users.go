package handler

import (
	"fmt"
	"net/http"

	"github.com/dealer-transfers-api/internal/application/user"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles user CRUD endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	f := domain.UserFilter{
		LocationID: q.Get("location_id"),
		Role:       q.Get("role"),
		Active:     parseBool(r, "active"),
		Limit:      limit,
		Offset:     offset,
	}
	if f.Role != "" && !domain.ValidRole(f.Role) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown role %q", f.Role))
		return
	}
	users, total, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope[domain.User]{
		Data: emptyIfNil(users), Total: total, Limit: limit, Offset: offset,
	})
}

// Me returns the caller's own user record.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), actor.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Get is open to admins and managers; anyone else may only read themselves.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	targetID := chi.URLParam(r, "id")
	if actor.UserID != targetID && !actor.CanApprove() {
		writeError(w, http.StatusForbidden, "cannot read another user")
		return
	}
	u, err := h.svc.Get(r.Context(), targetID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	targetID := chi.URLParam(r, "id")
	if actor.UserID == targetID {
		writeError(w, http.StatusConflict, "cannot deactivate yourself")
		return
	}
	if err := h.svc.Deactivate(r.Context(), targetID); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user deactivated"})
}
