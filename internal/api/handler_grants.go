package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// CreateGrantBody is the request body for POST /grants.
type CreateGrantBody struct {
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	Role        string `json:"permission_role"`
}

// ChangeRoleBody is the request body for PATCH /grants/{grantID}.
type ChangeRoleBody struct {
	Role string `json:"role"`
}

// CreateGrant shares an entity with a user or group.
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	var body CreateGrantBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.grants.Grant(r.Context(), domain.CreateGrantRequest{
		Entity:  domain.EntityRef{Type: domain.EntityType(body.EntityType), ID: body.EntityID},
		Subject: domain.Subject{Type: domain.SubjectType(body.SubjectType), ID: body.SubjectID},
		Role:    domain.Role(body.Role),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, grantToAPI(*g))
}

// GetGrant returns one grant, active or revoked.
func (h *Handler) GetGrant(w http.ResponseWriter, r *http.Request) {
	g, err := h.grants.Get(r.Context(), chi.URLParam(r, "grantID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grantToAPI(*g))
}

// ChangeGrantRole revokes a grant and re-issues it with a new role.
func (h *Handler) ChangeGrantRole(w http.ResponseWriter, r *http.Request) {
	var body ChangeRoleBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.grants.ChangeRole(r.Context(), domain.ChangeRoleRequest{
		GrantID: chi.URLParam(r, "grantID"),
		Role:    domain.Role(body.Role),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grantToAPI(*g))
}

// RevokeGrant soft-revokes a grant and returns its final state.
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	g, err := h.grants.Revoke(r.Context(), chi.URLParam(r, "grantID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grantToAPI(*g))
}

// ListEntityGrants lists the active grants on an entity.
func (h *Handler) ListEntityGrants(w http.ResponseWriter, r *http.Request) {
	ref, err := entityRefFromPath(chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	gs, total, err := h.grants.ListForEntity(r.Context(), ref, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(gs, grantToAPI, page, total))
}

// ListSubjectGrants lists the active grants held by a user or group.
func (h *Handler) ListSubjectGrants(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectFromPath(chi.URLParam(r, "subjectType"), chi.URLParam(r, "subjectID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	gs, total, err := h.grants.ListForSubject(r.Context(), subject, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(gs, grantToAPI, page, total))
}
