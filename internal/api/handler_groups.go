package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// CreateGroupBody is the request body for POST /teams/{teamID}/groups.
type CreateGroupBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AddMemberBody is the request body for POST /groups/{groupID}/members.
type AddMemberBody struct {
	UserID string `json:"user_id"`
}

// CreateGroup creates a group in a team.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var body CreateGroupBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.groups.Create(r.Context(), domain.CreateGroupRequest{
		TeamID:      chi.URLParam(r, "teamID"),
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupToAPI(*g))
}

// ListTeamGroups lists a team's groups, archived ones included.
func (h *Handler) ListTeamGroups(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	gs, total, err := h.groups.ListForTeam(r.Context(), chi.URLParam(r, "teamID"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(gs, groupToAPI, page, total))
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.groups.Get(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToAPI(*g))
}

// ArchiveGroup soft-deletes a group. Archiving twice is not an error.
func (h *Handler) ArchiveGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Archive(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListGroupMembers(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ms, total, err := h.groups.ListMembers(r.Context(), chi.URLParam(r, "groupID"), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(ms, groupMemberToAPI, page, total))
}

func (h *Handler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	var body AddMemberBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.groups.AddMember(r.Context(), domain.AddGroupMemberRequest{
		GroupID: chi.URLParam(r, "groupID"),
		UserID:  body.UserID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupMemberToAPI(*m))
}

// RemoveGroupMember deletes a membership row.
func (h *Handler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.RemoveMember(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "userID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
