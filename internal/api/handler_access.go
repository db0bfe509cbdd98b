package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// CheckAccess answers whether the caller holds ?role= (default viewer) on an
// entity and by which path. Every denial, including an unknown or archived
// entity, answers the same body; the resolver's reason is only logged.
func (h *Handler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	profileID, err := callerProfile(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ref, err := entityRefFromPath(chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	role := domain.RoleViewer
	if v := r.URL.Query().Get("role"); v != "" {
		if role, err = domain.ParseRole(v); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	d, err := h.access.Decide(r.Context(), profileID, ref, role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accessCheckToAPI(ref, role, d))
}

// ListMyAccess lists every entity the caller reaches through a grant, with the
// best role and path for each.
func (h *Handler) ListMyAccess(w http.ResponseWriter, r *http.Request) {
	profileID, err := callerProfile(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.access.ListAccessible(r.Context(), profileID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]AccessibleEntity, len(items))
	for i, it := range items {
		out[i] = accessibleToAPI(it)
	}
	writeJSON(w, http.StatusOK, Page[AccessibleEntity]{Data: out})
}
