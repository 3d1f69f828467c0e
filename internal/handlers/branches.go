package handlers

import "net/http"

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.branches.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load branches")
		return
	}
	respondJSON(w, http.StatusOK, branches)
}
