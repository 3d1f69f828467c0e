package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"mfbank/internal/validator"

	"github.com/google/uuid"
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if validator.ValidateName(req.Name) != nil || validator.ValidateEmail(req.Email) != nil {
		respondError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	id := uuid.NewString()
	if err := h.contacts.Create(r.Context(), id, req.Name, req.Email, req.Subject, req.Message); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record message")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) AdminListContact(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 50)
	messages, err := h.contacts.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load messages")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}
