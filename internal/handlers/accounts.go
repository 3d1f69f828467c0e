package handlers

import (
	"database/sql"
	"net/http"

	"mfbank/internal/middleware"
	"mfbank/internal/money"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summaries, err := h.accounts.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	rows := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, map[string]any{
			"id":         summary.ID,
			"currency":   summary.Currency,
			"balance":    money.FormatMinor(summary.StoredBalance),
			"created_at": summary.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	if account.UserID == nil || *account.UserID != userID {
		respondError(w, http.StatusForbidden, "account does not belong to user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_id": account.ID,
		"currency":   account.Currency,
		"balance":    money.FormatMinor(account.Balance),
	})
}

// SelfCheck compares each of the caller's stored balances against the sum of
// its ledger entries and reports any drift.
func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summaries, err := h.accounts.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "self check failed")
		return
	}
	consistent := true
	rows := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		if summary.Difference != 0 {
			consistent = false
		}
		rows = append(rows, map[string]any{
			"account_id":         summary.ID,
			"currency":           summary.Currency,
			"stored_balance":     money.FormatMinor(summary.StoredBalance),
			"calculated_balance": money.FormatMinor(summary.CalculatedBalance),
			"difference":         money.FormatMinor(summary.Difference),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"consistent": consistent,
		"accounts":   rows,
	})
}
