package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"mfbank/internal/middleware"
	"mfbank/internal/services"

	"github.com/lib/pq"
)

type transferRequest struct {
	AccountID       string `json:"account_id"`
	Amount          string `json:"amount"`
	Destination     string `json:"destination"`
	Note            string `json:"note"`
	ClientRequestID string `json:"client_request_id"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if strings.TrimSpace(req.Destination) == "" {
		respondError(w, http.StatusBadRequest, "destination is required")
		return
	}
	var clientRequestID *string
	if req.ClientRequestID != "" {
		clientRequestID = &req.ClientRequestID
	}
	transactionID, err := h.ledger.Transfer(r.Context(), services.TransferRequest{
		UserID:          userID,
		AccountID:       req.AccountID,
		AmountMinor:     amount,
		Destination:     req.Destination,
		Note:            req.Note,
		ClientRequestID: clientRequestID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "invalid amount")
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusUnprocessableEntity, "insufficient funds")
		case errors.Is(err, services.ErrUnauthorizedAccount):
			respondError(w, http.StatusForbidden, "account does not belong to user")
		case errors.Is(err, services.ErrSystemAccount):
			respondError(w, http.StatusForbidden, "operation not allowed on system account")
		case isUniqueViolation(err):
			respondError(w, http.StatusConflict, "duplicate request")
		default:
			respondError(w, http.StatusInternalServerError, "transfer failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"transaction_id": transactionID,
		"status":         "completed",
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 50)
	txType := r.URL.Query().Get("type")
	rows, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, formatTransactionRows(rows))
}

// formatTransactionRows rewrites minor-unit amounts into the decimal string
// the rest of the API speaks.
func formatTransactionRows(rows []map[string]any) []map[string]any {
	for _, row := range rows {
		row["amount"] = valueToMoney(row["amount"])
	}
	return rows
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
