package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mfbank/internal/middleware"
	"mfbank/internal/money"
	"mfbank/internal/services"

	"github.com/jmoiron/sqlx"
)

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 50)
	users, err := h.users.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 50)
	rows, err := h.transactions.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, formatTransactionRows(rows))
}

type adminCreditRequest struct {
	AccountID       string `json:"account_id"`
	Amount          string `json:"amount"`
	Description     string `json:"description"`
	ClientRequestID string `json:"client_request_id"`
}

func (h *Handler) AdminCredit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req adminCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	var clientRequestID *string
	if req.ClientRequestID != "" {
		clientRequestID = &req.ClientRequestID
	}
	transactionID, err := h.ledger.Credit(r.Context(), services.CreditRequest{
		AccountID:       req.AccountID,
		AmountMinor:     amount,
		Description:     req.Description,
		Kind:            "credit",
		ActorID:         actorID,
		ClientRequestID: clientRequestID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSystemAccount):
			respondError(w, http.StatusForbidden, "operation not allowed on system account")
		case isUniqueViolation(err):
			respondError(w, http.StatusConflict, "duplicate request")
		default:
			respondError(w, http.StatusInternalServerError, "credit failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"transaction_id": transactionID,
		"status":         "completed",
	})
}

func (h *Handler) AdminListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAllWithUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	rows := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		rows = append(rows, map[string]any{
			"id":         account.ID,
			"currency":   account.Currency,
			"balance":    money.FormatMinor(account.Balance),
			"is_system":  account.IsSystem,
			"username":   derefStringPtr(account.Username),
			"email":      derefStringPtr(account.Email),
			"created_at": account.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 50)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

type reconcileRow struct {
	AccountID         string `db:"id"`
	Currency          string `db:"currency"`
	StoredBalance     int64  `db:"stored_balance"`
	CalculatedBalance int64  `db:"calculated_balance"`
	Difference        int64  `db:"difference"`
	IsSystem          bool   `db:"is_system"`
}

// Reconcile sweeps every account, comparing stored balances against ledger
// sums, and reports drift plus the global double-entry total (which must be
// zero).
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT a.id, a.currency, a.is_system,
		       a.balance AS stored_balance,
		       COALESCE(SUM(le.amount), 0) AS calculated_balance,
		       a.balance - COALESCE(SUM(le.amount), 0) AS difference
		FROM accounts a
		LEFT JOIN ledger_entries le ON le.account_id = a.id
		GROUP BY a.id, a.currency, a.is_system, a.balance
		ORDER BY a.id
	`
	var rows []reconcileRow
	if err := h.reconcileDB.SelectContext(r.Context(), &rows, query); err != nil {
		respondError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}
	consistent := true
	var ledgerTotal int64
	results := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if row.Difference != 0 {
			consistent = false
		}
		ledgerTotal += row.CalculatedBalance
		results = append(results, map[string]any{
			"account_id":         row.AccountID,
			"currency":           row.Currency,
			"is_system":          row.IsSystem,
			"stored_balance":     money.FormatMinor(row.StoredBalance),
			"calculated_balance": money.FormatMinor(row.CalculatedBalance),
			"difference":         money.FormatMinor(row.Difference),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"consistent":   consistent && ledgerTotal == 0,
		"ledger_total": money.FormatMinor(ledgerTotal),
		"accounts":     results,
	})
}

type promoteRequest struct {
	UserID  string `json:"user_id"`
	IsSuper bool   `json:"is_super"`
}

func (h *Handler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	_, isSuper, err := h.admin.IsAdmin(r.Context(), actorID)
	if err != nil || !isSuper {
		respondError(w, http.StatusForbidden, "super admin required")
		return
	}
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.admin.CreateAdmin(r.Context(), tx, req.UserID, req.IsSuper, &actorID); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, actorID, "admin_promote", "user", req.UserID, "{}")
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "promotion failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"user_id": req.UserID,
		"status":  "admin",
	})
}

type grantRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

var grantableRoles = map[string]bool{
	"CanViewUsers":        true,
	"CanViewTransactions": true,
	"CanManageLoans":      true,
	"CanManageLedger":     true,
}

func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	_, isSuper, err := h.admin.IsAdmin(r.Context(), actorID)
	if err != nil || !isSuper {
		respondError(w, http.StatusForbidden, "super admin required")
		return
	}
	var req grantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !grantableRoles[req.Role] {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}
	isAdmin, _, err := h.admin.IsAdmin(r.Context(), req.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "grant failed")
		return
	}
	if !isAdmin {
		respondError(w, http.StatusNotFound, "user is not an admin")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.admin.GrantRole(r.Context(), tx, req.UserID, req.Role); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"role": req.Role})
		return h.audit.Log(r.Context(), tx, actorID, "admin_grant_role", "user", req.UserID, string(data))
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "grant failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"user_id": req.UserID,
		"role":    req.Role,
	})
}
