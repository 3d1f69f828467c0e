package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mfbank/internal/middleware"
	"mfbank/internal/money"
	"mfbank/internal/services"
	"mfbank/internal/store"

	"github.com/go-chi/chi/v5"
)

type loanApplyRequest struct {
	Amount      string `json:"amount"`
	ProductType string `json:"product_type"`
	Purpose     string `json:"purpose"`
}

func (h *Handler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req loanApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	loanID, err := h.loanService.Apply(r.Context(), services.LoanApplyRequest{
		UserID:      userID,
		AmountMinor: amount,
		ProductType: req.ProductType,
		Purpose:     req.Purpose,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, "invalid loan request")
			return
		}
		respondError(w, http.StatusInternalServerError, "loan application failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"loan_id": loanID,
		"status":  "pending",
	})
}

func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 50)
	loans, err := h.loans.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load loans")
		return
	}
	respondJSON(w, http.StatusOK, loanRowsToMaps(loans, false))
}

func (h *Handler) ListLoanProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.loans.ListProducts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load loan products")
		return
	}
	rows := make([]map[string]any, 0, len(products))
	for _, product := range products {
		row := map[string]any{
			"id":              product.ID,
			"name":            product.Name,
			"category":        product.Category,
			"min_amount":      money.FormatMinor(product.MinAmount),
			"max_amount":      money.FormatMinor(product.MaxAmount),
			"annual_rate":     product.AnnualRate,
			"max_term_months": product.MaxTermMonths,
		}
		total, monthly, err := services.EstimateRepayment(product.MaxAmount, product.AnnualRate, product.MaxTermMonths)
		if err == nil {
			row["sample_repayment"] = map[string]any{
				"principal": money.FormatMinor(product.MaxAmount),
				"total":     money.FormatMinor(total),
				"monthly":   money.FormatMinor(monthly),
				"months":    product.MaxTermMonths,
			}
		}
		rows = append(rows, row)
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) AdminListLoans(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 50)
	status := r.URL.Query().Get("status")
	loans, err := h.loans.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load loans")
		return
	}
	respondJSON(w, http.StatusOK, loanRowsToMaps(loans, true))
}

type loanDecisionRequest struct {
	Decision string `json:"decision"`
}

func (h *Handler) DecideLoan(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loanID := chi.URLParam(r, "id")
	var req loanDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	err := h.loanService.Decide(r.Context(), services.LoanDecisionRequest{
		LoanID:   loanID,
		Decision: req.Decision,
		ActorID:  actorID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDecision):
			respondError(w, http.StatusBadRequest, "invalid decision")
		case errors.Is(err, services.ErrLoanNotFound):
			respondError(w, http.StatusNotFound, "loan not found")
		case errors.Is(err, services.ErrAlreadyDecided):
			respondError(w, http.StatusConflict, "loan already decided")
		default:
			respondError(w, http.StatusInternalServerError, "decision failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"loan_id": loanID,
		"status":  req.Decision,
	})
}

func loanRowsToMaps(loans []store.LoanApplicationRow, includeUser bool) []map[string]any {
	rows := make([]map[string]any, 0, len(loans))
	for _, loan := range loans {
		row := map[string]any{
			"id":           loan.ID,
			"amount":       money.FormatMinor(loan.Amount),
			"product_type": loan.ProductType,
			"purpose":      loan.Purpose,
			"status":       loan.Status,
			"decided_at":   loan.DecidedAt,
			"created_at":   loan.CreatedAt,
		}
		if includeUser {
			row["user_id"] = loan.UserID
			row["username"] = derefStringPtr(loan.Username)
			row["decided_by"] = derefStringPtr(loan.DecidedBy)
		}
		rows = append(rows, row)
	}
	return rows
}
