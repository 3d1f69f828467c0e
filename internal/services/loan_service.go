package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"mfbank/internal/db"
	"mfbank/internal/models"
	"mfbank/internal/money"
	"mfbank/internal/store"
	"mfbank/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest  = errors.New("invalid loan request")
	ErrLoanNotFound    = errors.New("loan not found")
	ErrAlreadyDecided  = errors.New("loan already decided")
	ErrInvalidDecision = errors.New("invalid decision")
)

type LoanStore interface {
	Create(ctx context.Context, tx store.Execer, input store.LoanApplicationInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, loanID string) (store.LoanApplicationRow, error)
	GetProductByCategory(ctx context.Context, category string) (store.LoanProductRow, error)
	Decide(ctx context.Context, tx store.Execer, loanID, status, decidedBy string) (int64, error)
}

type LoanAccountStore interface {
	GetByUserAndCurrency(ctx context.Context, userID, currency string) (store.Account, error)
}

type Disburser interface {
	CreditInTx(ctx context.Context, tx *sqlx.Tx, req CreditRequest) (string, string, int64, error)
}

type LoanHub interface {
	BroadcastLoan(userID string, update websocket.LoanUpdate)
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

type LoanRecorder interface {
	LoanApplied()
	LoanDecided(decision string)
}

// LoanService owns the loan application lifecycle:
// pending -> approved | rejected, terminal, exactly one decision.
type LoanService struct {
	txRunner         db.TxRunner
	loanStore        LoanStore
	accountStore     LoanAccountStore
	disburser        Disburser
	auditStore       AuditStore
	hub              LoanHub
	recorder         LoanRecorder
	currency         string
	creditOnApproval bool
}

func NewLoanService(txRunner db.TxRunner, loanStore LoanStore, accountStore LoanAccountStore, disburser Disburser, auditStore AuditStore, hub LoanHub, recorder LoanRecorder, currency string, creditOnApproval bool) *LoanService {
	return &LoanService{
		txRunner:         txRunner,
		loanStore:        loanStore,
		accountStore:     accountStore,
		disburser:        disburser,
		auditStore:       auditStore,
		hub:              hub,
		recorder:         recorder,
		currency:         currency,
		creditOnApproval: creditOnApproval,
	}
}

type LoanApplyRequest struct {
	UserID      string
	AmountMinor int64
	ProductType string
	Purpose     string
}

// Apply appends a pending application. The balance is untouched until a
// decision lands.
func (s *LoanService) Apply(ctx context.Context, req LoanApplyRequest) (string, error) {
	if req.AmountMinor <= 0 {
		return "", ErrInvalidRequest
	}
	if strings.TrimSpace(req.ProductType) == "" || strings.TrimSpace(req.Purpose) == "" {
		return "", ErrInvalidRequest
	}
	product, err := s.loanStore.GetProductByCategory(ctx, req.ProductType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidRequest
		}
		return "", err
	}
	if req.AmountMinor < product.MinAmount || req.AmountMinor > product.MaxAmount {
		return "", ErrInvalidRequest
	}
	loanID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.loanStore.Create(ctx, tx, store.LoanApplicationInput{
			ID:          loanID,
			UserID:      req.UserID,
			Amount:      req.AmountMinor,
			ProductType: req.ProductType,
			Purpose:     req.Purpose,
			Status:      models.LoanStatusPending,
		}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"product_type": req.ProductType,
		})
		return s.auditStore.Log(ctx, tx, req.UserID, "loan_apply", "loan_application", loanID, string(data))
	})
	if err != nil {
		return "", err
	}
	s.recorder.LoanApplied()
	return loanID, nil
}

type LoanDecisionRequest struct {
	LoanID   string
	Decision string
	ActorID  string
}

// Decide transitions a pending application into a terminal state exactly
// once. When the credit-on-approval policy is enabled, approval also
// disburses the principal inside the same transaction.
func (s *LoanService) Decide(ctx context.Context, req LoanDecisionRequest) error {
	if req.Decision != models.LoanStatusApproved && req.Decision != models.LoanStatusRejected {
		return ErrInvalidDecision
	}
	var ownerID string
	var disbursedAccountID string
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := s.loanStore.GetForUpdate(ctx, tx, req.LoanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.Status != models.LoanStatusPending {
			return ErrAlreadyDecided
		}
		affected, err := s.loanStore.Decide(ctx, tx, req.LoanID, req.Decision, req.ActorID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrAlreadyDecided
		}
		ownerID = loan.UserID
		if req.Decision == models.LoanStatusApproved && s.creditOnApproval {
			account, err := s.accountStore.GetByUserAndCurrency(ctx, loan.UserID, s.currency)
			if err != nil {
				return err
			}
			_, _, newBalance, err := s.disburser.CreditInTx(ctx, tx, CreditRequest{
				AccountID:   account.ID,
				AmountMinor: loan.Amount,
				Description: "Loan disbursement - " + loan.ProductType,
				Kind:        "disbursement",
				ActorID:     req.ActorID,
			})
			if err != nil {
				return err
			}
			disbursedAccountID = account.ID
			balanceAfter = newBalance
		}
		data, _ := json.Marshal(map[string]string{
			"decision": req.Decision,
		})
		return s.auditStore.Log(ctx, tx, req.ActorID, "loan_decision", "loan_application", req.LoanID, string(data))
	})
	if err != nil {
		return err
	}
	s.recorder.LoanDecided(req.Decision)
	s.hub.BroadcastLoan(ownerID, websocket.LoanUpdate{
		LoanID: req.LoanID,
		Status: req.Decision,
	})
	if disbursedAccountID != "" {
		s.hub.BroadcastBalance(ownerID, websocket.BalanceUpdate{
			AccountID: disbursedAccountID,
			Balance:   money.FormatMinor(balanceAfter),
			Currency:  s.currency,
		})
	}
	return nil
}

// EstimateRepayment computes a simple-interest repayment schedule:
// total = principal * (1 + annualRate/100 * months/12), split evenly.
func EstimateRepayment(amountMinor int64, annualRate string, termMonths int) (totalMinor, monthlyMinor int64, err error) {
	if amountMinor <= 0 || termMonths <= 0 {
		return 0, 0, ErrInvalidRequest
	}
	rate, err := decimal.NewFromString(annualRate)
	if err != nil || rate.IsNegative() {
		return 0, 0, ErrInvalidRequest
	}
	principal := decimal.NewFromInt(amountMinor)
	interest := principal.
		Mul(rate).
		Mul(decimal.NewFromInt(int64(termMonths))).
		Div(decimal.NewFromInt(1200)).
		RoundBank(0)
	total := principal.Add(interest)
	monthly := total.Div(decimal.NewFromInt(int64(termMonths))).RoundBank(0)
	return total.IntPart(), monthly.IntPart(), nil
}
