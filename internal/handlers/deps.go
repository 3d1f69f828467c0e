package handlers

import (
	"context"

	"mfbank/internal/services"
	"mfbank/internal/store"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type AccountStore interface {
	GetByUser(ctx context.Context, userID string) ([]store.AccountBalanceSummary, error)
	GetByID(ctx context.Context, accountID string) (store.Account, error)
	ListAllWithUsers(ctx context.Context) ([]store.AccountWithUser, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]map[string]any, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type LoanStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.LoanApplicationRow, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]store.LoanApplicationRow, error)
	ListProducts(ctx context.Context) ([]store.LoanProductRow, error)
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (map[string]any, error)
}

type BranchStore interface {
	ListAll(ctx context.Context) ([]map[string]any, error)
}

type ContactStore interface {
	Create(ctx context.Context, id, name, email, subject, body string) error
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, bool, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	GrantRole(ctx context.Context, tx store.Execer, adminUserID, role string) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type LedgerService interface {
	Transfer(ctx context.Context, req services.TransferRequest) (string, error)
	Credit(ctx context.Context, req services.CreditRequest) (string, error)
}

type LoanService interface {
	Apply(ctx context.Context, req services.LoanApplyRequest) (string, error)
	Decide(ctx context.Context, req services.LoanDecisionRequest) error
}

type SignupService interface {
	RequestCode(ctx context.Context, req services.RequestCodeRequest) (services.CodeIssued, error)
	Resend(ctx context.Context, email string) (services.CodeIssued, error)
	Verify(ctx context.Context, req services.VerifyRequest) (services.VerifyResult, error)
}
