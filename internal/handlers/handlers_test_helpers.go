package handlers

import (
	"context"
	"net/http"
	"time"

	"mfbank/internal/config"
	"mfbank/internal/services"
	"mfbank/internal/store"
	"mfbank/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubReconcileDB struct {
	selectFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s stubReconcileDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.selectFn == nil {
		return nil
	}
	return s.selectFn(ctx, dest, query, args...)
}

type stubUserStore struct {
	getByEmailFn func(ctx context.Context, email string) (map[string]any, error)
	getByIDFn    func(ctx context.Context, userID string) (map[string]any, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return map[string]any{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return map[string]any{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubAccountStore struct {
	getByUserFn        func(ctx context.Context, userID string) ([]store.AccountBalanceSummary, error)
	getByIDFn          func(ctx context.Context, accountID string) (store.Account, error)
	listAllWithUsersFn func(ctx context.Context) ([]store.AccountWithUser, error)
}

func (s stubAccountStore) GetByUser(ctx context.Context, userID string) ([]store.AccountBalanceSummary, error) {
	if s.getByUserFn == nil {
		return nil, nil
	}
	return s.getByUserFn(ctx, userID)
}

func (s stubAccountStore) GetByID(ctx context.Context, accountID string) (store.Account, error) {
	if s.getByIDFn == nil {
		return store.Account{}, nil
	}
	return s.getByIDFn(ctx, accountID)
}

func (s stubAccountStore) ListAllWithUsers(ctx context.Context) ([]store.AccountWithUser, error) {
	if s.listAllWithUsersFn == nil {
		return nil, nil
	}
	return s.listAllWithUsersFn(ctx)
}

type stubTransactionStore struct {
	listByUserFn func(ctx context.Context, userID, txType string, limit, offset int) ([]map[string]any, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]map[string]any, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

func (s stubTransactionStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubLoanStore struct {
	listByUserFn   func(ctx context.Context, userID string, limit, offset int) ([]store.LoanApplicationRow, error)
	listByStatusFn func(ctx context.Context, status string, limit, offset int) ([]store.LoanApplicationRow, error)
	listProductsFn func(ctx context.Context) ([]store.LoanProductRow, error)
}

func (s stubLoanStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.LoanApplicationRow, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubLoanStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]store.LoanApplicationRow, error) {
	if s.listByStatusFn == nil {
		return nil, nil
	}
	return s.listByStatusFn(ctx, status, limit, offset)
}

func (s stubLoanStore) ListProducts(ctx context.Context) ([]store.LoanProductRow, error) {
	if s.listProductsFn == nil {
		return nil, nil
	}
	return s.listProductsFn(ctx)
}

type stubProfileStore struct {
	getByUserIDFn func(ctx context.Context, userID string) (map[string]any, error)
}

func (s stubProfileStore) GetByUserID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByUserIDFn == nil {
		return map[string]any{}, nil
	}
	return s.getByUserIDFn(ctx, userID)
}

type stubBranchStore struct {
	listAllFn func(ctx context.Context) ([]map[string]any, error)
}

func (s stubBranchStore) ListAll(ctx context.Context) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

type stubContactStore struct {
	createFn  func(ctx context.Context, id, name, email, subject, body string) error
	listAllFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubContactStore) Create(ctx context.Context, id, name, email, subject, body string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, id, name, email, subject, body)
}

func (s stubContactStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubAdminStore struct {
	isAdminFn     func(ctx context.Context, userID string) (bool, bool, error)
	hasRoleFn     func(ctx context.Context, userID, role string) (bool, error)
	createAdminFn func(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	grantRoleFn   func(ctx context.Context, tx store.Execer, adminUserID, role string) error
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, bool, error) {
	if s.isAdminFn == nil {
		return false, false, nil
	}
	return s.isAdminFn(ctx, userID)
}

func (s stubAdminStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if s.hasRoleFn == nil {
		return false, nil
	}
	return s.hasRoleFn(ctx, userID, role)
}

func (s stubAdminStore) CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error {
	if s.createAdminFn == nil {
		return nil
	}
	return s.createAdminFn(ctx, tx, userID, isSuper, createdBy)
}

func (s stubAdminStore) GrantRole(ctx context.Context, tx store.Execer, adminUserID, role string) error {
	if s.grantRoleFn == nil {
		return nil
	}
	return s.grantRoleFn(ctx, tx, adminUserID, role)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubLedgerService struct {
	transferFn func(ctx context.Context, req services.TransferRequest) (string, error)
	creditFn   func(ctx context.Context, req services.CreditRequest) (string, error)
}

func (s stubLedgerService) Transfer(ctx context.Context, req services.TransferRequest) (string, error) {
	if s.transferFn == nil {
		return "tx-1", nil
	}
	return s.transferFn(ctx, req)
}

func (s stubLedgerService) Credit(ctx context.Context, req services.CreditRequest) (string, error) {
	if s.creditFn == nil {
		return "tx-1", nil
	}
	return s.creditFn(ctx, req)
}

type stubLoanService struct {
	applyFn  func(ctx context.Context, req services.LoanApplyRequest) (string, error)
	decideFn func(ctx context.Context, req services.LoanDecisionRequest) error
}

func (s stubLoanService) Apply(ctx context.Context, req services.LoanApplyRequest) (string, error) {
	if s.applyFn == nil {
		return "loan-1", nil
	}
	return s.applyFn(ctx, req)
}

func (s stubLoanService) Decide(ctx context.Context, req services.LoanDecisionRequest) error {
	if s.decideFn == nil {
		return nil
	}
	return s.decideFn(ctx, req)
}

type stubSignupService struct {
	requestFn func(ctx context.Context, req services.RequestCodeRequest) (services.CodeIssued, error)
	resendFn  func(ctx context.Context, email string) (services.CodeIssued, error)
	verifyFn  func(ctx context.Context, req services.VerifyRequest) (services.VerifyResult, error)
}

func (s stubSignupService) RequestCode(ctx context.Context, req services.RequestCodeRequest) (services.CodeIssued, error) {
	if s.requestFn == nil {
		return services.CodeIssued{}, nil
	}
	return s.requestFn(ctx, req)
}

func (s stubSignupService) Resend(ctx context.Context, email string) (services.CodeIssued, error) {
	if s.resendFn == nil {
		return services.CodeIssued{}, nil
	}
	return s.resendFn(ctx, email)
}

func (s stubSignupService) Verify(ctx context.Context, req services.VerifyRequest) (services.VerifyResult, error) {
	if s.verifyFn == nil {
		return services.VerifyResult{}, nil
	}
	return s.verifyFn(ctx, req)
}

type handlerStubs struct {
	reconcileDB  stubReconcileDB
	txRunner     fakeTxRunner
	users        stubUserStore
	accounts     stubAccountStore
	transactions stubTransactionStore
	loans        stubLoanStore
	profiles     stubProfileStore
	branches     stubBranchStore
	contacts     stubContactStore
	admin        stubAdminStore
	audit        stubAuditStore
	ledger       stubLedgerService
	loanService  stubLoanService
	signup       stubSignupService
}

func newTestHandler(stubs handlerStubs) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
		Currency:       "NGN",
	}
	metricsHandler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	return New(stubs.reconcileDB, stubs.txRunner, cfg, stubs.users, stubs.accounts, stubs.transactions, stubs.loans, stubs.profiles, stubs.branches, stubs.contacts, stubs.admin, stubs.audit, stubs.ledger, stubs.loanService, stubs.signup, websocket.NewHub(), metricsHandler)
}
