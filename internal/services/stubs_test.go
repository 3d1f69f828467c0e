package services

import (
	"context"
	"time"

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

type stubAccountStore struct {
	getForUpdateFn         func(ctx context.Context, tx store.Getter, accountID string) (store.Account, error)
	updateBalanceFn        func(ctx context.Context, tx store.Execer, accountID string, balance int64) error
	getSystemAccountFn     func(ctx context.Context, currency string) (string, error)
	getByUserAndCurrencyFn func(ctx context.Context, userID, currency string) (store.Account, error)
	createFn               func(ctx context.Context, tx store.Execer, id string, userID *string, currency string, balance int64, isSystem bool) error
	adjustBalanceFn        func(ctx context.Context, tx store.Execer, accountID string, delta int64) (int64, error)
}

func (s stubAccountStore) GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (store.Account, error) {
	return s.getForUpdateFn(ctx, tx, accountID)
}

func (s stubAccountStore) UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, accountID, balance)
}

func (s stubAccountStore) GetSystemAccount(ctx context.Context, currency string) (string, error) {
	if s.getSystemAccountFn == nil {
		return "sys-ngn", nil
	}
	return s.getSystemAccountFn(ctx, currency)
}

func (s stubAccountStore) GetByUserAndCurrency(ctx context.Context, userID, currency string) (store.Account, error) {
	return s.getByUserAndCurrencyFn(ctx, userID, currency)
}

func (s stubAccountStore) Create(ctx context.Context, tx store.Execer, id string, userID *string, currency string, balance int64, isSystem bool) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID, currency, balance, isSystem)
}

func (s stubAccountStore) AdjustBalance(ctx context.Context, tx store.Execer, accountID string, delta int64) (int64, error) {
	if s.adjustBalanceFn == nil {
		return 0, nil
	}
	return s.adjustBalanceFn(ctx, tx, accountID, delta)
}

type stubLedgerStore struct {
	insertFn func(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error
}

func (s stubLedgerStore) InsertEntries(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, entries)
}

type stubTransactionStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	balances []websocket.BalanceUpdate
	loans    []websocket.LoanUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.balances = append(s.balances, update)
}

func (s *stubHub) BroadcastLoan(_ string, update websocket.LoanUpdate) {
	s.loans = append(s.loans, update)
}

type stubRecorder struct {
	transfersOK     int
	transfersFailed int
	loansApplied    int
	loansDecided    []string
	otpIssued       int
	otpVerified     int
	otpRejected     []string
	mailOutcomes    []string
}

func (s *stubRecorder) TransferCompleted()              { s.transfersOK++ }
func (s *stubRecorder) TransferFailed()                 { s.transfersFailed++ }
func (s *stubRecorder) LoanApplied()                    { s.loansApplied++ }
func (s *stubRecorder) LoanDecided(decision string)     { s.loansDecided = append(s.loansDecided, decision) }
func (s *stubRecorder) OTPIssued()                      { s.otpIssued++ }
func (s *stubRecorder) OTPVerified()                    { s.otpVerified++ }
func (s *stubRecorder) OTPRejected(reason string)       { s.otpRejected = append(s.otpRejected, reason) }
func (s *stubRecorder) MailDispatched(outcome string)   { s.mailOutcomes = append(s.mailOutcomes, outcome) }

type stubLoanStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.LoanApplicationInput) error
	getForUpdateFn func(ctx context.Context, tx store.Getter, loanID string) (store.LoanApplicationRow, error)
	getProductFn   func(ctx context.Context, category string) (store.LoanProductRow, error)
	decideFn       func(ctx context.Context, tx store.Execer, loanID, status, decidedBy string) (int64, error)
}

func (s stubLoanStore) Create(ctx context.Context, tx store.Execer, input store.LoanApplicationInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubLoanStore) GetForUpdate(ctx context.Context, tx store.Getter, loanID string) (store.LoanApplicationRow, error) {
	return s.getForUpdateFn(ctx, tx, loanID)
}

func (s stubLoanStore) GetProductByCategory(ctx context.Context, category string) (store.LoanProductRow, error) {
	if s.getProductFn == nil {
		return store.LoanProductRow{
			ID:            "lp-1",
			Category:      category,
			MinAmount:     100000,
			MaxAmount:     100000000,
			AnnualRate:    "21.00",
			MaxTermMonths: 24,
		}, nil
	}
	return s.getProductFn(ctx, category)
}

func (s stubLoanStore) Decide(ctx context.Context, tx store.Execer, loanID, status, decidedBy string) (int64, error) {
	if s.decideFn == nil {
		return 1, nil
	}
	return s.decideFn(ctx, tx, loanID, status, decidedBy)
}

type stubDisburser struct {
	creditFn func(ctx context.Context, tx *sqlx.Tx, req CreditRequest) (string, string, int64, error)
}

func (s stubDisburser) CreditInTx(ctx context.Context, tx *sqlx.Tx, req CreditRequest) (string, string, int64, error) {
	if s.creditFn == nil {
		return "tx-1", "user-1", 0, nil
	}
	return s.creditFn(ctx, tx, req)
}

type stubOTPStore struct {
	createFn            func(ctx context.Context, id, destination, code string, expiresAt time.Time) error
	findMatchFn         func(ctx context.Context, destination, code string) (store.OtpChallengeRow, error)
	consumeFn           func(ctx context.Context, tx store.Execer, challengeID string) (int64, error)
	lastIssuedAtFn      func(ctx context.Context, destination string) (time.Time, error)
	expireOutstandingFn func(ctx context.Context, destination string, now time.Time) error
}

func (s stubOTPStore) Create(ctx context.Context, id, destination, code string, expiresAt time.Time) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, id, destination, code, expiresAt)
}

func (s stubOTPStore) FindMatch(ctx context.Context, destination, code string) (store.OtpChallengeRow, error) {
	return s.findMatchFn(ctx, destination, code)
}

func (s stubOTPStore) Consume(ctx context.Context, tx store.Execer, challengeID string) (int64, error) {
	if s.consumeFn == nil {
		return 1, nil
	}
	return s.consumeFn(ctx, tx, challengeID)
}

func (s stubOTPStore) LastIssuedAt(ctx context.Context, destination string) (time.Time, error) {
	if s.lastIssuedAtFn == nil {
		return time.Time{}, nil
	}
	return s.lastIssuedAtFn(ctx, destination)
}

func (s stubOTPStore) ExpireOutstanding(ctx context.Context, destination string, now time.Time) error {
	if s.expireOutstandingFn == nil {
		return nil
	}
	return s.expireOutstandingFn(ctx, destination, now)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	existsByEmailFn func(ctx context.Context, email string) (bool, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if s.existsByEmailFn == nil {
		return false, nil
	}
	return s.existsByEmailFn(ctx, email)
}

type stubProfileStore struct {
	upsertFn func(ctx context.Context, tx store.Execer, input store.ProfileInput) error
}

func (s stubProfileStore) Upsert(ctx context.Context, tx store.Execer, input store.ProfileInput) error {
	if s.upsertFn == nil {
		return nil
	}
	return s.upsertFn(ctx, tx, input)
}

type stubAdminStore struct {
	hasAnyAdminFn func(ctx context.Context) (bool, error)
	createAdminFn func(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
}

func (s stubAdminStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return true, nil
	}
	return s.hasAnyAdminFn(ctx)
}

func (s stubAdminStore) CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error {
	if s.createAdminFn == nil {
		return nil
	}
	return s.createAdminFn(ctx, tx, userID, isSuper, createdBy)
}

type stubMailer struct {
	sendFn func(ctx context.Context, to string, params map[string]string) error
}

func (s stubMailer) Send(ctx context.Context, to string, params map[string]string) error {
	if s.sendFn == nil {
		return nil
	}
	return s.sendFn(ctx, to, params)
}

func stringPtr(value string) *string {
	return &value
}
