package services

import (
	"context"
	"encoding/json"
	"errors"

	"mfbank/internal/db"
	"mfbank/internal/money"
	"mfbank/internal/store"
	"mfbank/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnauthorizedAccount = errors.New("account does not belong to user")
	ErrSystemAccount       = errors.New("operation not allowed on system account")
)

type AccountStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (store.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error
	GetSystemAccount(ctx context.Context, currency string) (string, error)
}

type LedgerStore interface {
	InsertEntries(ctx context.Context, tx store.Execer, entries []store.LedgerEntryInput) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

type TransferRecorder interface {
	TransferCompleted()
	TransferFailed()
}

// LedgerService owns every balance mutation. Balance and history move
// together inside one serializable transaction, so no partial apply is ever
// observable.
type LedgerService struct {
	txRunner     db.TxRunner
	accountStore AccountStore
	ledgerStore  LedgerStore
	txStore      TransactionStore
	auditStore   AuditStore
	hub          BalanceHub
	recorder     TransferRecorder
	currency     string
}

func NewLedgerService(txRunner db.TxRunner, accountStore AccountStore, ledgerStore LedgerStore, txStore TransactionStore, auditStore AuditStore, hub BalanceHub, recorder TransferRecorder, currency string) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		accountStore: accountStore,
		ledgerStore:  ledgerStore,
		txStore:      txStore,
		auditStore:   auditStore,
		hub:          hub,
		recorder:     recorder,
		currency:     currency,
	}
}

type TransferRequest struct {
	UserID          string
	AccountID       string
	AmountMinor     int64
	Destination     string
	Note            string
	ClientRequestID *string
}

// Transfer debits the customer account and credits the settlement account,
// recording a completed transaction with two balanced ledger entries. The
// customer-side entry carries the destination label (plus the note when
// present) as its description.
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.AmountMinor <= 0 {
		s.recorder.TransferFailed()
		return "", ErrInvalidAmount
	}
	var transactionID string
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		settlementID, err := s.accountStore.GetSystemAccount(ctx, s.currency)
		if err != nil {
			return err
		}
		account, settlement, err := lockTwoAccounts(ctx, tx, s.accountStore, req.AccountID, settlementID)
		if err != nil {
			return err
		}
		if account.IsSystem {
			return ErrSystemAccount
		}
		if account.UserID == nil || *account.UserID != req.UserID {
			return ErrUnauthorizedAccount
		}
		if account.Balance < req.AmountMinor {
			return ErrInsufficientFunds
		}
		newBalance := account.Balance - req.AmountMinor
		balanceAfter = newBalance
		if err := s.accountStore.UpdateBalance(ctx, tx, req.AccountID, newBalance); err != nil {
			return err
		}
		if err := s.accountStore.UpdateBalance(ctx, tx, settlementID, settlement.Balance+req.AmountMinor); err != nil {
			return err
		}

		transactionID = uuid.NewString()
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:              transactionID,
			UserID:          req.UserID,
			Type:            "transfer",
			Status:          "completed",
			Amount:          req.AmountMinor,
			Currency:        s.currency,
			FromAccountID:   &req.AccountID,
			ToAccountID:     &settlementID,
			Metadata:        "{}",
			ClientRequestID: req.ClientRequestID,
		}); err != nil {
			return err
		}
		description := composeDescription(req.Destination, req.Note)
		entries := []store.LedgerEntryInput{
			{
				ID:            uuid.NewString(),
				TransactionID: transactionID,
				AccountID:     req.AccountID,
				Amount:        -req.AmountMinor,
				Currency:      s.currency,
				Description:   description,
			},
			{
				ID:            uuid.NewString(),
				TransactionID: transactionID,
				AccountID:     settlementID,
				Amount:        req.AmountMinor,
				Currency:      s.currency,
				Description:   "Outbound settlement",
			},
		}
		if err := ensureBalanced(entries); err != nil {
			return err
		}
		if err := s.ledgerStore.InsertEntries(ctx, tx, entries); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"transaction_id": transactionID,
			"destination":    req.Destination,
		})
		return s.auditStore.Log(ctx, tx, req.UserID, "transfer", "transaction", transactionID, string(data))
	})
	if err != nil {
		s.recorder.TransferFailed()
		return "", err
	}
	s.recorder.TransferCompleted()
	s.hub.BroadcastBalance(req.UserID, websocket.BalanceUpdate{
		AccountID: req.AccountID,
		Balance:   money.FormatMinor(balanceAfter),
		Currency:  s.currency,
	})
	return transactionID, nil
}

type CreditRequest struct {
	AccountID       string
	AmountMinor     int64
	Description     string
	Kind            string
	ActorID         string
	ClientRequestID *string
}

// Credit moves funds from the settlement account into a customer account.
// External credit events and loan disbursements both come through here.
func (s *LedgerService) Credit(ctx context.Context, req CreditRequest) (string, error) {
	var transactionID string
	var ownerID string
	var balanceAfter int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		transactionID, ownerID, balanceAfter, err = s.CreditInTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	if ownerID != "" {
		s.hub.BroadcastBalance(ownerID, websocket.BalanceUpdate{
			AccountID: req.AccountID,
			Balance:   money.FormatMinor(balanceAfter),
			Currency:  s.currency,
		})
	}
	return transactionID, nil
}

// CreditInTx is the transactional body of Credit, exposed so the loan
// service can disburse inside its own decision transaction.
func (s *LedgerService) CreditInTx(ctx context.Context, tx *sqlx.Tx, req CreditRequest) (string, string, int64, error) {
	if req.AmountMinor <= 0 {
		return "", "", 0, ErrInvalidAmount
	}
	kind := req.Kind
	if kind == "" {
		kind = "credit"
	}
	settlementID, err := s.accountStore.GetSystemAccount(ctx, s.currency)
	if err != nil {
		return "", "", 0, err
	}
	account, settlement, err := lockTwoAccounts(ctx, tx, s.accountStore, req.AccountID, settlementID)
	if err != nil {
		return "", "", 0, err
	}
	if account.IsSystem {
		return "", "", 0, ErrSystemAccount
	}
	ownerID := ""
	if account.UserID != nil {
		ownerID = *account.UserID
	}
	newBalance := account.Balance + req.AmountMinor
	if err := s.accountStore.UpdateBalance(ctx, tx, req.AccountID, newBalance); err != nil {
		return "", "", 0, err
	}
	if err := s.accountStore.UpdateBalance(ctx, tx, settlementID, settlement.Balance-req.AmountMinor); err != nil {
		return "", "", 0, err
	}
	transactionID := uuid.NewString()
	if err := s.txStore.Create(ctx, tx, store.TransactionInput{
		ID:              transactionID,
		UserID:          ownerID,
		Type:            kind,
		Status:          "completed",
		Amount:          req.AmountMinor,
		Currency:        s.currency,
		FromAccountID:   &settlementID,
		ToAccountID:     &req.AccountID,
		Metadata:        "{}",
		ClientRequestID: req.ClientRequestID,
	}); err != nil {
		return "", "", 0, err
	}
	entries := []store.LedgerEntryInput{
		{
			ID:            uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     settlementID,
			Amount:        -req.AmountMinor,
			Currency:      s.currency,
			Description:   "Inbound settlement",
		},
		{
			ID:            uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     req.AccountID,
			Amount:        req.AmountMinor,
			Currency:      s.currency,
			Description:   req.Description,
		},
	}
	if err := ensureBalanced(entries); err != nil {
		return "", "", 0, err
	}
	if err := s.ledgerStore.InsertEntries(ctx, tx, entries); err != nil {
		return "", "", 0, err
	}
	data, _ := json.Marshal(map[string]string{
		"transaction_id": transactionID,
		"kind":           kind,
	})
	if err := s.auditStore.Log(ctx, tx, req.ActorID, kind, "transaction", transactionID, string(data)); err != nil {
		return "", "", 0, err
	}
	return transactionID, ownerID, newBalance, nil
}

func composeDescription(destination, note string) string {
	if note == "" {
		return destination
	}
	return destination + " (" + note + ")"
}

func ensureBalanced(entries []store.LedgerEntryInput) error {
	var sum int64
	for _, entry := range entries {
		sum += entry.Amount
	}
	if sum != 0 {
		return errors.New("ledger entries are not balanced")
	}
	return nil
}

func lockTwoAccounts(ctx context.Context, tx store.Getter, accountStore AccountStore, firstID, secondID string) (store.Account, store.Account, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	leftAccount, err := accountStore.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		return store.Account{}, store.Account{}, err
	}
	rightAccount, err := accountStore.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		return store.Account{}, store.Account{}, err
	}
	if firstID == leftID {
		return leftAccount, rightAccount, nil
	}
	return rightAccount, leftAccount, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
