package store

import (
	"context"
	"fmt"
	"strings"
)

type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// InsertEntries writes a posting as a single statement so the legs of a
// transaction land together or not at all, even outside a wrapping tx.
func (s *LedgerStore) InsertEntries(ctx context.Context, tx Execer, entries []LedgerEntryInput) error {
	if len(entries) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO ledger_entries (id, transaction_id, account_id, amount, currency, description) VALUES ")
	args := make([]any, 0, len(entries)*6)
	for i, entry := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, entry.ID, entry.TransactionID, entry.AccountID, entry.Amount, entry.Currency, entry.Description)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

func (s *LedgerStore) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, accountID)
	return sum, err
}

type LedgerEntryInput struct {
	ID            string
	TransactionID string
	AccountID     string
	Amount        int64
	Currency      string
	Description   string
}
