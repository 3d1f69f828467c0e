package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestAccountStoreCreate(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO accounts") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 || args[0] != "acct-1" || args[2] != "NGN" || args[3] != int64(0) || args[4] != false {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	if err := store.Create(ctx, execer, "acct-1", &userID, "NGN", 0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountStoreGetByUser(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM accounts a") || !strings.Contains(query, "ledger_entries") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]AccountBalanceSummary) = []AccountBalanceSummary{{ID: "acct-1", Difference: 0}}
			return nil
		},
	})
	rows, err := store.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "acct-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestAccountStoreGetForUpdate(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "acct-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*Account) = Account{ID: "acct-1"}
			return nil
		},
	}
	store := NewAccountStore(stubDB{})
	row, err := store.GetForUpdate(ctx, getter, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "acct-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestAccountStoreUpdateBalance(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE accounts") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != int64(9000) || args[1] != "acct-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	if err := store.UpdateBalance(ctx, execer, "acct-1", 9000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountStoreAdjustBalance(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "balance = balance + $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != int64(-10000) || args[1] != "sys-ngn" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	affected, err := store.AdjustBalance(ctx, execer, "sys-ngn", -10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("unexpected rows affected: %d", affected)
	}
}

func TestAccountStoreGetSystemAccount(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "is_system = TRUE AND currency = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*string) = "sys-ngn"
			return nil
		},
	})
	id, err := store.GetSystemAccount(ctx, "NGN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "sys-ngn" {
		t.Fatalf("unexpected id: %s", id)
	}
}
