package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mfbank/internal/middleware"
	"mfbank/internal/store"

	"github.com/go-chi/chi/v5"
)

func balanceRequest(t *testing.T, accountID string) *http.Request {
	t.Helper()
	req := authedRequest(t, http.MethodGet, "/api/accounts/"+accountID+"/balance", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", accountID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListAccounts(t *testing.T) {
	owner := "user-1"
	h := newTestHandler(handlerStubs{
		accounts: stubAccountStore{
			getByUserFn: func(_ context.Context, userID string) ([]store.AccountBalanceSummary, error) {
				if userID != "user-1" {
					t.Fatalf("unexpected user id %q", userID)
				}
				return []store.AccountBalanceSummary{
					{ID: "acct-1", UserID: &owner, Currency: "NGN", StoredBalance: 125050},
				}, nil
			},
		},
	})

	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/api/accounts", nil)
	middleware.Auth("secret")(http.HandlerFunc(h.ListAccounts)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var rows []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 1 || rows[0]["balance"] != "1250.50" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestGetBalanceOK(t *testing.T) {
	owner := "user-1"
	h := newTestHandler(handlerStubs{
		accounts: stubAccountStore{
			getByIDFn: func(_ context.Context, accountID string) (store.Account, error) {
				if accountID != "acct-1" {
					t.Fatalf("unexpected account id %q", accountID)
				}
				return store.Account{ID: "acct-1", UserID: &owner, Currency: "NGN", Balance: 9000}, nil
			},
		},
	})

	rr := httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(h.GetBalance)).ServeHTTP(rr, balanceRequest(t, "acct-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["balance"] != "90.00" {
		t.Fatalf("unexpected balance %v", resp["balance"])
	}
}

func TestGetBalanceNotOwner(t *testing.T) {
	other := "user-2"
	h := newTestHandler(handlerStubs{
		accounts: stubAccountStore{
			getByIDFn: func(context.Context, string) (store.Account, error) {
				return store.Account{ID: "acct-2", UserID: &other, Currency: "NGN", Balance: 500}, nil
			},
		},
	})

	rr := httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(h.GetBalance)).ServeHTTP(rr, balanceRequest(t, "acct-2"))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestGetBalanceSystemAccountHidden(t *testing.T) {
	h := newTestHandler(handlerStubs{
		accounts: stubAccountStore{
			getByIDFn: func(context.Context, string) (store.Account, error) {
				return store.Account{ID: "acct-system-ngn", UserID: nil, Currency: "NGN", IsSystem: true}, nil
			},
		},
	})

	rr := httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(h.GetBalance)).ServeHTTP(rr, balanceRequest(t, "acct-system-ngn"))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestGetBalanceNotFound(t *testing.T) {
	h := newTestHandler(handlerStubs{
		accounts: stubAccountStore{
			getByIDFn: func(context.Context, string) (store.Account, error) {
				return store.Account{}, sql.ErrNoRows
			},
		},
	})

	rr := httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(h.GetBalance)).ServeHTTP(rr, balanceRequest(t, "missing"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSelfCheckReportsDrift(t *testing.T) {
	owner := "user-1"
	h := newTestHandler(handlerStubs{
		accounts: stubAccountStore{
			getByUserFn: func(context.Context, string) ([]store.AccountBalanceSummary, error) {
				return []store.AccountBalanceSummary{
					{ID: "acct-1", UserID: &owner, Currency: "NGN", StoredBalance: 10000, CalculatedBalance: 9900, Difference: 100},
				}, nil
			},
		},
	})

	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/api/accounts/self-check", nil)
	middleware.Auth("secret")(http.HandlerFunc(h.SelfCheck)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["consistent"] != false {
		t.Fatalf("expected drift to be flagged")
	}
	accounts := resp["accounts"].([]any)
	row := accounts[0].(map[string]any)
	if row["difference"] != "1.00" {
		t.Fatalf("unexpected difference %v", row["difference"])
	}
}
