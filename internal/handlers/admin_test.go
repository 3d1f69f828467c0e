package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mfbank/internal/middleware"
	"mfbank/internal/services"
	"mfbank/internal/store"

	"github.com/lib/pq"
)

func TestAdminCreditCreated(t *testing.T) {
	var captured services.CreditRequest
	h := newTestHandler(handlerStubs{
		ledger: stubLedgerService{
			creditFn: func(_ context.Context, req services.CreditRequest) (string, error) {
				captured = req
				return "tx-credit-1", nil
			},
		},
	})

	body, _ := json.Marshal(map[string]string{
		"account_id":  "acct-1",
		"amount":      "250.00",
		"description": "goodwill adjustment",
	})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/credit", body)
	middleware.Auth("secret")(http.HandlerFunc(h.AdminCredit)).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.AccountID != "acct-1" || captured.AmountMinor != 25000 {
		t.Fatalf("unexpected credit request: %+v", captured)
	}
	if captured.Kind != "credit" {
		t.Fatalf("expected kind credit, got %q", captured.Kind)
	}
	if captured.ActorID != "user-1" {
		t.Fatalf("expected actor user-1, got %q", captured.ActorID)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["transaction_id"] != "tx-credit-1" {
		t.Fatalf("unexpected transaction id %q", resp["transaction_id"])
	}
}

func TestAdminCreditSystemAccountRejected(t *testing.T) {
	h := newTestHandler(handlerStubs{
		ledger: stubLedgerService{
			creditFn: func(context.Context, services.CreditRequest) (string, error) {
				return "", services.ErrSystemAccount
			},
		},
	})

	body, _ := json.Marshal(map[string]string{"account_id": "acct-system-ngn", "amount": "1.00"})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/credit", body)
	middleware.Auth("secret")(http.HandlerFunc(h.AdminCredit)).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestAdminCreditDuplicateRequest(t *testing.T) {
	h := newTestHandler(handlerStubs{
		ledger: stubLedgerService{
			creditFn: func(context.Context, services.CreditRequest) (string, error) {
				return "", &pq.Error{Code: "23505"}
			},
		},
	})

	body, _ := json.Marshal(map[string]string{"account_id": "acct-1", "amount": "1.00", "client_request_id": "req-1"})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/credit", body)
	middleware.Auth("secret")(http.HandlerFunc(h.AdminCredit)).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestReconcileConsistent(t *testing.T) {
	h := newTestHandler(handlerStubs{
		reconcileDB: stubReconcileDB{
			selectFn: func(_ context.Context, dest any, _ string, _ ...any) error {
				rows := dest.(*[]reconcileRow)
				*rows = []reconcileRow{
					{AccountID: "acct-1", Currency: "NGN", StoredBalance: 9000, CalculatedBalance: 9000, Difference: 0},
					{AccountID: "acct-system-ngn", Currency: "NGN", StoredBalance: -9000, CalculatedBalance: -9000, Difference: 0, IsSystem: true},
				}
				return nil
			},
		},
	})

	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/api/admin/reconcile", nil)
	middleware.Auth("secret")(http.HandlerFunc(h.Reconcile)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["consistent"] != true {
		t.Fatalf("expected consistent report, got %v", resp["consistent"])
	}
	if resp["ledger_total"] != "0.00" {
		t.Fatalf("expected zero ledger total, got %v", resp["ledger_total"])
	}
}

func TestReconcileDriftDetected(t *testing.T) {
	h := newTestHandler(handlerStubs{
		reconcileDB: stubReconcileDB{
			selectFn: func(_ context.Context, dest any, _ string, _ ...any) error {
				rows := dest.(*[]reconcileRow)
				*rows = []reconcileRow{
					{AccountID: "acct-1", Currency: "NGN", StoredBalance: 9000, CalculatedBalance: 8500, Difference: 500},
					{AccountID: "acct-system-ngn", Currency: "NGN", StoredBalance: -8500, CalculatedBalance: -8500, Difference: 0, IsSystem: true},
				}
				return nil
			},
		},
	})

	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/api/admin/reconcile", nil)
	middleware.Auth("secret")(http.HandlerFunc(h.Reconcile)).ServeHTTP(rr, req)

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
	first := accounts[0].(map[string]any)
	if first["difference"] != "5.00" {
		t.Fatalf("expected difference 5.00, got %v", first["difference"])
	}
}

func TestPromoteAdminRequiresSuper(t *testing.T) {
	h := newTestHandler(handlerStubs{
		admin: stubAdminStore{
			isAdminFn: func(context.Context, string) (bool, bool, error) {
				return true, false, nil
			},
			createAdminFn: func(context.Context, store.Execer, string, bool, *string) error {
				t.Fatalf("promotion must not proceed for non-super actors")
				return nil
			},
		},
	})

	body, _ := json.Marshal(map[string]any{"user_id": "user-2"})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/admins", body)
	middleware.Auth("secret")(http.HandlerFunc(h.PromoteAdmin)).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestPromoteAdminCreated(t *testing.T) {
	var promoted string
	var promotedBy *string
	h := newTestHandler(handlerStubs{
		admin: stubAdminStore{
			isAdminFn: func(context.Context, string) (bool, bool, error) {
				return true, true, nil
			},
			createAdminFn: func(_ context.Context, _ store.Execer, userID string, isSuper bool, createdBy *string) error {
				promoted = userID
				promotedBy = createdBy
				if isSuper {
					t.Fatalf("did not ask for a super admin")
				}
				return nil
			},
		},
	})

	body, _ := json.Marshal(map[string]any{"user_id": "user-2"})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/admins", body)
	middleware.Auth("secret")(http.HandlerFunc(h.PromoteAdmin)).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if promoted != "user-2" {
		t.Fatalf("expected user-2 promoted, got %q", promoted)
	}
	if promotedBy == nil || *promotedBy != "user-1" {
		t.Fatalf("expected promotion recorded against user-1")
	}
}

func TestGrantRoleUnknownRole(t *testing.T) {
	h := newTestHandler(handlerStubs{
		admin: stubAdminStore{
			isAdminFn: func(context.Context, string) (bool, bool, error) {
				return true, true, nil
			},
		},
	})

	body, _ := json.Marshal(map[string]string{"user_id": "user-2", "role": "CanDeleteEverything"})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/roles", body)
	middleware.Auth("secret")(http.HandlerFunc(h.GrantRole)).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGrantRoleTargetNotAdmin(t *testing.T) {
	h := newTestHandler(handlerStubs{
		admin: stubAdminStore{
			isAdminFn: func(_ context.Context, userID string) (bool, bool, error) {
				if userID == "user-1" {
					return true, true, nil
				}
				return false, false, nil
			},
		},
	})

	body, _ := json.Marshal(map[string]string{"user_id": "user-2", "role": "CanManageLoans"})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/roles", body)
	middleware.Auth("secret")(http.HandlerFunc(h.GrantRole)).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGrantRoleCreated(t *testing.T) {
	var grantedUser, grantedRole string
	h := newTestHandler(handlerStubs{
		admin: stubAdminStore{
			isAdminFn: func(context.Context, string) (bool, bool, error) {
				return true, true, nil
			},
			grantRoleFn: func(_ context.Context, _ store.Execer, adminUserID, role string) error {
				grantedUser = adminUserID
				grantedRole = role
				return nil
			},
		},
	})

	body, _ := json.Marshal(map[string]string{"user_id": "user-2", "role": "CanManageLoans"})
	rr := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/api/admin/roles", body)
	middleware.Auth("secret")(http.HandlerFunc(h.GrantRole)).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if grantedUser != "user-2" || grantedRole != "CanManageLoans" {
		t.Fatalf("unexpected grant: user=%q role=%q", grantedUser, grantedRole)
	}
}
