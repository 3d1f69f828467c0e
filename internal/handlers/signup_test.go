package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mfbank/internal/services"
)

func TestSignupRequestCodeAccepted(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		signup: stubSignupService{
			requestFn: func(_ context.Context, req services.RequestCodeRequest) (services.CodeIssued, error) {
				if req.Email != "ada@example.com" || req.FirstName != "Ada" {
					t.Fatalf("unexpected request: %#v", req)
				}
				return services.CodeIssued{
					Destination: req.Email,
					ExpiresAt:   time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC),
					ResendAfter: time.Minute,
				}, nil
			},
		},
	})
	body := []byte(`{"first_name":"Ada","last_name":"Obi","phone":"+2348012345678","email":"ada@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup/request-code", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.SignupRequestCode(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["destination"] != "ada@example.com" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestSignupRequestCodeValidation(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		signup: stubSignupService{
			requestFn: func(context.Context, services.RequestCodeRequest) (services.CodeIssued, error) {
				return services.CodeIssued{}, services.ErrValidation
			},
		},
	})
	body := []byte(`{"first_name":"A","email":"bad"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup/request-code", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.SignupRequestCode(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSignupRequestCodeEmailTaken(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		signup: stubSignupService{
			requestFn: func(context.Context, services.RequestCodeRequest) (services.CodeIssued, error) {
				return services.CodeIssued{}, services.ErrEmailTaken
			},
		},
	})
	body := []byte(`{"first_name":"Ada","last_name":"Obi","phone":"+2348012345678","email":"ada@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup/request-code", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.SignupRequestCode(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestSignupResendCooldown(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		signup: stubSignupService{
			resendFn: func(context.Context, string) (services.CodeIssued, error) {
				return services.CodeIssued{}, services.ErrResendCooldown
			},
		},
	})
	body := []byte(`{"email":"ada@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup/resend", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.SignupResend(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestSignupVerifyCreated(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		signup: stubSignupService{
			verifyFn: func(_ context.Context, req services.VerifyRequest) (services.VerifyResult, error) {
				if req.Code != "123456" {
					t.Fatalf("unexpected code: %q", req.Code)
				}
				return services.VerifyResult{
					UserID: "user-1", AccountID: "acct-1", Token: "jwt", ProfilePersisted: true,
				}, nil
			},
		},
	})
	body := []byte(`{"first_name":"Ada","last_name":"Obi","phone":"+2348012345678","email":"ada@example.com","code":"123456"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup/verify", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.SignupVerify(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["user_id"] != "user-1" || payload["token"] != "jwt" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if payload["profile_persisted"] != true {
		t.Fatalf("expected profile_persisted true: %#v", payload)
	}
	if _, present := payload["profile_error"]; present {
		t.Fatalf("no profile_error expected: %#v", payload)
	}
}

func TestSignupVerifyPartialSuccess(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		signup: stubSignupService{
			verifyFn: func(context.Context, services.VerifyRequest) (services.VerifyResult, error) {
				return services.VerifyResult{
					UserID: "user-1", AccountID: "acct-1", Token: "jwt",
					ProfilePersisted: false, ProfileErr: errors.New("profiles unavailable"),
				}, nil
			},
		},
	})
	body := []byte(`{"first_name":"Ada","last_name":"Obi","phone":"+2348012345678","email":"ada@example.com","code":"123456"}`)
	req := httptest.NewRequest(http.MethodPost, "/signup/verify", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.SignupVerify(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["profile_persisted"] != false {
		t.Fatalf("expected profile_persisted false: %#v", payload)
	}
	if payload["profile_error"] != "profile_write_failed" {
		t.Fatalf("expected profile_error marker: %#v", payload)
	}
}

func TestSignupVerifyErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrInvalidCode, http.StatusBadRequest},
		{services.ErrCodeExpired, http.StatusBadRequest},
		{services.ErrCodeAlreadyUsed, http.StatusBadRequest},
		{services.ErrValidation, http.StatusBadRequest},
	}
	for _, tc := range cases {
		handler := newTestHandler(handlerStubs{
			signup: stubSignupService{
				verifyFn: func(context.Context, services.VerifyRequest) (services.VerifyResult, error) {
					return services.VerifyResult{}, tc.err
				},
			},
		})
		body := []byte(`{"first_name":"Ada","last_name":"Obi","phone":"+2348012345678","email":"ada@example.com","code":"123456"}`)
		req := httptest.NewRequest(http.MethodPost, "/signup/verify", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		handler.SignupVerify(rr, req)
		if rr.Code != tc.code {
			t.Fatalf("expected %d for %v, got %d", tc.code, tc.err, rr.Code)
		}
	}
}
