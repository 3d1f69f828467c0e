package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mfbank/internal/services"
)

type requestCodeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (h *Handler) SignupRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	issued, err := h.signup.RequestCode(r.Context(), services.RequestCodeRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			respondError(w, http.StatusBadRequest, "validation_error")
		case errors.Is(err, services.ErrEmailTaken):
			respondError(w, http.StatusConflict, "email_taken")
		default:
			respondError(w, http.StatusInternalServerError, "code_request_failed")
		}
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"destination":   issued.Destination,
		"expires_at":    issued.ExpiresAt,
		"resend_after":  issued.ResendAfter.Seconds(),
	})
}

type resendRequest struct {
	Email string `json:"email"`
}

func (h *Handler) SignupResend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	issued, err := h.signup.Resend(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			respondError(w, http.StatusBadRequest, "validation_error")
		case errors.Is(err, services.ErrResendCooldown):
			respondError(w, http.StatusTooManyRequests, "resend_cooldown")
		default:
			respondError(w, http.StatusInternalServerError, "code_request_failed")
		}
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"destination":   issued.Destination,
		"expires_at":    issued.ExpiresAt,
		"resend_after":  issued.ResendAfter.Seconds(),
	})
}

type verifyRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Code      string `json:"code"`
}

func (h *Handler) SignupVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.signup.Verify(r.Context(), services.VerifyRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Code:      req.Code,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			respondError(w, http.StatusBadRequest, "validation_error")
		case errors.Is(err, services.ErrInvalidCode):
			respondError(w, http.StatusBadRequest, "invalid_code")
		case errors.Is(err, services.ErrCodeExpired):
			respondError(w, http.StatusBadRequest, "code_expired")
		case errors.Is(err, services.ErrCodeAlreadyUsed):
			respondError(w, http.StatusBadRequest, "code_already_used")
		default:
			respondError(w, http.StatusInternalServerError, "verification_failed")
		}
		return
	}
	payload := map[string]any{
		"user_id":           result.UserID,
		"account_id":        result.AccountID,
		"token":             result.Token,
		"profile_persisted": result.ProfilePersisted,
	}
	if result.ProfileErr != nil {
		payload["profile_error"] = "profile_write_failed"
	}
	respondJSON(w, http.StatusCreated, payload)
}
