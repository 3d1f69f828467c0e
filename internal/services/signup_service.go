package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"mfbank/internal/auth"
	"mfbank/internal/db"
	"mfbank/internal/mail"
	"mfbank/internal/store"
	"mfbank/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidCode     = errors.New("invalid code")
	ErrCodeExpired     = errors.New("code expired")
	ErrCodeAlreadyUsed = errors.New("code already used")
	ErrResendCooldown  = errors.New("resend cooldown in effect")
)

type OTPStore interface {
	Create(ctx context.Context, id, destination, code string, expiresAt time.Time) error
	FindMatch(ctx context.Context, destination, code string) (store.OtpChallengeRow, error)
	Consume(ctx context.Context, tx store.Execer, challengeID string) (int64, error)
	LastIssuedAt(ctx context.Context, destination string) (time.Time, error)
	ExpireOutstanding(ctx context.Context, destination string, now time.Time) error
}

type SignupUserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type SignupAccountStore interface {
	Create(ctx context.Context, tx store.Execer, id string, userID *string, currency string, balance int64, isSystem bool) error
	GetSystemAccount(ctx context.Context, currency string) (string, error)
	AdjustBalance(ctx context.Context, tx store.Execer, accountID string, delta int64) (int64, error)
}

type ProfileStore interface {
	Upsert(ctx context.Context, tx store.Execer, input store.ProfileInput) error
}

type SignupAdminStore interface {
	HasAnyAdmin(ctx context.Context) (bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
}

type OTPRecorder interface {
	OTPIssued()
	OTPVerified()
	OTPRejected(reason string)
	MailDispatched(outcome string)
}

type SignupConfig struct {
	CodeTTL             time.Duration
	ResendCooldown      time.Duration
	InvalidateOnResend  bool
	Currency            string
	OpeningBalanceMinor int64
	JWTSecret           string
	TokenTTL            time.Duration
}

// SignupService drives the provisioning state machine:
// Collecting -> CodeSent -> Verified. The server issues and checks the code,
// creates the authentication identity with a random credential, and upserts
// the profile.
type SignupService struct {
	txRunner     db.TxRunner
	otpStore     OTPStore
	userStore    SignupUserStore
	accountStore SignupAccountStore
	ledgerStore  LedgerStore
	txStore      TransactionStore
	profileStore ProfileStore
	adminStore   SignupAdminStore
	auditStore   AuditStore
	mailer       mail.Dispatcher
	recorder     OTPRecorder
	cfg          SignupConfig
	now          func() time.Time
}

func NewSignupService(txRunner db.TxRunner, otpStore OTPStore, userStore SignupUserStore, accountStore SignupAccountStore, ledgerStore LedgerStore, txStore TransactionStore, profileStore ProfileStore, adminStore SignupAdminStore, auditStore AuditStore, mailer mail.Dispatcher, recorder OTPRecorder, cfg SignupConfig) *SignupService {
	return &SignupService{
		txRunner:     txRunner,
		otpStore:     otpStore,
		userStore:    userStore,
		accountStore: accountStore,
		ledgerStore:  ledgerStore,
		txStore:      txStore,
		profileStore: profileStore,
		adminStore:   adminStore,
		auditStore:   auditStore,
		mailer:       mailer,
		recorder:     recorder,
		cfg:          cfg,
		now:          time.Now,
	}
}

// SetClock overrides the service clock. Tests use it to age challenges.
func (s *SignupService) SetClock(now func() time.Time) {
	s.now = now
}

type RequestCodeRequest struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

type CodeIssued struct {
	Destination string
	ExpiresAt   time.Time
	ResendAfter time.Duration
}

// RequestCode validates the collected identity, issues a 6-digit challenge
// and dispatches it by mail. Repeat requests for a destination fall under
// the same cooldown as resends. Mail failure is logged but does not block
// the transition: verification is decoupled from notification delivery.
func (s *SignupService) RequestCode(ctx context.Context, req RequestCodeRequest) (CodeIssued, error) {
	if err := validator.ValidateName(req.FirstName); err != nil {
		return CodeIssued{}, ErrValidation
	}
	if err := validator.ValidateName(req.LastName); err != nil {
		return CodeIssued{}, ErrValidation
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		return CodeIssued{}, ErrValidation
	}
	if err := validator.ValidatePhone(req.Phone); err != nil {
		return CodeIssued{}, ErrValidation
	}
	taken, err := s.userStore.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return CodeIssued{}, err
	}
	if taken {
		return CodeIssued{}, ErrEmailTaken
	}
	last, err := s.otpStore.LastIssuedAt(ctx, req.Email)
	if err != nil {
		return CodeIssued{}, err
	}
	if s.now().Sub(last) < s.cfg.ResendCooldown {
		return CodeIssued{}, ErrResendCooldown
	}
	return s.issueChallenge(ctx, req.Email, req.FirstName)
}

// Resend issues a fresh challenge for the same destination, subject to the
// cooldown. Prior challenges stay live unless invalidation is configured;
// an older still-valid code verifying after a resend is the documented
// default behavior.
func (s *SignupService) Resend(ctx context.Context, email string) (CodeIssued, error) {
	if err := validator.ValidateEmail(email); err != nil {
		return CodeIssued{}, ErrValidation
	}
	last, err := s.otpStore.LastIssuedAt(ctx, email)
	if err != nil {
		return CodeIssued{}, err
	}
	if s.now().Sub(last) < s.cfg.ResendCooldown {
		return CodeIssued{}, ErrResendCooldown
	}
	if s.cfg.InvalidateOnResend {
		if err := s.otpStore.ExpireOutstanding(ctx, email, s.now()); err != nil {
			return CodeIssued{}, err
		}
	}
	return s.issueChallenge(ctx, email, "")
}

func (s *SignupService) issueChallenge(ctx context.Context, email, firstName string) (CodeIssued, error) {
	code, err := auth.RandomOTPCode()
	if err != nil {
		return CodeIssued{}, err
	}
	expiresAt := s.now().Add(s.cfg.CodeTTL)
	if err := s.otpStore.Create(ctx, uuid.NewString(), email, code, expiresAt); err != nil {
		return CodeIssued{}, err
	}
	s.recorder.OTPIssued()
	params := map[string]string{"otp_code": code}
	if firstName != "" {
		params["to_name"] = firstName
	}
	if err := s.mailer.Send(ctx, email, params); err != nil {
		log.Printf("otp mail dispatch failed for %s: %v", email, err)
		s.recorder.MailDispatched("failed")
	} else {
		s.recorder.MailDispatched("sent")
	}
	return CodeIssued{
		Destination: email,
		ExpiresAt:   expiresAt,
		ResendAfter: s.cfg.ResendCooldown,
	}, nil
}

type VerifyRequest struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Code      string
}

// VerifyResult reports both halves of provisioning. Identity creation
// succeeding while the profile write fails is surfaced as a partial
// success, not swallowed.
type VerifyResult struct {
	UserID           string
	AccountID        string
	Token            string
	ProfilePersisted bool
	ProfileErr       error
}

// Verify consumes a matching, unexpired, unconsumed challenge exactly once,
// then provisions the identity: user with a server-generated credential, an
// account with the configured opening balance, and the profile record.
func (s *SignupService) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	if err := validator.ValidateOTPCode(req.Code); err != nil {
		s.recorder.OTPRejected("malformed")
		return VerifyResult{}, ErrInvalidCode
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		return VerifyResult{}, ErrValidation
	}
	challenge, err := s.otpStore.FindMatch(ctx, req.Email, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.recorder.OTPRejected("no_match")
			return VerifyResult{}, ErrInvalidCode
		}
		return VerifyResult{}, err
	}
	if challenge.Verified {
		s.recorder.OTPRejected("already_used")
		return VerifyResult{}, ErrCodeAlreadyUsed
	}
	if !s.now().Before(challenge.ExpiresAt) {
		s.recorder.OTPRejected("expired")
		return VerifyResult{}, ErrCodeExpired
	}

	userID := uuid.NewString()
	accountID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		consumed, err := s.otpStore.Consume(ctx, tx, challenge.ID)
		if err != nil {
			return err
		}
		if consumed == 0 {
			return ErrCodeAlreadyUsed
		}
		credential, err := auth.RandomCredential()
		if err != nil {
			return err
		}
		passwordHash, err := auth.HashPassword(credential)
		if err != nil {
			return err
		}
		username := deriveUsername(req.Email, userID)
		if err := s.userStore.Create(ctx, tx, userID, username, req.Email, passwordHash); err != nil {
			return err
		}
		if err := s.accountStore.Create(ctx, tx, accountID, &userID, s.cfg.Currency, s.cfg.OpeningBalanceMinor, false); err != nil {
			return err
		}
		if s.cfg.OpeningBalanceMinor > 0 {
			if err := s.recordOpeningBalance(ctx, tx, userID, accountID); err != nil {
				return err
			}
		}
		hasAdmin, err := s.adminStore.HasAnyAdmin(ctx)
		if err != nil {
			return err
		}
		if !hasAdmin {
			if err := s.adminStore.CreateAdmin(ctx, tx, userID, true, nil); err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]string{
			"challenge_id": challenge.ID,
		})
		return s.auditStore.Log(ctx, tx, userID, "signup_verified", "user", userID, string(data))
	})
	if err != nil {
		if errors.Is(err, ErrCodeAlreadyUsed) {
			s.recorder.OTPRejected("already_used")
		}
		return VerifyResult{}, err
	}
	s.recorder.OTPVerified()

	token, err := auth.GenerateToken(s.cfg.JWTSecret, userID, s.cfg.TokenTTL)
	if err != nil {
		return VerifyResult{}, err
	}
	result := VerifyResult{
		UserID:           userID,
		AccountID:        accountID,
		Token:            token,
		ProfilePersisted: true,
	}
	// The profile write runs after the identity commit on purpose: identity
	// creation succeeding is sufficient, and a failed profile write is
	// reported to the caller instead of rolling the identity back.
	profileErr := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.profileStore.Upsert(ctx, tx, store.ProfileInput{
			UserID:        userID,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Phone:         req.Phone,
			Email:         req.Email,
			KYCStatus:     "pending",
			PhoneVerified: false,
		})
	})
	if profileErr != nil {
		log.Printf("profile write failed for user %s: %v", userID, profileErr)
		result.ProfilePersisted = false
		result.ProfileErr = profileErr
	}
	return result, nil
}

func (s *SignupService) recordOpeningBalance(ctx context.Context, tx *sqlx.Tx, userID, accountID string) error {
	settlementID, err := s.accountStore.GetSystemAccount(ctx, s.cfg.Currency)
	if err != nil {
		return err
	}
	amount := s.cfg.OpeningBalanceMinor
	transactionID := uuid.NewString()
	metadata, _ := json.Marshal(map[string]string{
		"opening_balance": "true",
	})
	if err := s.txStore.Create(ctx, tx, store.TransactionInput{
		ID:            transactionID,
		UserID:        userID,
		Type:          "credit",
		Status:        "completed",
		Amount:        amount,
		Currency:      s.cfg.Currency,
		FromAccountID: &settlementID,
		ToAccountID:   &accountID,
		Metadata:      string(metadata),
	}); err != nil {
		return err
	}
	entries := []store.LedgerEntryInput{
		{
			ID:            uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     settlementID,
			Amount:        -amount,
			Currency:      s.cfg.Currency,
			Description:   "Opening balance debit",
		},
		{
			ID:            uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     accountID,
			Amount:        amount,
			Currency:      s.cfg.Currency,
			Description:   "Opening balance credit",
		},
	}
	if err := s.ledgerStore.InsertEntries(ctx, tx, entries); err != nil {
		return err
	}
	if _, err := s.accountStore.AdjustBalance(ctx, tx, settlementID, -amount); err != nil {
		return err
	}
	return nil
}

func deriveUsername(email, userID string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, local)
	if cleaned == "" {
		cleaned = "customer"
	}
	suffix := userID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return strings.ToLower(cleaned) + "_" + suffix
}
