package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Account struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Currency  string    `db:"currency" json:"currency"`
	Balance   int64     `db:"balance" json:"balance"`
	IsSystem  bool      `db:"is_system" json:"is_system"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Type            string    `db:"type" json:"type"`
	Status          string    `db:"status" json:"status"`
	Amount          int64     `db:"amount" json:"amount"`
	Currency        string    `db:"currency" json:"currency"`
	FromAccountID   *string   `db:"from_account_id" json:"from_account_id,omitempty"`
	ToAccountID     *string   `db:"to_account_id" json:"to_account_id,omitempty"`
	Metadata        string    `db:"metadata" json:"metadata"`
	ClientRequestID *string   `db:"client_request_id" json:"client_request_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type LedgerEntry struct {
	ID            string    `db:"id" json:"id"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	AccountID     string    `db:"account_id" json:"account_id"`
	Amount        int64     `db:"amount" json:"amount"`
	Currency      string    `db:"currency" json:"currency"`
	Description   string    `db:"description" json:"description"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Loan application statuses. Pending is the only non-terminal state.
const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusRejected = "rejected"
)

type LoanApplication struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Amount      int64      `db:"amount" json:"amount"`
	ProductType string     `db:"product_type" json:"product_type"`
	Purpose     string     `db:"purpose" json:"purpose"`
	Status      string     `db:"status" json:"status"`
	DecidedAt   *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	DecidedBy   *string    `db:"decided_by" json:"decided_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type LoanProduct struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Category      string `db:"category" json:"category"`
	MinAmount     int64  `db:"min_amount" json:"min_amount"`
	MaxAmount     int64  `db:"max_amount" json:"max_amount"`
	AnnualRate    string `db:"annual_rate" json:"annual_rate"`
	MaxTermMonths int    `db:"max_term_months" json:"max_term_months"`
}

// OtpChallenge is a single-use verification code issued to a destination.
// Expiry is logical: rows stay in place past expires_at and are rejected at
// verification time.
type OtpChallenge struct {
	ID          string    `db:"id" json:"id"`
	Destination string    `db:"destination" json:"destination"`
	Code        string    `db:"code" json:"-"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	Verified    bool      `db:"verified" json:"verified"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Profile struct {
	UserID        string    `db:"user_id" json:"user_id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Phone         string    `db:"phone" json:"phone"`
	Email         string    `db:"email" json:"email"`
	KYCStatus     string    `db:"kyc_status" json:"kyc_status"`
	PhoneVerified bool      `db:"phone_verified" json:"phone_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type Branch struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ContactMessage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
