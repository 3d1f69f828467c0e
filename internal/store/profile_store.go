package store

import "context"

type ProfileStore struct {
	db DB
}

type ProfileInput struct {
	UserID        string
	FirstName     string
	LastName      string
	Phone         string
	Email         string
	KYCStatus     string
	PhoneVerified bool
}

type profileRow struct {
	UserID        string `db:"user_id"`
	FirstName     string `db:"first_name"`
	LastName      string `db:"last_name"`
	Phone         string `db:"phone"`
	Email         string `db:"email"`
	KYCStatus     string `db:"kyc_status"`
	PhoneVerified bool   `db:"phone_verified"`
	CreatedAt     any    `db:"created_at"`
	UpdatedAt     any    `db:"updated_at"`
}

func NewProfileStore(db DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Upsert keys the profile on the authentication identity so a retried
// verification lands on the same row.
func (s *ProfileStore) Upsert(ctx context.Context, tx Execer, input ProfileInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, phone, email, kyc_status, phone_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    email = EXCLUDED.email,
		    updated_at = NOW()
	`, input.UserID, input.FirstName, input.LastName, input.Phone, input.Email, input.KYCStatus, input.PhoneVerified)
	return err
}

func (s *ProfileStore) GetByUserID(ctx context.Context, userID string) (map[string]any, error) {
	var row profileRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, first_name, last_name, phone, email, kyc_status, phone_verified, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"user_id":        row.UserID,
		"first_name":     row.FirstName,
		"last_name":      row.LastName,
		"phone":          row.Phone,
		"email":          row.Email,
		"kyc_status":     row.KYCStatus,
		"phone_verified": row.PhoneVerified,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}, nil
}
