package store

import (
	"context"
	"time"
)

type OTPStore struct {
	db DB
}

type OtpChallengeRow struct {
	ID          string    `db:"id"`
	Destination string    `db:"destination"`
	Code        string    `db:"code"`
	ExpiresAt   time.Time `db:"expires_at"`
	Verified    bool      `db:"verified"`
	CreatedAt   time.Time `db:"created_at"`
}

func NewOTPStore(db DB) *OTPStore {
	return &OTPStore{db: db}
}

func (s *OTPStore) Create(ctx context.Context, id, destination, code string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO otp_verifications (id, destination, code, expires_at, verified)
		VALUES ($1, $2, $3, $4, FALSE)
	`, id, destination, code, expiresAt.UTC())
	return err
}

// FindMatch returns the most recent challenge for the destination/code pair
// regardless of expiry or consumption, so the caller can tell "no such code"
// apart from "expired" and "already used".
func (s *OTPStore) FindMatch(ctx context.Context, destination, code string) (OtpChallengeRow, error) {
	var row OtpChallengeRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, destination, code, expires_at, verified, created_at
		FROM otp_verifications
		WHERE destination = $1 AND code = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, destination, code)
	if err != nil {
		return OtpChallengeRow{}, err
	}
	return row, nil
}

// Consume marks a challenge verified. The verified guard makes consumption
// single-shot: a second attempt matches zero rows.
func (s *OTPStore) Consume(ctx context.Context, tx Execer, challengeID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE otp_verifications
		SET verified = TRUE
		WHERE id = $1 AND verified = FALSE
	`, challengeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *OTPStore) LastIssuedAt(ctx context.Context, destination string) (time.Time, error) {
	var last time.Time
	err := s.db.GetContext(ctx, &last, `
		SELECT COALESCE(MAX(created_at), 'epoch'::timestamptz)
		FROM otp_verifications
		WHERE destination = $1
	`, destination)
	return last, err
}

// ExpireOutstanding force-expires every live challenge for a destination.
// Only used when resend invalidation is switched on.
func (s *OTPStore) ExpireOutstanding(ctx context.Context, destination string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE otp_verifications
		SET expires_at = $2
		WHERE destination = $1 AND verified = FALSE AND expires_at > $2
	`, destination, now.UTC())
	return err
}

func (s *OTPStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM otp_verifications
		WHERE verified = FALSE AND expires_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
