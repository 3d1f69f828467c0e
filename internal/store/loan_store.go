package store

import "context"

type LoanStore struct {
	db DB
}

type LoanApplicationRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	Username    *string `db:"username"`
	Amount      int64   `db:"amount"`
	ProductType string  `db:"product_type"`
	Purpose     string  `db:"purpose"`
	Status      string  `db:"status"`
	DecidedAt   any     `db:"decided_at"`
	DecidedBy   *string `db:"decided_by"`
	CreatedAt   any     `db:"created_at"`
}

type LoanApplicationInput struct {
	ID          string
	UserID      string
	Amount      int64
	ProductType string
	Purpose     string
	Status      string
}

type LoanProductRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Category      string `db:"category"`
	MinAmount     int64  `db:"min_amount"`
	MaxAmount     int64  `db:"max_amount"`
	AnnualRate    string `db:"annual_rate"`
	MaxTermMonths int    `db:"max_term_months"`
}

func NewLoanStore(db DB) *LoanStore {
	return &LoanStore{db: db}
}

func (s *LoanStore) Create(ctx context.Context, tx Execer, input LoanApplicationInput) error {
	query := `
		INSERT INTO loan_applications (id, user_id, amount, product_type, purpose, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.UserID, input.Amount, input.ProductType, input.Purpose, input.Status)
	return err
}

func (s *LoanStore) GetByID(ctx context.Context, loanID string) (LoanApplicationRow, error) {
	var row LoanApplicationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, amount, product_type, purpose, status, decided_at, decided_by, created_at
		FROM loan_applications
		WHERE id = $1
	`, loanID)
	if err != nil {
		return LoanApplicationRow{}, err
	}
	return row, nil
}

func (s *LoanStore) GetForUpdate(ctx context.Context, tx Getter, loanID string) (LoanApplicationRow, error) {
	var row LoanApplicationRow
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, amount, product_type, purpose, status, decided_at, decided_by, created_at
		FROM loan_applications
		WHERE id = $1
		FOR UPDATE
	`, loanID)
	if err != nil {
		return LoanApplicationRow{}, err
	}
	return row, nil
}

// Decide flips a pending application into a terminal state. The status guard
// in the WHERE clause makes the transition single-shot: a second decision
// matches zero rows.
func (s *LoanStore) Decide(ctx context.Context, tx Execer, loanID, status, decidedBy string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE loan_applications
		SET status = $1, decided_at = NOW(), decided_by = $2
		WHERE id = $3 AND status = 'pending'
	`, status, decidedBy, loanID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *LoanStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]LoanApplicationRow, error) {
	var rows []LoanApplicationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, product_type, purpose, status, decided_at, decided_by, created_at
		FROM loan_applications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LoanStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]LoanApplicationRow, error) {
	var rows []LoanApplicationRow
	query := `
		SELECT l.id, l.user_id, u.username, l.amount, l.product_type, l.purpose, l.status,
		       l.decided_at, l.decided_by, l.created_at
		FROM loan_applications l
		LEFT JOIN users u ON u.id = l.user_id
	`
	args := []any{}
	param := 1
	if status != "" {
		query += " WHERE l.status = $1"
		args = append(args, status)
		param = 2
	}
	query += " ORDER BY l.created_at DESC LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, limit, offset)
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LoanStore) ListProducts(ctx context.Context) ([]LoanProductRow, error) {
	var rows []LoanProductRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, category, min_amount, max_amount, annual_rate, max_term_months
		FROM loan_products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LoanStore) GetProductByCategory(ctx context.Context, category string) (LoanProductRow, error) {
	var row LoanProductRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, category, min_amount, max_amount, annual_rate, max_term_months
		FROM loan_products
		WHERE category = $1
	`, category)
	if err != nil {
		return LoanProductRow{}, err
	}
	return row, nil
}
