package store

import "context"

type ContactStore struct {
	db DB
}

type contactRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Subject   string `db:"subject"`
	Body      string `db:"body"`
	CreatedAt any    `db:"created_at"`
}

func NewContactStore(db DB) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) Create(ctx context.Context, id, name, email, subject, body string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, body)
		VALUES ($1, $2, $3, $4, $5)
	`, id, name, email, subject, body)
	return err
}

func (s *ContactStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []contactRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, email, subject, body, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	messages := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, map[string]any{
			"id":         row.ID,
			"name":       row.Name,
			"email":      row.Email,
			"subject":    row.Subject,
			"body":       row.Body,
			"created_at": row.CreatedAt,
		})
	}
	return messages, nil
}
