package store

import "context"

type BranchStore struct {
	db DB
}

type branchRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Address   string `db:"address"`
	City      string `db:"city"`
	State     string `db:"state"`
	Phone     string `db:"phone"`
	CreatedAt any    `db:"created_at"`
}

func NewBranchStore(db DB) *BranchStore {
	return &BranchStore{db: db}
}

func (s *BranchStore) ListAll(ctx context.Context) ([]map[string]any, error) {
	var rows []branchRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, address, city, state, phone, created_at
		FROM branches
		ORDER BY state, city, name
	`)
	if err != nil {
		return nil, err
	}
	branches := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, map[string]any{
			"id":      row.ID,
			"name":    row.Name,
			"address": row.Address,
			"city":    row.City,
			"state":   row.State,
			"phone":   row.Phone,
		})
	}
	return branches, nil
}
