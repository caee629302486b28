package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const incomeColumns = `id, user_id, amount, description, date, category_id`

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in *core.Income) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Amount, in.Description, in.Date.Unix(), nullString(in.CategoryID))
	if isForeignKeyViolation(err) {
		return core.Fail(core.KindValidation, "unknown user or category", nil)
	}
	if err != nil {
		return fmt.Errorf("create income: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, userID, id string) (*core.Income, error) {
	in, err := scanIncome(r.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("income")
	}
	if err != nil {
		return nil, fmt.Errorf("get income: %w", err)
	}
	return in, nil
}

// ListIncomes returns the user's incomes, newest first.
func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	incomes := []core.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		incomes = append(incomes, *in)
	}
	return incomes, rows.Err()
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in *core.Income) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE incomes SET amount = ?, description = ?, date = ?, category_id = ?
		 WHERE id = ? AND user_id = ?`,
		in.Amount, in.Description, in.Date.Unix(), nullString(in.CategoryID), in.ID, in.UserID)
	if isForeignKeyViolation(err) {
		return core.Fail(core.KindValidation, "unknown category", nil)
	}
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return expectAffected(res, "income")
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return expectAffected(res, "income")
}

func scanIncome(s rowScanner) (*core.Income, error) {
	var (
		in       core.Income
		date     int64
		category sql.NullString
	)
	if err := s.Scan(&in.ID, &in.UserID, &in.Amount, &in.Description, &date, &category); err != nil {
		return nil, err
	}
	in.Date = unixTime(date)
	in.CategoryID = category.String
	return &in, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
