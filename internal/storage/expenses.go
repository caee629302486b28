package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const expenseColumns = `id, user_id, amount, description, date, category_id, source`

// CreateExpense inserts the expense and its bill details in one transaction.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Source == "" {
		e.Source = core.SourceManual
	}
	if e.BillDetails == nil {
		e.BillDetails = []core.BillDetail{}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount, e.Description, e.Date.Unix(), e.CategoryID, e.Source)
	if isForeignKeyViolation(err) {
		return core.Fail(core.KindValidation, "unknown user or category", nil)
	}
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	for i, d := range e.BillDetails {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bill_details (expense_id, position, description, quantity, price) VALUES (?, ?, ?, ?, ?)`,
			e.ID, i, d.Description, d.Quantity, d.Price)
		if err != nil {
			return fmt.Errorf("insert bill detail %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expense: %w", err)
	}
	return nil
}

// GetExpense returns the expense with its bill details. When userID is
// empty ownership is not checked.
func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (*core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`
	args := []any{id}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	e, err := scanExpense(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense")
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}

	details, err := r.billDetails(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.BillDetails = details
	return e, nil
}

// ListExpenses returns the user's expenses, newest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	for i := range expenses {
		details, err := r.billDetails(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].BillDetails = details
	}
	return expenses, nil
}

// UpdateExpense rewrites the header fields. Bill details are left as they
// were captured.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount = ?, description = ?, date = ?, category_id = ?
		 WHERE id = ? AND user_id = ?`,
		e.Amount, e.Description, e.Date.Unix(), e.CategoryID, e.ID, e.UserID)
	if isForeignKeyViolation(err) {
		return core.Fail(core.KindValidation, "unknown category", nil)
	}
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return expectAffected(res, "expense")
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectAffected(res, "expense")
}

func (r *SQLiteRepository) billDetails(ctx context.Context, expenseID string) ([]core.BillDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT description, quantity, price FROM bill_details WHERE expense_id = ? ORDER BY position`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list bill details: %w", err)
	}
	defer rows.Close()

	details := []core.BillDetail{}
	for rows.Next() {
		var d core.BillDetail
		if err := rows.Scan(&d.Description, &d.Quantity, &d.Price); err != nil {
			return nil, fmt.Errorf("scan bill detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func scanExpense(s rowScanner) (*core.Expense, error) {
	var (
		e    core.Expense
		date int64
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Amount, &e.Description, &date, &e.CategoryID, &e.Source); err != nil {
		return nil, err
	}
	e.Date = unixTime(date)
	return &e, nil
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound(what)
	}
	return nil
}
