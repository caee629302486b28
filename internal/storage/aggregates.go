package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TotalIncome sums the user's incomes dated within the period.
func (r *SQLiteRepository) TotalIncome(ctx context.Context, userID string, p core.Period) (float64, error) {
	return r.sum(ctx, "incomes", userID, p)
}

// TotalExpenses sums the user's expenses dated within the period.
func (r *SQLiteRepository) TotalExpenses(ctx context.Context, userID string, p core.Period) (float64, error) {
	return r.sum(ctx, "expenses", userID, p)
}

// Budget reports income, expenses and savings for the period.
func (r *SQLiteRepository) Budget(ctx context.Context, userID string, p core.Period) (core.Budget, error) {
	income, err := r.TotalIncome(ctx, userID, p)
	if err != nil {
		return core.Budget{}, err
	}
	expenses, err := r.TotalExpenses(ctx, userID, p)
	if err != nil {
		return core.Budget{}, err
	}
	savings := decimal.NewFromFloat(income).Sub(decimal.NewFromFloat(expenses))
	return core.Budget{
		Period:   p,
		Income:   income,
		Expenses: expenses,
		Savings:  savings.InexactFloat64(),
	}, nil
}

// sum adds amounts in decimal to avoid float drift across many rows.
func (r *SQLiteRepository) sum(ctx context.Context, table, userID string, p core.Period) (float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT amount FROM `+table+` WHERE user_id = ? AND date >= ? AND date < ?`,
		userID, p.Start().Unix(), p.End().Unix())
	if err != nil {
		return 0, fmt.Errorf("sum %s: %w", table, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount float64
		if err := rows.Scan(&amount); err != nil {
			return 0, fmt.Errorf("scan %s amount: %w", table, err)
		}
		total = total.Add(decimal.NewFromFloat(amount))
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("sum %s: %w", table, err)
	}
	return total.InexactFloat64(), nil
}
