// Package pipeline turns untrusted model output into persisted expenses and
// recommendations.
package pipeline

import (
	"context"

	"fintrack/internal/core"
)

// TaxonomyReader lists categories of one kind in a stable order.
type TaxonomyReader interface {
	ListByType(ctx context.Context, t core.CategoryType) ([]core.Category, error)
}

// ExpenseCreator persists a new expense and assigns its ID.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, e *core.Expense) error
}

// RecommendationCreator persists a new recommendation and assigns its ID.
type RecommendationCreator interface {
	CreateRecommendation(ctx context.Context, r *core.Recommendation) error
}

// FinancialAggregates sums a user's records over a period.
type FinancialAggregates interface {
	TotalIncome(ctx context.Context, userID string, p core.Period) (float64, error)
	TotalExpenses(ctx context.Context, userID string, p core.Period) (float64, error)
}

// UserResolver maps a bearer credential to a user.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*core.User, error)
}
