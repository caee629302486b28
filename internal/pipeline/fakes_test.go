package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"fintrack/internal/ai"
	"fintrack/internal/core"
)

type reply struct {
	text string
	err  error
}

// fakeInferrer answers calls in order and records the text of each prompt.
type fakeInferrer struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
	images  int
}

func (f *fakeInferrer) Infer(_ context.Context, parts ...ai.Part) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var b strings.Builder
	for _, p := range parts {
		if p.IsImage() {
			f.images++
			continue
		}
		b.WriteString(p.Text)
	}
	f.prompts = append(f.prompts, b.String())

	if len(f.replies) == 0 {
		return "", core.Fail(core.KindInferenceFailure, "no scripted reply", nil)
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

func (f *fakeInferrer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeTaxonomy struct {
	cats []core.Category
	err  error
}

func (f *fakeTaxonomy) ListByType(_ context.Context, t core.CategoryType) ([]core.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Category
	for _, c := range f.cats {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeExpenses struct {
	created []*core.Expense
	err     error
}

func (f *fakeExpenses) CreateExpense(_ context.Context, e *core.Expense) error {
	if f.err != nil {
		return f.err
	}
	e.ID = "exp-1"
	f.created = append(f.created, e)
	return nil
}

type fakeRecommendations struct {
	created []*core.Recommendation
}

func (f *fakeRecommendations) CreateRecommendation(_ context.Context, r *core.Recommendation) error {
	r.ID = "rec-1"
	f.created = append(f.created, r)
	return nil
}

type fakeAggregates struct {
	income, expenses float64
	err              error
}

func (f *fakeAggregates) TotalIncome(context.Context, string, core.Period) (float64, error) {
	return f.income, f.err
}

func (f *fakeAggregates) TotalExpenses(context.Context, string, core.Period) (float64, error) {
	return f.expenses, f.err
}

type fakeUsers struct{}

func (fakeUsers) CurrentUser(_ context.Context, token string) (*core.User, error) {
	if token != "good-token" {
		return nil, core.ErrAuthFailure
	}
	return &core.User{ID: "user-1"}, nil
}

var errStore = errors.New("store unavailable")

func expenseTaxonomy() []core.Category {
	return []core.Category{
		{ID: "cat-food", Name: "Food", Type: core.CategoryExpense},
		{ID: "cat-transport", Name: "Transport", Type: core.CategoryExpense},
		{ID: "cat-food-dup", Name: "FOOD", Type: core.CategoryExpense},
		{ID: "cat-other", Name: "Other", Type: core.CategoryExpense},
		{ID: "cat-salary", Name: "Salary", Type: core.CategoryIncome},
	}
}
