package http

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/pipeline"
)

const testToken = "token-alice"

// fakeApp stands in for every collaborator of the server.
type fakeApp struct {
	mu sync.Mutex

	user     *core.User
	expenses map[string]*core.Expense
	incomes  map[string]*core.Income
	cats     []core.Category
	recs     []core.Recommendation
	seq      int
	pingErr  error

	scanIn   *pipeline.ScanInput
	scanErr  error
	advToken string
	advPer   core.Period
	advErr   error
}

func newFakeApp() *fakeApp {
	return &fakeApp{
		user:     &core.User{ID: "u1", Name: "Alice", Email: "alice@example.com"},
		expenses: map[string]*core.Expense{},
		incomes:  map[string]*core.Income{},
		cats: []core.Category{
			{ID: "c-food", Name: "Food", Type: core.CategoryExpense},
			{ID: "c-other", Name: "Other", Type: core.CategoryExpense},
			{ID: "c-salary", Name: "Salary", Type: core.CategoryIncome},
		},
	}
}

func (f *fakeApp) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// Authenticator, TokenIssuer, UserResolver

func (f *fakeApp) Register(_ context.Context, name, email, password string) (*core.User, error) {
	if len(password) < 8 {
		return nil, core.Fail(core.KindValidation, "password must be at least 8 characters", nil)
	}
	return &core.User{ID: "u2", Name: name, Email: email}, nil
}

func (f *fakeApp) Authenticate(_ context.Context, email, password string) (*core.User, error) {
	if email != f.user.Email || password != "correct horse" {
		return nil, core.Fail(core.KindAuthFailure, "invalid email or password", nil)
	}
	return f.user, nil
}

func (f *fakeApp) Generate(u *core.User) (string, error) {
	return "token-" + u.ID, nil
}

func (f *fakeApp) CurrentUser(_ context.Context, token string) (*core.User, error) {
	switch token {
	case "":
		return nil, core.ErrInputMissing
	case testToken:
		return f.user, nil
	}
	return nil, core.ErrAuthFailure
}

// Scanner and Advisor

func (f *fakeApp) ScanBill(_ context.Context, in pipeline.ScanInput) (*pipeline.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanIn = &in
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	e := &core.Expense{ID: f.nextID("e"), UserID: in.UserID, Amount: 15.5, Description: "Groceries",
		CategoryID: "c-food", Source: core.SourceScan, BillDetails: []core.BillDetail{}}
	return &pipeline.ScanResult{Expense: e, Dropped: []pipeline.DroppedItem{{Index: 2, Reason: "missing amount"}}}, nil
}

func (f *fakeApp) GenerateRecommendation(ctx context.Context, token string, p core.Period) (*core.Recommendation, error) {
	f.mu.Lock()
	f.advToken, f.advPer = token, p
	err := f.advErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	u, err := f.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return &core.Recommendation{ID: "r1", UserID: u.ID, Suggestions: []core.Suggestion{
		{Category: "Food", Advice: "a"}, {Category: "Transport", Advice: "b"},
		{Category: "Savings", Advice: "c"}, {Category: "Budget", Advice: "d"},
	}}, nil
}

// ExpenseService

func (f *fakeApp) CreateExpense(_ context.Context, e *core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.nextID("e")
	cp := *e
	f.expenses[e.ID] = &cp
	return nil
}

func (f *fakeApp) GetExpense(_ context.Context, userID, id string) (*core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return nil, core.Fail(core.KindNotFound, "expense not found", nil)
	}
	cp := *e
	return &cp, nil
}

func (f *fakeApp) UpdateExpense(_ context.Context, e *core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.expenses[e.ID] = &cp
	return nil
}

func (f *fakeApp) DeleteExpense(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok || e.UserID != userID {
		return core.Fail(core.KindNotFound, "expense not found", nil)
	}
	delete(f.expenses, id)
	return nil
}

// Store

func (f *fakeApp) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []core.Expense{}
	for _, e := range f.expenses {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeApp) CreateIncome(_ context.Context, in *core.Income) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in.ID = f.nextID("i")
	cp := *in
	f.incomes[in.ID] = &cp
	return nil
}

func (f *fakeApp) GetIncome(_ context.Context, userID, id string) (*core.Income, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.incomes[id]
	if !ok || in.UserID != userID {
		return nil, core.Fail(core.KindNotFound, "income not found", nil)
	}
	cp := *in
	return &cp, nil
}

func (f *fakeApp) ListIncomes(_ context.Context, userID string) ([]core.Income, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []core.Income{}
	for _, in := range f.incomes {
		if in.UserID == userID {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (f *fakeApp) UpdateIncome(_ context.Context, in *core.Income) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *in
	f.incomes[in.ID] = &cp
	return nil
}

func (f *fakeApp) DeleteIncome(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.incomes[id]
	if !ok || in.UserID != userID {
		return core.Fail(core.KindNotFound, "income not found", nil)
	}
	delete(f.incomes, id)
	return nil
}

func (f *fakeApp) ListCategories(context.Context) ([]core.Category, error) {
	return f.cats, nil
}

func (f *fakeApp) ListByType(_ context.Context, t core.CategoryType) ([]core.Category, error) {
	out := []core.Category{}
	for _, c := range f.cats {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeApp) CreateCategory(_ context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return core.Fail(core.KindValidation, err.Error(), err)
	}
	c.ID = f.nextID("c")
	f.cats = append(f.cats, *c)
	return nil
}

func (f *fakeApp) DeleteCategory(_ context.Context, id string) error {
	for i, c := range f.cats {
		if c.ID != id {
			continue
		}
		if c.IsFallback() {
			return core.Fail(core.KindValidation, "the Other expense category cannot be deleted", nil)
		}
		f.cats = append(f.cats[:i], f.cats[i+1:]...)
		return nil
	}
	return core.Fail(core.KindNotFound, "category not found", nil)
}

func (f *fakeApp) ListRecommendations(_ context.Context, userID string) ([]core.Recommendation, error) {
	return f.recs, nil
}

func (f *fakeApp) Budget(_ context.Context, userID string, p core.Period) (core.Budget, error) {
	return core.Budget{Period: p, Income: 3000, Expenses: 1200.5, Savings: 1799.5}, nil
}

func (f *fakeApp) Ping(context.Context) error {
	return f.pingErr
}

var errBoom = errors.New("boom")
