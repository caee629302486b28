package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		UserID:      "u1",
		Amount:      12.5,
		Description: "ok",
		Date:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CategoryID:  "c1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*Expense)
		want   error
	}{
		{func(e *Expense) { e.UserID = "" }, ErrMissingUser},
		{func(e *Expense) { e.Amount = 0 }, ErrInvalidAmount},
		{func(e *Expense) { e.Description = "  " }, ErrEmptyDescription},
		{func(e *Expense) { e.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{func(e *Expense) { e.Date = time.Time{} }, ErrMissingDate},
		{func(e *Expense) { e.CategoryID = "" }, ErrMissingCategory},
	}
	for i, tc := range cases {
		e := good
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestIncomeValidate(t *testing.T) {
	in := Income{UserID: "u1", Amount: 100, Date: time.Now()}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	in.Amount = -1
	if err := in.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseCategoryType(t *testing.T) {
	cases := []struct {
		in   string
		want CategoryType
		ok   bool
	}{
		{"Income", CategoryIncome, true},
		{"expense", CategoryExpense, true},
		{" EXPENSE ", CategoryExpense, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCategoryType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestCategoryIsFallback(t *testing.T) {
	if !(Category{Name: "Other", Type: CategoryExpense}).IsFallback() {
		t.Fatal("Other/Expense should be the fallback")
	}
	if (Category{Name: "other", Type: CategoryExpense}).IsFallback() {
		t.Fatal("fallback match is case-sensitive")
	}
	if (Category{Name: "Other", Type: CategoryIncome}).IsFallback() {
		t.Fatal("Income categories are never the fallback")
	}
}
