package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryIncome  CategoryType = "Income"
	CategoryExpense CategoryType = "Expense"
)

// FallbackCategoryName is the Expense category every unmatched label resolves to.
const FallbackCategoryName = "Other"

// DefaultScanDescription is used when no summary could be generated for a scan.
const DefaultScanDescription = "Scanned Bill"

const (
	SourceManual = "manual"
	SourceScan   = "scan"
)

type (
	CategoryType string

	Category struct {
		ID   string       `json:"id"`
		Name string       `json:"name"`
		Type CategoryType `json:"type"`
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// LineItem is one entry extracted from a receipt. It only lives for the
	// duration of a scan and is folded into a BillDetail.
	LineItem struct {
		Amount      float64
		Description string
		Category    string
		Quantity    int
	}

	BillDetail struct {
		Description string  `json:"description"`
		Quantity    int     `json:"quantity"`
		Price       float64 `json:"price"`
	}

	Expense struct {
		ID          string       `json:"id"`
		UserID      string       `json:"user"`
		Amount      float64      `json:"amount"`
		Description string       `json:"description"`
		Date        time.Time    `json:"date"`
		CategoryID  string       `json:"category"`
		Source      string       `json:"source,omitempty"`
		BillDetails []BillDetail `json:"billDetails"`
	}

	Income struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		CategoryID  string    `json:"category,omitempty"`
	}

	Suggestion struct {
		Category string `json:"category"`
		Advice   string `json:"advice"`
	}

	Recommendation struct {
		ID          string       `json:"id"`
		UserID      string       `json:"user"`
		Suggestions []Suggestion `json:"suggestions"`
		Date        time.Time    `json:"date"`
	}

	// Budget is the income/expense balance of one user over a period.
	Budget struct {
		Period   Period  `json:"period"`
		Income   float64 `json:"income"`
		Expenses float64 `json:"expenses"`
		Savings  float64 `json:"savings"`
	}
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrEmptyDescription   = errors.New("empty description")
	ErrMissingDate        = errors.New("date cannot be zero")
	ErrMissingCategory    = errors.New("category is required")
	ErrMissingUser        = errors.New("user is required")
	ErrInvalidCategory    = errors.New("category type must be Income or Expense")
	ErrEmptyCategoryName  = errors.New("empty category name")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// ParseCategoryType accepts "income"/"expense" in any case.
func ParseCategoryType(s string) (CategoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return CategoryIncome, nil
	case "expense":
		return CategoryExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if !c.Type.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// IsFallback reports whether c is the mandatory Expense fallback entry.
func (c Category) IsFallback() bool {
	return c.Type == CategoryExpense && c.Name == FallbackCategoryName
}

// Validate checks a manually entered expense. Scanned expenses may carry a
// zero amount when every extracted line item was rejected, so the scan path
// does not call it.
func (e Expense) Validate() error {
	if e.UserID == "" {
		return ErrMissingUser
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrMissingCategory
	}
	return nil
}

func (i Income) Validate() error {
	if i.UserID == "" {
		return ErrMissingUser
	}
	if i.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(i.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if i.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}
