package storage

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
)

//go:embed categories.yaml
var defaultSeed []byte

// Seed lists the category names inserted on startup.
type Seed struct {
	Expense []string `yaml:"expense"`
	Income  []string `yaml:"income"`
}

// LoadSeed reads the seed from path, or the embedded default when path is
// empty. The Expense fallback entry is always present in the result.
func LoadSeed(path string) (Seed, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Seed{}, fmt.Errorf("read category seed: %w", err)
		}
		data = b
	}

	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse category seed: %w", err)
	}

	hasFallback := false
	for _, name := range s.Expense {
		if name == core.FallbackCategoryName {
			hasFallback = true
			break
		}
	}
	if !hasFallback {
		s.Expense = append(s.Expense, core.FallbackCategoryName)
	}
	return s, nil
}

// SeedCategories inserts the seed entries that do not exist yet. Existing
// categories are left untouched.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, s Seed) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	insert := func(t core.CategoryType, names []string) error {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO categories (id, name, type) VALUES (?, ?, ?)`,
				uuid.NewString(), name, string(t))
			if err != nil {
				return fmt.Errorf("seed category %s/%s: %w", t, name, err)
			}
		}
		return nil
	}

	if err := insert(core.CategoryExpense, s.Expense); err != nil {
		return err
	}
	if err := insert(core.CategoryIncome, s.Income); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
