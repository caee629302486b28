package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// ListByType returns the categories of one kind in insertion order.
func (r *SQLiteRepository) ListByType(ctx context.Context, t core.CategoryType) ([]core.Category, error) {
	return r.listCategories(ctx, `WHERE type = ?`, string(t))
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return r.listCategories(ctx, ``)
}

func (r *SQLiteRepository) listCategories(ctx context.Context, where string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type FROM categories `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("category")
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// CreateCategory inserts a category; names are unique within a type.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *core.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Fail(core.KindValidation, err.Error(), err)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, type) VALUES (?, ?, ?)`,
		c.ID, c.Name, string(c.Type))
	if isUniqueViolation(err) {
		return core.Fail(core.KindValidation, fmt.Sprintf("%s category %q already exists", c.Type, c.Name), nil)
	}
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. The Expense fallback and categories
// still referenced by expenses cannot be deleted.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	c, err := r.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c.IsFallback() {
		return core.Fail(core.KindValidation, "the Other expense category cannot be deleted", nil)
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return core.Fail(core.KindValidation, "category is used by existing expenses", nil)
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
