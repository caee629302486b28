// Package worker consumes expense events and mirrors them to an external
// ledger.
package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/sheets"
)

// ExpenseReader loads an expense by id; an empty user id skips the
// ownership check.
type ExpenseReader interface {
	GetExpense(ctx context.Context, userID, id string) (*core.Expense, error)
}

type CategoryReader interface {
	GetCategory(ctx context.Context, id string) (*core.Category, error)
}

// ExportWorker appends every created expense to the configured exporter.
type ExportWorker struct {
	expenses   ExpenseReader
	categories CategoryReader
	exporter   sheets.ExpenseExporter
	metrics    *metrics.Metrics
	logger     *log.Logger
}

func NewExportWorker(expenses ExpenseReader, categories CategoryReader, exporter sheets.ExpenseExporter, m *metrics.Metrics, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		expenses:   expenses,
		categories: categories,
		exporter:   exporter,
		metrics:    m,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent satisfies amqp.Handler. Returning an error requeues the
// message, so permanent conditions are logged and acknowledged instead.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	switch ev.Type {
	case amqp.EventExpenseCreated:
		return w.exportCreated(ctx, ev)
	case amqp.EventExpenseDeleted:
		w.logger.InfoContext(ctx, "Expense deleted, ledger rows are append-only",
			log.FieldExpenseID, ev.ID,
			log.FieldUserID, ev.UserID)
		return nil
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event type", "type", ev.Type, log.FieldExpenseID, ev.ID)
		return nil
	}
}

func (w *ExportWorker) exportCreated(ctx context.Context, ev *amqp.ExpenseEvent) error {
	exp, err := w.expenses.GetExpense(ctx, "", ev.ID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Expense no longer exists, skipping export", log.FieldExpenseID, ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load expense %s: %w", ev.ID, err)
	}

	row := sheets.ExpenseRow{
		ID:          exp.ID,
		UserID:      exp.UserID,
		Date:        exp.Date,
		Description: exp.Description,
		Amount:      exp.Amount,
		Category:    w.categoryName(ctx, exp.CategoryID),
		Items:       len(exp.BillDetails),
		Source:      exp.Source,
	}

	ref, err := w.exporter.Export(ctx, row)
	w.metrics.EventPublished("export", err == nil)
	if err != nil {
		return fmt.Errorf("export expense %s: %w", ev.ID, err)
	}

	w.logger.InfoContext(ctx, "Expense exported",
		log.FieldExpenseID, exp.ID,
		log.FieldAmount, exp.Amount,
		"ref", ref)
	return nil
}

func (w *ExportWorker) categoryName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	c, err := w.categories.GetCategory(ctx, id)
	if err != nil {
		w.logger.WarnContext(ctx, "Category lookup failed", log.FieldCategory, id, log.FieldError, err)
		return id
	}
	return c.Name
}
