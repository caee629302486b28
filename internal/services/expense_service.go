// Package services coordinates persistence with event publication.
package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

// ExpenseStore is the persistence ExpenseService writes through.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *core.Expense) error
	GetExpense(ctx context.Context, userID, id string) (*core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
}

// EventPublisher announces expense changes. A nil publisher disables events.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, id, userID string) error
	PublishExpenseDeleted(ctx context.Context, id, userID string) error
	Close() error
}

var _ EventPublisher = (*amqp.Client)(nil)

// ExpenseService saves expenses locally and then publishes an event. The
// write is the source of truth, so publish failures are only logged.
type ExpenseService struct {
	store   ExpenseStore
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewExpenseService(store ExpenseStore, events EventPublisher, m *metrics.Metrics, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		store:   store,
		events:  events,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentExpense),
	}
}

// CreateExpense persists e (assigning its ID) and publishes expense.created.
func (s *ExpenseService) CreateExpense(ctx context.Context, e *core.Expense) error {
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return fmt.Errorf("save expense: %w", err)
	}

	if s.events == nil {
		return nil
	}
	err := s.events.PublishExpenseCreated(ctx, e.ID, e.UserID)
	s.metrics.EventPublished(amqp.EventExpenseCreated, err == nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldExpenseID, e.ID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, userID, id string) (*core.Expense, error) {
	return s.store.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, e *core.Expense) error {
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes the user's expense and publishes expense.deleted.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if s.events == nil {
		return nil
	}
	err := s.events.PublishExpenseDeleted(ctx, id, userID)
	s.metrics.EventPublished(amqp.EventExpenseDeleted, err == nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldExpenseID, id,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
	return nil
}

// Close releases the event publisher. The store is owned by the caller.
func (s *ExpenseService) Close() error {
	if s.events == nil {
		return nil
	}
	if err := s.events.Close(); err != nil {
		return fmt.Errorf("close event publisher: %w", err)
	}
	return nil
}
