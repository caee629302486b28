package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

type fakeStore struct {
	created []*core.Expense
	deleted []string
	err     error
}

func (f *fakeStore) CreateExpense(_ context.Context, e *core.Expense) error {
	if f.err != nil {
		return f.err
	}
	e.ID = "exp-1"
	f.created = append(f.created, e)
	return nil
}

func (f *fakeStore) GetExpense(_ context.Context, _, id string) (*core.Expense, error) {
	for _, e := range f.created {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) UpdateExpense(context.Context, *core.Expense) error { return f.err }

func (f *fakeStore) DeleteExpense(_ context.Context, _, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	created, deleted []string
	err              error
	closed           bool
}

func (f *fakePublisher) PublishExpenseCreated(_ context.Context, id, _ string) error {
	f.created = append(f.created, id)
	return f.err
}

func (f *fakePublisher) PublishExpenseDeleted(_ context.Context, id, _ string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func newExpense() *core.Expense {
	return &core.Expense{UserID: "user-1", Amount: 3, Description: "Coffee", Date: time.Now(), CategoryID: "cat-1"}
}

func TestCreateExpensePublishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewExpenseService(store, pub, nil, nil)

	e := newExpense()
	if err := svc.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if e.ID != "exp-1" || len(pub.created) != 1 || pub.created[0] != "exp-1" {
		t.Errorf("expected one event for exp-1, got %v", pub.created)
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewExpenseService(store, pub, nil, nil)

	if err := svc.CreateExpense(context.Background(), newExpense()); err != nil {
		t.Fatalf("CreateExpense should succeed when publish fails: %v", err)
	}
	if err := svc.DeleteExpense(context.Background(), "user-1", "exp-1"); err != nil {
		t.Fatalf("DeleteExpense should succeed when publish fails: %v", err)
	}
	if len(store.created) != 1 || len(store.deleted) != 1 {
		t.Error("store writes should have happened")
	}
}

func TestStoreFailureSkipsPublish(t *testing.T) {
	storeErr := errors.New("disk full")
	pub := &fakePublisher{}
	svc := NewExpenseService(&fakeStore{err: storeErr}, pub, nil, nil)

	if err := svc.CreateExpense(context.Background(), newExpense()); !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want store error", err)
	}
	if err := svc.DeleteExpense(context.Background(), "user-1", "x"); !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want store error", err)
	}
	if len(pub.created)+len(pub.deleted) != 0 {
		t.Error("no event may be published when the write fails")
	}
}

func TestNilPublisher(t *testing.T) {
	svc := NewExpenseService(&fakeStore{}, nil, nil, nil)
	if err := svc.CreateExpense(context.Background(), newExpense()); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestClose(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewExpenseService(&fakeStore{}, pub, nil, nil)
	if err := svc.Close(); err != nil || !pub.closed {
		t.Fatalf("Close: %v, closed=%v", err, pub.closed)
	}
}
