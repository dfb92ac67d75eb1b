package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/storage"
)

// LedgerService orchestrates user-driven writes: one-off entries, incomes,
// subscriptions, installment plans, and budgets. It owns the rule that only
// one-off entries are editable; materialized entries change only through
// their parent.
type LedgerService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, events *amqp.Client) *LedgerService {
	return &LedgerService{
		storage: storage,
		events:  events,
	}
}

// CreateExpense records a one-off ledger entry and publishes a created
// event. Publishing is best-effort; the entry is durable either way.
func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	e.Kind = core.KindOneOff
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	s.publishEntryCreated(ctx, id)
	return id, nil
}

// UpdateExpense rewrites a one-off entry. Subscription and installment
// entries are immutable from here.
func (s *LedgerService) UpdateExpense(ctx context.Context, id int64, e core.Expense) error {
	if err := s.requireOneOff(ctx, id); err != nil {
		return err
	}
	e.ID = id
	e.Kind = core.KindOneOff
	if err := e.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateExpense(ctx, e)
}

// DeleteExpense removes a one-off entry.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.requireOneOff(ctx, id); err != nil {
		return err
	}
	return s.storage.DeleteExpense(ctx, id)
}

func (s *LedgerService) requireOneOff(ctx context.Context, id int64) error {
	existing, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if existing.Kind != core.KindOneOff {
		return fmt.Errorf("expense %d is %s: %w", id, existing.Kind, core.ErrEntryNotEditable)
	}
	return nil
}

func (s *LedgerService) CreateIncome(ctx context.Context, in core.Income) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateIncome(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("save income: %w", err)
	}
	return id, nil
}

// CreateSubscription registers a recurring definition. Frequency validation
// happens here, so the resolver only ever sees known cadences.
func (s *LedgerService) CreateSubscription(ctx context.Context, sub core.Subscription) (int64, error) {
	if err := sub.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, fmt.Errorf("save subscription: %w", err)
	}
	return id, nil
}

func (s *LedgerService) UpdateSubscription(ctx context.Context, id int64, sub core.Subscription) error {
	sub.ID = id
	if err := sub.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateSubscription(ctx, sub)
}

// DeleteSubscription hard-deletes when no charges exist; otherwise it
// surfaces ErrLinkedCharges so the caller can offer deactivation instead.
func (s *LedgerService) DeleteSubscription(ctx context.Context, id int64) error {
	err := s.storage.DeleteSubscription(ctx, id)
	if errors.Is(err, core.ErrLinkedCharges) {
		slog.InfoContext(ctx, "Refusing to delete subscription with charge history",
			"subscription_id", id)
	}
	return err
}

func (s *LedgerService) DeactivateSubscription(ctx context.Context, id int64) error {
	return s.storage.DeactivateSubscription(ctx, id)
}

// CreateInstallmentPlan registers a plan and eagerly materializes all of
// its entries. This is the one place installment entries are born; the
// monthly materializer never touches them.
func (s *LedgerService) CreateInstallmentPlan(ctx context.Context, plan core.InstallmentPlan) (int64, error) {
	if err := plan.Validate(); err != nil {
		return 0, err
	}

	entries, err := PlanEntries(plan)
	if err != nil {
		return 0, err
	}

	id, err := s.storage.CreateInstallmentPlan(ctx, plan, entries)
	if err != nil {
		return 0, fmt.Errorf("save installment plan: %w", err)
	}
	return id, nil
}

// SetBudget upserts the category's budget, last write wins.
func (s *LedgerService) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.storage.UpsertBudget(ctx, b)
}

// UpdateBudget changes an existing budget; unknown categories are a
// not-found, not an implicit create.
func (s *LedgerService) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateBudget(ctx, b)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, category string) error {
	return s.storage.DeleteBudget(ctx, category)
}

// ListExpenses returns the month's entries, newest first. A limit of zero
// means no limit.
func (s *LedgerService) ListExpenses(ctx context.Context, monthKey string, limit int) ([]core.Expense, error) {
	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	return s.storage.ListExpenses(ctx, month, limit)
}

func (s *LedgerService) ListRecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	return s.storage.ListRecentExpenses(ctx, limit)
}

func (s *LedgerService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.storage.GetExpense(ctx, id)
}

func (s *LedgerService) ListIncomes(ctx context.Context, monthKey string, limit int) ([]core.Income, error) {
	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}
	return s.storage.ListIncomes(ctx, month, limit)
}

func (s *LedgerService) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	return s.storage.ListSubscriptions(ctx)
}

func (s *LedgerService) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	return s.storage.GetSubscription(ctx, id)
}

func (s *LedgerService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]string, error) {
	return s.storage.ListCategories(ctx)
}

func (s *LedgerService) publishEntryCreated(ctx context.Context, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEntryCreated(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event", "id", id, "error", err)
	}
}
