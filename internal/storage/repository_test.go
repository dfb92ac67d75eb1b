package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"despesas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testSubscription() core.Subscription {
	return core.Subscription{
		Name:      "Netflix",
		Amount:    core.Money{Cents: 2990},
		Category:  "entertainment",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 1),
		Active:    true,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	// Reopening runs migrations against an up-to-date schema.
	repo, err = NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	repo.Close()
}

func TestExpenseCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateExpense(ctx, core.Expense{
		Date:        core.NewDate(2024, 3, 5),
		Amount:      core.Money{Cents: 1250},
		Description: "Coffee beans",
		Category:    "groceries",
		Kind:        core.KindOneOff,
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	got, err := repo.GetExpense(ctx, id)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if got.Description != "Coffee beans" || got.Amount.Cents != 1250 || got.Kind != core.KindOneOff {
		t.Errorf("GetExpense() = %+v", got)
	}

	got.Description = "Specialty coffee beans"
	if err := repo.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	updated, err := repo.GetExpense(ctx, id)
	if err != nil {
		t.Fatalf("GetExpense() after update error = %v", err)
	}
	if updated.Description != "Specialty coffee beans" {
		t.Errorf("description not updated: %q", updated.Description)
	}

	if err := repo.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if _, err := repo.GetExpense(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetExpense() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteExpense(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteExpense() error = %v, want ErrNotFound", err)
	}
}

func TestBudgetUpsertLastWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertBudget(ctx, core.Budget{Category: "groceries", Amount: core.Money{Cents: 30000}}); err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}
	if err := repo.UpsertBudget(ctx, core.Budget{Category: "groceries", Amount: core.Money{Cents: 45000}}); err != nil {
		t.Fatalf("second UpsertBudget() error = %v", err)
	}

	budgets, err := repo.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("len(budgets) = %d, want 1", len(budgets))
	}
	if budgets[0].Amount.Cents != 45000 {
		t.Errorf("budget amount = %d, want the later write 45000", budgets[0].Amount.Cents)
	}
}

func TestBudgetUpdateAndDeleteUnknownCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.UpdateBudget(ctx, core.Budget{Category: "nope", Amount: core.Money{Cents: 100}})
	if !errors.Is(err, core.ErrBudgetNotFound) {
		t.Errorf("UpdateBudget() error = %v, want ErrBudgetNotFound", err)
	}
	if err := repo.DeleteBudget(ctx, "nope"); !errors.Is(err, core.ErrBudgetNotFound) {
		t.Errorf("DeleteBudget() error = %v, want ErrBudgetNotFound", err)
	}
}

func TestCreateCharge_DuplicateMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub := testSubscription()
	id, err := repo.CreateSubscription(ctx, sub)
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	sub.ID = id

	chargeDate := core.NewDate(2024, 3, 1)
	if _, err := repo.CreateCharge(ctx, sub, "2024-03", chargeDate); err != nil {
		t.Fatalf("first CreateCharge() error = %v", err)
	}

	_, err = repo.CreateCharge(ctx, sub, "2024-03", chargeDate)
	if !errors.Is(err, core.ErrDuplicateCharge) {
		t.Errorf("second CreateCharge() error = %v, want ErrDuplicateCharge", err)
	}

	// The failed attempt must not leave a stray ledger entry behind.
	month, err := core.ParseMonth("2024-03")
	if err != nil {
		t.Fatalf("ParseMonth() error = %v", err)
	}
	expenses, err := repo.ListExpenses(ctx, month, 0)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("len(expenses) = %d after duplicate charge, want 1", len(expenses))
	}

	charged, err := repo.HasCharge(ctx, sub.ID, "2024-03")
	if err != nil {
		t.Fatalf("HasCharge() error = %v", err)
	}
	if !charged {
		t.Error("HasCharge() = false after charging")
	}
}

func TestDeleteSubscriptionWithChargesIsRefused(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub := testSubscription()
	id, err := repo.CreateSubscription(ctx, sub)
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	sub.ID = id

	if _, err := repo.CreateCharge(ctx, sub, "2024-03", core.NewDate(2024, 3, 1)); err != nil {
		t.Fatalf("CreateCharge() error = %v", err)
	}

	if err := repo.DeleteSubscription(ctx, id); !errors.Is(err, core.ErrLinkedCharges) {
		t.Errorf("DeleteSubscription() error = %v, want ErrLinkedCharges", err)
	}

	// Deactivation is the supported path for a subscription with history.
	if err := repo.DeactivateSubscription(ctx, id); err != nil {
		t.Fatalf("DeactivateSubscription() error = %v", err)
	}
	subs, err := repo.ListActiveSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListActiveSubscriptions() error = %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("active subscriptions = %d after deactivation, want 0", len(subs))
	}
}

func TestDeleteChargeExpenseCascadesMarker(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sub := testSubscription()
	id, err := repo.CreateSubscription(ctx, sub)
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	sub.ID = id

	expenseID, err := repo.CreateCharge(ctx, sub, "2024-03", core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("CreateCharge() error = %v", err)
	}

	// Removing the ledger entry drops the marker with it, so the month can
	// be rematerialized.
	if err := repo.DeleteExpense(ctx, expenseID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}

	charged, err := repo.HasCharge(ctx, sub.ID, "2024-03")
	if err != nil {
		t.Fatalf("HasCharge() error = %v", err)
	}
	if charged {
		t.Error("HasCharge() = true after the charge entry was deleted")
	}

	if _, err := repo.CreateCharge(ctx, sub, "2024-03", core.NewDate(2024, 3, 1)); err != nil {
		t.Errorf("rematerializing after delete error = %v", err)
	}
}

func TestDeleteSubscriptionWithoutCharges(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateSubscription(ctx, testSubscription())
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}

	if err := repo.DeleteSubscription(ctx, id); err != nil {
		t.Fatalf("DeleteSubscription() error = %v", err)
	}
	if _, err := repo.GetSubscription(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetSubscription() after delete error = %v, want ErrNotFound", err)
	}
}

func TestInstallmentPlanWritesAllEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	plan := core.InstallmentPlan{
		Description: "Sofa",
		Category:    "furniture",
		TotalAmount: core.Money{Cents: 90000},
		Count:       3,
		StartDate:   core.NewDate(2024, 1, 15),
	}
	entries := []core.Expense{
		{Date: core.NewDate(2024, 1, 15), Amount: core.Money{Cents: 30000}, Description: "Sofa", Category: "furniture", Kind: core.KindInstallment, InstallmentNumber: 1, InstallmentTotal: 3},
		{Date: core.NewDate(2024, 2, 15), Amount: core.Money{Cents: 30000}, Description: "Sofa", Category: "furniture", Kind: core.KindInstallment, InstallmentNumber: 2, InstallmentTotal: 3},
		{Date: core.NewDate(2024, 3, 15), Amount: core.Money{Cents: 30000}, Description: "Sofa", Category: "furniture", Kind: core.KindInstallment, InstallmentNumber: 3, InstallmentTotal: 3},
	}

	if _, err := repo.CreateInstallmentPlan(ctx, plan, entries); err != nil {
		t.Fatalf("CreateInstallmentPlan() error = %v", err)
	}

	for i, monthKey := range []string{"2024-01", "2024-02", "2024-03"} {
		month, err := core.ParseMonth(monthKey)
		if err != nil {
			t.Fatalf("ParseMonth() error = %v", err)
		}
		expenses, err := repo.ListExpenses(ctx, month, 0)
		if err != nil {
			t.Fatalf("ListExpenses(%s) error = %v", monthKey, err)
		}
		if len(expenses) != 1 {
			t.Fatalf("month %s has %d entries, want 1", monthKey, len(expenses))
		}
		e := expenses[0]
		if e.Kind != core.KindInstallment || e.InstallmentNumber != i+1 || e.InstallmentID == 0 {
			t.Errorf("month %s entry = %+v", monthKey, e)
		}
	}
}

func TestLatestDataMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	latest, err := repo.LatestDataMonth(ctx)
	if err != nil {
		t.Fatalf("LatestDataMonth() error = %v", err)
	}
	if latest != "" {
		t.Errorf("LatestDataMonth() on empty db = %q, want empty", latest)
	}

	if _, err := repo.CreateExpense(ctx, core.Expense{
		Date:        core.NewDate(2024, 2, 10),
		Amount:      core.Money{Cents: 100},
		Description: "x",
		Category:    "misc",
		Kind:        core.KindOneOff,
	}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if _, err := repo.CreateIncome(ctx, core.Income{
		Date:        core.NewDate(2024, 5, 1),
		Amount:      core.Money{Cents: 100},
		Description: "x",
		Category:    "salary",
	}); err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}

	if latest, err = repo.LatestDataMonth(ctx); err != nil {
		t.Fatalf("LatestDataMonth() error = %v", err)
	}
	if latest != "2024-05" {
		t.Errorf("LatestDataMonth() = %q, want 2024-05 (income counts)", latest)
	}
}
