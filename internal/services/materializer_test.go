package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"despesas/internal/core"
	"despesas/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createSubscription(t *testing.T, repo *storage.SQLiteRepository, sub core.Subscription) int64 {
	t.Helper()
	id, err := repo.CreateSubscription(context.Background(), sub)
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	return id
}

func TestMaterializer_Run(t *testing.T) {
	repo := newTestRepo(t)
	m := NewMaterializer(repo, nil)
	ctx := context.Background()

	createSubscription(t, repo, core.Subscription{
		Name:      "Netflix",
		Amount:    core.Money{Cents: 2990},
		Category:  "entertainment",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 1),
		Active:    true,
	})

	report, err := m.Run(ctx, "2024-01", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Eligible != 1 || report.Materialized != 1 || report.AlreadyCharged != 0 {
		t.Errorf("first run report = %+v, want 1 eligible, 1 materialized", report)
	}

	month := mustMonth(t, "2024-01")
	expenses, err := repo.ListExpenses(ctx, month, 0)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("len(expenses) = %d, want 1", len(expenses))
	}
	charge := expenses[0]
	if charge.Kind != core.KindSubscription {
		t.Errorf("charge kind = %s, want subscription", charge.Kind)
	}
	if charge.Date.ISO() != "2024-01-01" {
		t.Errorf("charge date = %s, want first of month", charge.Date.ISO())
	}
	if charge.Amount.Cents != 2990 {
		t.Errorf("charge amount = %d, want 2990", charge.Amount.Cents)
	}
	if charge.Description != "Subscription: Netflix" {
		t.Errorf("charge description = %q", charge.Description)
	}
}

func TestMaterializer_RunIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	m := NewMaterializer(repo, nil)
	ctx := context.Background()

	createSubscription(t, repo, core.Subscription{
		Name:      "Netflix",
		Amount:    core.Money{Cents: 2990},
		Category:  "entertainment",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 1),
		Active:    true,
	})

	if _, err := m.Run(ctx, "2024-01", false); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	report, err := m.Run(ctx, "2024-01", false)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.Materialized != 0 {
		t.Errorf("second run materialized = %d, want 0", report.Materialized)
	}
	if report.AlreadyCharged != report.Eligible {
		t.Errorf("second run already_charged = %d, want %d (all eligible)", report.AlreadyCharged, report.Eligible)
	}

	expenses, err := repo.ListExpenses(ctx, mustMonth(t, "2024-01"), 0)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 1 {
		t.Errorf("len(expenses) = %d after rerun, want 1", len(expenses))
	}

	// A different month charges again.
	report, err = m.Run(ctx, "2024-02", false)
	if err != nil {
		t.Fatalf("Run(2024-02) error = %v", err)
	}
	if report.Materialized != 1 {
		t.Errorf("new month materialized = %d, want 1", report.Materialized)
	}
}

func TestMaterializer_DryRun(t *testing.T) {
	repo := newTestRepo(t)
	m := NewMaterializer(repo, nil)
	ctx := context.Background()

	createSubscription(t, repo, core.Subscription{
		Name:      "Spotify",
		Amount:    core.Money{Cents: 999},
		Category:  "entertainment",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 1),
		Active:    true,
	})

	report, err := m.Run(ctx, "2024-01", true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.DryRun {
		t.Error("report.DryRun = false")
	}
	if report.Materialized != 1 {
		t.Errorf("dry run materialized count = %d, want 1", report.Materialized)
	}

	expenses, err := repo.ListExpenses(ctx, mustMonth(t, "2024-01"), 0)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("dry run wrote %d expenses, want 0", len(expenses))
	}
}

func TestMaterializer_SkipsInactiveAndOutOfRange(t *testing.T) {
	repo := newTestRepo(t)
	m := NewMaterializer(repo, nil)
	ctx := context.Background()

	inactiveID := createSubscription(t, repo, core.Subscription{
		Name:      "Old gym",
		Amount:    core.Money{Cents: 5000},
		Category:  "health",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2023, 1, 1),
		Active:    true,
	})
	if err := repo.DeactivateSubscription(ctx, inactiveID); err != nil {
		t.Fatalf("DeactivateSubscription() error = %v", err)
	}

	createSubscription(t, repo, core.Subscription{
		Name:      "Future service",
		Amount:    core.Money{Cents: 1500},
		Category:  "software",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 6, 1),
		Active:    true,
	})

	report, err := m.Run(ctx, "2024-01", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Eligible != 0 || report.Materialized != 0 {
		t.Errorf("report = %+v, want nothing eligible", report)
	}
}

func TestMaterializer_MixedFrequencies(t *testing.T) {
	repo := newTestRepo(t)
	m := NewMaterializer(repo, nil)
	ctx := context.Background()

	createSubscription(t, repo, core.Subscription{
		Name:      "Netflix",
		Amount:    core.Money{Cents: 2990},
		Category:  "entertainment",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2023, 1, 1),
		Active:    true,
	})
	createSubscription(t, repo, core.Subscription{
		Name:      "Domain renewal",
		Amount:    core.Money{Cents: 1200},
		Category:  "software",
		Frequency: core.Yearly,
		StartDate: core.NewDate(2023, 3, 15),
		Active:    true,
	})

	// January: only the monthly one is due.
	report, err := m.Run(ctx, "2024-01", false)
	if err != nil {
		t.Fatalf("Run(2024-01) error = %v", err)
	}
	if report.Eligible != 1 || report.Materialized != 1 {
		t.Errorf("January report = %+v, want 1 eligible", report)
	}

	// March: the yearly anniversary joins in.
	report, err = m.Run(ctx, "2024-03", false)
	if err != nil {
		t.Fatalf("Run(2024-03) error = %v", err)
	}
	if report.Eligible != 2 || report.Materialized != 2 {
		t.Errorf("March report = %+v, want 2 eligible", report)
	}
}

func TestMaterializer_InvalidMonthKey(t *testing.T) {
	repo := newTestRepo(t)
	m := NewMaterializer(repo, nil)

	for _, key := range []string{"2024-13", "2024", "03-2024", "not-a-month"} {
		if _, err := m.Run(context.Background(), key, false); !errors.Is(err, core.ErrInvalidMonthKey) {
			t.Errorf("Run(%q) error = %v, want ErrInvalidMonthKey", key, err)
		}
	}
}
