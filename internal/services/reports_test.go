package services

import (
	"context"
	"testing"
	"time"

	"despesas/internal/core"
	"despesas/internal/storage"
)

func seedExpense(t *testing.T, repo *storage.SQLiteRepository, date core.Date, cents int64, category string) {
	t.Helper()
	_, err := repo.CreateExpense(context.Background(), core.Expense{
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Description: "seed",
		Category:    category,
		Kind:        core.KindOneOff,
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
}

func seedIncome(t *testing.T, repo *storage.SQLiteRepository, date core.Date, cents int64) {
	t.Helper()
	_, err := repo.CreateIncome(context.Background(), core.Income{
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Description: "seed",
		Category:    "salary",
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
}

func fixedClock(year, month, day int) Clock {
	return ClockFunc(func() time.Time {
		return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	})
}

func TestReports_MonthlySummary(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 3, 15))
	ctx := context.Background()

	seedIncome(t, repo, core.NewDate(2024, 3, 1), 500000)
	seedExpense(t, repo, core.NewDate(2024, 3, 5), 120000, "rent")
	seedExpense(t, repo, core.NewDate(2024, 3, 10), 30000, "groceries")
	// Previous month baseline.
	seedIncome(t, repo, core.NewDate(2024, 2, 1), 400000)
	seedExpense(t, repo, core.NewDate(2024, 2, 5), 100000, "rent")

	summary, err := r.MonthlySummary(ctx, "2024-03")
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}

	if summary.TotalIncome.Cents != 500000 {
		t.Errorf("TotalIncome = %d, want 500000", summary.TotalIncome.Cents)
	}
	if summary.TotalExpense.Cents != 150000 {
		t.Errorf("TotalExpense = %d, want 150000", summary.TotalExpense.Cents)
	}
	if summary.Net.Cents != 350000 {
		t.Errorf("Net = %d, want 350000", summary.Net.Cents)
	}
	if summary.SavingsRate != 70.0 {
		t.Errorf("SavingsRate = %v, want 70.0", summary.SavingsRate)
	}
	if summary.PrevIncome.Cents != 400000 || summary.PrevExpense.Cents != 100000 {
		t.Errorf("prev figures = %d/%d, want 400000/100000",
			summary.PrevIncome.Cents, summary.PrevExpense.Cents)
	}
	if len(summary.ByCategory) != 2 || summary.ByCategory[0].Category != "rent" {
		t.Errorf("ByCategory = %+v, want rent first", summary.ByCategory)
	}
}

func TestReports_MonthlySummary_NoIncome(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 3, 15))

	seedExpense(t, repo, core.NewDate(2024, 3, 5), 10000, "groceries")

	summary, err := r.MonthlySummary(context.Background(), "2024-03")
	if err != nil {
		t.Fatalf("MonthlySummary() error = %v", err)
	}
	if summary.SavingsRate != 0 {
		t.Errorf("SavingsRate = %v with no income, want 0", summary.SavingsRate)
	}
}

func TestReports_BudgetStatus(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 3, 15))
	ctx := context.Background()

	for _, b := range []core.Budget{
		{Category: "groceries", Amount: core.Money{Cents: 40000}},
		{Category: "entertainment", Amount: core.Money{Cents: 10000}},
		{Category: "frozen", Amount: core.Money{Cents: 0}},
	} {
		if err := repo.UpsertBudget(ctx, b); err != nil {
			t.Fatalf("UpsertBudget() error = %v", err)
		}
	}

	seedExpense(t, repo, core.NewDate(2024, 3, 5), 20000, "groceries")
	seedExpense(t, repo, core.NewDate(2024, 3, 8), 15000, "entertainment") // 150% of budget
	seedExpense(t, repo, core.NewDate(2024, 3, 9), 500, "frozen")

	lines, err := r.BudgetStatus(ctx, "2024-03")
	if err != nil {
		t.Fatalf("BudgetStatus() error = %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}

	// Sorted by percentage used, capped at 100.
	if lines[0].Category != "entertainment" || lines[0].Pct != 100.0 {
		t.Errorf("lines[0] = %+v, want entertainment at 100%%", lines[0])
	}
	if lines[0].Remaining.Cents != -5000 {
		t.Errorf("entertainment remaining = %d, want -5000", lines[0].Remaining.Cents)
	}
	if lines[1].Category != "groceries" || lines[1].Pct != 50.0 {
		t.Errorf("lines[1] = %+v, want groceries at 50%%", lines[1])
	}
	// Zero budget never divides; pct stays 0.
	if lines[2].Category != "frozen" || lines[2].Pct != 0 {
		t.Errorf("lines[2] = %+v, want frozen at 0%%", lines[2])
	}
}

func TestReports_Trend(t *testing.T) {
	repo := newTestRepo(t)
	// Clock far ahead of the data; the trend must anchor on the data.
	r := NewReports(repo, fixedClock(2025, 8, 1))
	ctx := context.Background()

	seedExpense(t, repo, core.NewDate(2024, 1, 10), 10000, "groceries")
	seedExpense(t, repo, core.NewDate(2024, 3, 10), 30000, "groceries")
	seedIncome(t, repo, core.NewDate(2024, 3, 1), 50000)

	points, err := r.Trend(ctx, 3)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}

	wantMonths := []string{"2024-01", "2024-02", "2024-03"}
	for i, p := range points {
		if p.Month != wantMonths[i] {
			t.Errorf("points[%d].Month = %s, want %s", i, p.Month, wantMonths[i])
		}
	}
	if points[1].Expense.Cents != 0 || points[1].Income.Cents != 0 {
		t.Errorf("gap month not zero: %+v", points[1])
	}
	if points[2].Net.Cents != 20000 {
		t.Errorf("points[2].Net = %d, want 20000", points[2].Net.Cents)
	}
}

func TestReports_Trend_EmptyDatabaseUsesClock(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 6, 15))

	points, err := r.Trend(context.Background(), 2)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 2 || points[1].Month != "2024-06" {
		t.Errorf("points = %+v, want series ending 2024-06", points)
	}
}

func TestReports_SpendingSpikes(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 4, 15))
	ctx := context.Background()

	// groceries: steady 10000 for three months, then 20000. Spike.
	for m := 1; m <= 3; m++ {
		seedExpense(t, repo, core.NewDate(2024, m, 10), 10000, "groceries")
	}
	seedExpense(t, repo, core.NewDate(2024, 4, 10), 20000, "groceries")

	// rent: flat. No spike.
	for m := 1; m <= 4; m++ {
		seedExpense(t, repo, core.NewDate(2024, m, 1), 120000, "rent")
	}

	// travel: appears in one prior month only; the average covers months
	// with data, so 5000 -> 6000 stays under the 1.3x threshold.
	seedExpense(t, repo, core.NewDate(2024, 3, 20), 5000, "travel")
	seedExpense(t, repo, core.NewDate(2024, 4, 20), 6000, "travel")

	// new category with no history is never a spike.
	seedExpense(t, repo, core.NewDate(2024, 4, 25), 99999, "gadgets")

	spikes, err := r.SpendingSpikes(ctx, "2024-04")
	if err != nil {
		t.Fatalf("SpendingSpikes() error = %v", err)
	}
	if len(spikes) != 1 {
		t.Fatalf("spikes = %+v, want exactly one", spikes)
	}
	if spikes[0].Category != "groceries" {
		t.Errorf("spike category = %s, want groceries", spikes[0].Category)
	}
	if spikes[0].Current.Cents != 20000 || spikes[0].Average.Cents != 10000 {
		t.Errorf("spike = %+v, want current 20000 over average 10000", spikes[0])
	}
	if spikes[0].Delta.Cents != 10000 {
		t.Errorf("spike delta = %d, want 10000", spikes[0].Delta.Cents)
	}
}

func TestReports_SubscriptionReviewCandidates(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 3, 15))
	ctx := context.Background()

	createSubscription(t, repo, core.Subscription{
		Name:      "Cheap monthly",
		Amount:    core.Money{Cents: 500},
		Category:  "software",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 1),
		Active:    true,
	})
	createSubscription(t, repo, core.Subscription{
		Name:      "Yearly conference",
		Amount:    core.Money{Cents: 120000}, // 10000/month equivalent
		Category:  "work",
		Frequency: core.Yearly,
		StartDate: core.NewDate(2024, 1, 1),
		Active:    true,
	})
	inactive := createSubscription(t, repo, core.Subscription{
		Name:      "Cancelled",
		Amount:    core.Money{Cents: 99900},
		Category:  "misc",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2023, 1, 1),
		Active:    true,
	})
	if err := repo.DeactivateSubscription(ctx, inactive); err != nil {
		t.Fatalf("DeactivateSubscription() error = %v", err)
	}

	candidates, err := r.SubscriptionReviewCandidates(ctx, 100000)
	if err != nil {
		t.Fatalf("SubscriptionReviewCandidates() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2 (inactive excluded)", len(candidates))
	}
	if candidates[0].Subscription.Name != "Yearly conference" {
		t.Errorf("candidates[0] = %s, want the costliest monthly equivalent first", candidates[0].Subscription.Name)
	}
	if candidates[0].MonthlyEquivalent.Cents != 10000 {
		t.Errorf("monthly equivalent = %d, want 10000", candidates[0].MonthlyEquivalent.Cents)
	}
	if candidates[0].ShareOfSpend != 10.0 {
		t.Errorf("share of spend = %v, want 10.0", candidates[0].ShareOfSpend)
	}
}

func TestReports_SavingsOpportunities(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 3, 15))
	ctx := context.Background()

	seedIncome(t, repo, core.NewDate(2024, 3, 1), 100000)
	seedExpense(t, repo, core.NewDate(2024, 3, 5), 90000, "rent")

	if err := repo.UpsertBudget(ctx, core.Budget{Category: "rent", Amount: core.Money{Cents: 80000}}); err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}

	report, err := r.SavingsOpportunities(ctx, "2024-03", 20.0)
	if err != nil {
		t.Fatalf("SavingsOpportunities() error = %v", err)
	}

	// Net is 10000 on 100000 income: 10% against a 20% target leaves a
	// 10000 cent gap.
	if report.GapToTarget.Cents != 10000 {
		t.Errorf("GapToTarget = %d, want 10000", report.GapToTarget.Cents)
	}
	if len(report.OverBudget) != 1 || report.OverBudget[0].Excess.Cents != 10000 {
		t.Errorf("OverBudget = %+v, want rent over by 10000", report.OverBudget)
	}
}

func TestReports_SavingsOpportunities_TargetMet(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2024, 3, 15))

	seedIncome(t, repo, core.NewDate(2024, 3, 1), 100000)
	seedExpense(t, repo, core.NewDate(2024, 3, 5), 50000, "rent")

	report, err := r.SavingsOpportunities(context.Background(), "2024-03", 20.0)
	if err != nil {
		t.Fatalf("SavingsOpportunities() error = %v", err)
	}
	if report.GapToTarget.Cents != 0 {
		t.Errorf("GapToTarget = %d with target met, want 0", report.GapToTarget.Cents)
	}
}

func TestReports_DefaultMonth(t *testing.T) {
	repo := newTestRepo(t)
	r := NewReports(repo, fixedClock(2025, 1, 2))
	ctx := context.Background()

	month, err := r.DefaultMonth(ctx)
	if err != nil {
		t.Fatalf("DefaultMonth() error = %v", err)
	}
	if month != "2025-01" {
		t.Errorf("DefaultMonth() on empty db = %s, want clock month 2025-01", month)
	}

	seedExpense(t, repo, core.NewDate(2024, 7, 4), 1000, "misc")
	if month, err = r.DefaultMonth(ctx); err != nil {
		t.Fatalf("DefaultMonth() error = %v", err)
	}
	if month != "2024-07" {
		t.Errorf("DefaultMonth() = %s, want latest data month 2024-07", month)
	}
}
