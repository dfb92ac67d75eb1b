package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"despesas/internal/core"
	"despesas/internal/storage"
)

// spikeFactor flags a category when the month's spend exceeds the trailing
// average by more than 30%.
const (
	spikeFactor    = 1.3
	spikeLookback  = 3
	reviewTopCount = 5
)

// Summary is the month's income/expense snapshot.
type Summary struct {
	Month        string
	TotalIncome  core.Money
	TotalExpense core.Money
	Net          core.Money
	SavingsRate  float64 // percent; 0 when there is no income
	PrevIncome   core.Money
	PrevExpense  core.Money
	ByCategory   []core.CategoryAmount
}

// BudgetLine is one category's budget-versus-actual row.
type BudgetLine struct {
	Category  string
	Budgeted  core.Money
	Spent     core.Money
	Remaining core.Money
	Pct       float64 // spend as percent of budget, capped at 100
}

// TrendPoint is one month in a spending trend series.
type TrendPoint struct {
	Month   string
	Income  core.Money
	Expense core.Money
	Net     core.Money
}

// Spike marks a category spending well above its trailing average.
type Spike struct {
	Category string
	Current  core.Money
	Average  core.Money
	Delta    core.Money
}

// ReviewCandidate ranks an active subscription by normalized monthly cost.
type ReviewCandidate struct {
	Subscription      core.Subscription
	MonthlyEquivalent core.Money
	ShareOfSpend      float64 // percent of the reference month's spend
}

// OverBudget is a category that blew past its budget.
type OverBudget struct {
	Category string
	Budgeted core.Money
	Spent    core.Money
	Excess   core.Money
}

// SavingsReport bundles the month snapshot with everything actionable:
// distance to the target savings rate, over-budget categories, the
// costliest subscriptions, and category spikes.
type SavingsReport struct {
	Summary     Summary
	TargetRate  float64
	GapToTarget core.Money // extra net needed to hit the target; 0 when met
	OverBudget  []OverBudget
	Review      []ReviewCandidate
	Spikes      []Spike
}

// Reports answers the read-only queries. It never writes; budget
// reconciliation reads the ledger independently of materialization.
type Reports struct {
	storage *storage.SQLiteRepository
	clock   Clock
}

func NewReports(storage *storage.SQLiteRepository, clock Clock) *Reports {
	return &Reports{
		storage: storage,
		clock:   clock,
	}
}

// MonthlySummary sums the month's ledger and income, with the previous
// month alongside for deltas. The savings rate is defined as zero when
// there is no income.
func (r *Reports) MonthlySummary(ctx context.Context, monthKey string) (Summary, error) {
	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Month: monthKey}
	if s.TotalExpense.Cents, err = r.storage.SumExpenses(ctx, month); err != nil {
		return Summary{}, err
	}
	if s.TotalIncome.Cents, err = r.storage.SumIncomes(ctx, month); err != nil {
		return Summary{}, err
	}
	s.Net.Cents = s.TotalIncome.Cents - s.TotalExpense.Cents
	if s.TotalIncome.Cents > 0 {
		s.SavingsRate = round1(s.Net.Dollars() / s.TotalIncome.Dollars() * 100.0)
	}

	if s.ByCategory, err = r.storage.CategoryTotals(ctx, month); err != nil {
		return Summary{}, err
	}

	prevKey := core.ShiftMonth(month.Start, -1).MonthKey()
	prev, err := core.ParseMonth(prevKey)
	if err != nil {
		return Summary{}, err
	}
	if s.PrevExpense.Cents, err = r.storage.SumExpenses(ctx, prev); err != nil {
		return Summary{}, err
	}
	if s.PrevIncome.Cents, err = r.storage.SumIncomes(ctx, prev); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// BudgetStatus compares every budgeted category against the month's actual
// spend, categories closest to (or over) their budget first.
func (r *Reports) BudgetStatus(ctx context.Context, monthKey string) ([]BudgetLine, error) {
	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}

	budgets, err := r.storage.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	actual, err := r.categoryMap(ctx, month)
	if err != nil {
		return nil, err
	}

	lines := make([]BudgetLine, 0, len(budgets))
	for _, b := range budgets {
		spent := actual[b.Category]
		line := BudgetLine{
			Category:  b.Category,
			Budgeted:  b.Amount,
			Spent:     core.Money{Cents: spent},
			Remaining: core.Money{Cents: b.Amount.Cents - spent},
		}
		if b.Amount.Cents > 0 {
			line.Pct = round1(math.Min(float64(spent)/float64(b.Amount.Cents)*100.0, 100.0))
		}
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Pct > lines[j].Pct })
	return lines, nil
}

// Trend produces count consecutive monthly summaries, oldest first, ending
// at the most recent month with any data rather than the calendar today.
func (r *Reports) Trend(ctx context.Context, count int) ([]TrendPoint, error) {
	if count <= 0 {
		return nil, fmt.Errorf("trend: %w", core.ErrInvalidCount)
	}

	anchorKey, err := r.anchorMonth(ctx)
	if err != nil {
		return nil, err
	}
	anchor, err := core.ParseMonth(anchorKey)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, count)
	for i := count - 1; i >= 0; i-- {
		start := core.ShiftMonth(anchor.Start, -i)
		month, err := core.ParseMonth(start.MonthKey())
		if err != nil {
			return nil, err
		}

		p := TrendPoint{Month: start.MonthKey()}
		if p.Expense.Cents, err = r.storage.SumExpenses(ctx, month); err != nil {
			return nil, err
		}
		if p.Income.Cents, err = r.storage.SumIncomes(ctx, month); err != nil {
			return nil, err
		}
		p.Net.Cents = p.Income.Cents - p.Expense.Cents
		points = append(points, p)
	}
	return points, nil
}

// SpendingSpikes flags categories whose spend in the month exceeds their
// trailing three-month average by more than 30%, biggest jump first. The
// average covers the months a category actually appeared in.
func (r *Reports) SpendingSpikes(ctx context.Context, monthKey string) ([]Spike, error) {
	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return nil, err
	}

	current, err := r.categoryMap(ctx, month)
	if err != nil {
		return nil, err
	}

	history := make(map[string][]int64)
	for i := 1; i <= spikeLookback; i++ {
		prevKey := core.ShiftMonth(month.Start, -i).MonthKey()
		prev, err := core.ParseMonth(prevKey)
		if err != nil {
			return nil, err
		}
		totals, err := r.storage.CategoryTotals(ctx, prev)
		if err != nil {
			return nil, err
		}
		for _, ca := range totals {
			history[ca.Category] = append(history[ca.Category], ca.Amount.Cents)
		}
	}

	var spikes []Spike
	for category, cents := range current {
		hist := history[category]
		if len(hist) == 0 {
			continue
		}
		var sum int64
		for _, h := range hist {
			sum += h
		}
		avg := float64(sum) / float64(len(hist))
		if avg <= 0 {
			continue
		}
		if float64(cents) > avg*spikeFactor {
			avgCents := int64(math.Round(avg))
			spikes = append(spikes, Spike{
				Category: category,
				Current:  core.Money{Cents: cents},
				Average:  core.Money{Cents: avgCents},
				Delta:    core.Money{Cents: cents - avgCents},
			})
		}
	}
	sort.Slice(spikes, func(i, j int) bool {
		if spikes[i].Delta.Cents != spikes[j].Delta.Cents {
			return spikes[i].Delta.Cents > spikes[j].Delta.Cents
		}
		return spikes[i].Category < spikes[j].Category
	})
	return spikes, nil
}

// SubscriptionReviewCandidates ranks active subscriptions by normalized
// monthly cost, priciest first. spentCents, when positive, yields each
// candidate's share of that month's spend.
func (r *Reports) SubscriptionReviewCandidates(ctx context.Context, spentCents int64) ([]ReviewCandidate, error) {
	subs, err := r.storage.ListActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]ReviewCandidate, 0, len(subs))
	for _, sub := range subs {
		c := ReviewCandidate{
			Subscription:      sub,
			MonthlyEquivalent: core.Money{Cents: sub.MonthlyEquivalentCents()},
		}
		if spentCents > 0 {
			c.ShareOfSpend = round1(float64(c.MonthlyEquivalent.Cents) / float64(spentCents) * 100.0)
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MonthlyEquivalent.Cents > candidates[j].MonthlyEquivalent.Cents
	})
	return candidates, nil
}

// SavingsOpportunities builds the full savings picture for a month against
// a target savings rate (percent).
func (r *Reports) SavingsOpportunities(ctx context.Context, monthKey string, targetRate float64) (SavingsReport, error) {
	summary, err := r.MonthlySummary(ctx, monthKey)
	if err != nil {
		return SavingsReport{}, err
	}

	report := SavingsReport{Summary: summary, TargetRate: targetRate}

	if summary.TotalIncome.Cents > 0 && summary.SavingsRate < targetRate {
		target := float64(summary.TotalIncome.Cents) * targetRate / 100.0
		gap := target - float64(summary.Net.Cents)
		if gap > 0 {
			report.GapToTarget = core.Money{Cents: int64(math.Round(gap))}
		}
	}

	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return SavingsReport{}, err
	}
	budgets, err := r.storage.ListBudgets(ctx)
	if err != nil {
		return SavingsReport{}, err
	}
	actual, err := r.categoryMap(ctx, month)
	if err != nil {
		return SavingsReport{}, err
	}
	for _, b := range budgets {
		spent := actual[b.Category]
		if spent > b.Amount.Cents {
			report.OverBudget = append(report.OverBudget, OverBudget{
				Category: b.Category,
				Budgeted: b.Amount,
				Spent:    core.Money{Cents: spent},
				Excess:   core.Money{Cents: spent - b.Amount.Cents},
			})
		}
	}
	sort.Slice(report.OverBudget, func(i, j int) bool {
		return report.OverBudget[i].Excess.Cents > report.OverBudget[j].Excess.Cents
	})

	review, err := r.SubscriptionReviewCandidates(ctx, summary.TotalExpense.Cents)
	if err != nil {
		return SavingsReport{}, err
	}
	if len(review) > reviewTopCount {
		review = review[:reviewTopCount]
	}
	report.Review = review

	if report.Spikes, err = r.SpendingSpikes(ctx, monthKey); err != nil {
		return SavingsReport{}, err
	}
	return report, nil
}

// DefaultMonth is the month reports should open on: the latest month with
// data, or the clock's current month for an empty database.
func (r *Reports) DefaultMonth(ctx context.Context) (string, error) {
	return r.anchorMonth(ctx)
}

func (r *Reports) anchorMonth(ctx context.Context) (string, error) {
	latest, err := r.storage.LatestDataMonth(ctx)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return core.DateOf(r.clock.Now()).MonthKey(), nil
	}
	return latest, nil
}

func (r *Reports) categoryMap(ctx context.Context, month core.MonthWindow) (map[string]int64, error) {
	totals, err := r.storage.CategoryTotals(ctx, month)
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64, len(totals))
	for _, ca := range totals {
		m[ca.Category] = ca.Amount.Cents
	}
	return m, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
