package cli

import (
	"context"
	"fmt"

	"despesas/internal/core"
)

type ReportMonthCmd struct {
	Month string `help:"Month to report on (YYYY-MM), defaults to the latest month with data."`
}

func (cmd *ReportMonthCmd) Run(app *App) error {
	ctx := context.Background()

	monthKey := cmd.Month
	if monthKey == "" {
		var err error
		if monthKey, err = app.Reports.DefaultMonth(ctx); err != nil {
			return err
		}
	}

	summary, err := app.Reports.MonthlySummary(ctx, monthKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Summary for %s\n", summary.Month)
	fmt.Fprintf(app.Out, "  income:   %s (prev %s)\n", summary.TotalIncome, summary.PrevIncome)
	fmt.Fprintf(app.Out, "  expenses: %s (prev %s)\n", summary.TotalExpense, summary.PrevExpense)
	fmt.Fprintf(app.Out, "  net:      %s (savings rate %.1f%%)\n", summary.Net, summary.SavingsRate)

	if len(summary.ByCategory) > 0 {
		fmt.Fprintln(app.Out, "\nBy category:")
		for _, ca := range summary.ByCategory {
			fmt.Fprintf(app.Out, "  %-20s %s\n", ca.Category, ca.Amount)
		}
	}

	lines, err := app.Reports.BudgetStatus(ctx, monthKey)
	if err != nil {
		return err
	}
	if len(lines) > 0 {
		fmt.Fprintln(app.Out, "\nBudgets:")
		for _, l := range lines {
			fmt.Fprintf(app.Out, "  %-20s %s of %s (%.1f%%, %s remaining)\n",
				l.Category, l.Spent, l.Budgeted, l.Pct, l.Remaining)
		}
	}
	return nil
}

type ReportTrendsCmd struct {
	Months int `help:"How many months to include." default:"6"`
}

func (cmd *ReportTrendsCmd) Run(app *App) error {
	points, err := app.Reports.Trend(context.Background(), cmd.Months)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "%-8s %12s %12s %12s\n", "month", "income", "expenses", "net")
	for _, p := range points {
		fmt.Fprintf(app.Out, "%-8s %12s %12s %12s\n", p.Month, p.Income, p.Expense, p.Net)
	}
	return nil
}

type ReportSavingsCmd struct {
	Month  string  `help:"Month to analyze (YYYY-MM), defaults to the latest month with data."`
	Target float64 `help:"Target savings rate in percent." default:"20"`
}

func (cmd *ReportSavingsCmd) Run(app *App) error {
	ctx := context.Background()

	monthKey := cmd.Month
	if monthKey == "" {
		var err error
		if monthKey, err = app.Reports.DefaultMonth(ctx); err != nil {
			return err
		}
	}

	report, err := app.Reports.SavingsOpportunities(ctx, monthKey, cmd.Target)
	if err != nil {
		return err
	}

	s := report.Summary
	fmt.Fprintf(app.Out, "Savings report for %s (target %.1f%%)\n", s.Month, report.TargetRate)
	fmt.Fprintf(app.Out, "  savings rate: %.1f%%\n", s.SavingsRate)
	if report.GapToTarget.Cents > 0 {
		fmt.Fprintf(app.Out, "  gap to target: %s\n", report.GapToTarget)
	} else {
		fmt.Fprintln(app.Out, "  target met")
	}

	if len(report.OverBudget) > 0 {
		fmt.Fprintln(app.Out, "\nOver budget:")
		for _, ob := range report.OverBudget {
			fmt.Fprintf(app.Out, "  %-20s %s over (%s of %s)\n", ob.Category, ob.Excess, ob.Spent, ob.Budgeted)
		}
	}

	if len(report.Review) > 0 {
		fmt.Fprintln(app.Out, "\nSubscriptions worth reviewing:")
		for _, rc := range report.Review {
			fmt.Fprintf(app.Out, "  %-20s %s/month", rc.Subscription.Name, rc.MonthlyEquivalent)
			if rc.ShareOfSpend > 0 {
				fmt.Fprintf(app.Out, " (%.1f%% of spend)", rc.ShareOfSpend)
			}
			fmt.Fprintln(app.Out)
		}
	}

	if len(report.Spikes) > 0 {
		fmt.Fprintln(app.Out, "\nSpending spikes:")
		for _, sp := range report.Spikes {
			fmt.Fprintf(app.Out, "  %-20s %s vs %s average (+%s)\n",
				sp.Category, sp.Current, sp.Average, sp.Delta)
		}
	}
	return nil
}

type ListCmd struct {
	Entity string `arg:"" help:"What to list." enum:"expenses,incomes,subscriptions,budgets,categories"`
	Month  string `help:"Restrict to a month (YYYY-MM); expenses default to most recent entries."`
	Limit  int    `help:"Maximum rows to show." default:"20"`
}

func (cmd *ListCmd) Run(app *App) error {
	ctx := context.Background()

	switch cmd.Entity {
	case "expenses":
		var (
			expenses []core.Expense
			err      error
		)
		if cmd.Month != "" {
			expenses, err = app.Ledger.ListExpenses(ctx, cmd.Month, cmd.Limit)
		} else {
			expenses, err = app.Ledger.ListRecentExpenses(ctx, cmd.Limit)
		}
		if err != nil {
			return err
		}
		for _, e := range expenses {
			fmt.Fprintf(app.Out, "#%-5d %s %10s  %-13s %-20s %s\n",
				e.ID, e.Date.ISO(), e.Amount, e.Kind, e.Category, e.Description)
		}

	case "incomes":
		monthKey := cmd.Month
		if monthKey == "" {
			monthKey = app.currentMonth()
		}
		incomes, err := app.Ledger.ListIncomes(ctx, monthKey, cmd.Limit)
		if err != nil {
			return err
		}
		for _, in := range incomes {
			fmt.Fprintf(app.Out, "#%-5d %s %10s  %-20s %s\n",
				in.ID, in.Date.ISO(), in.Amount, in.Category, in.Description)
		}

	case "subscriptions":
		subs, err := app.Ledger.ListSubscriptions(ctx)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			status := "active"
			if !sub.Active {
				status = "inactive"
			}
			fmt.Fprintf(app.Out, "#%-5d %-20s %10s %-8s %-8s since %s\n",
				sub.ID, sub.Name, sub.Amount, sub.Frequency, status, sub.StartDate.ISO())
		}

	case "budgets":
		budgets, err := app.Ledger.ListBudgets(ctx)
		if err != nil {
			return err
		}
		for _, b := range budgets {
			fmt.Fprintf(app.Out, "%-20s %s\n", b.Category, b.Amount)
		}

	case "categories":
		categories, err := app.Ledger.ListCategories(ctx)
		if err != nil {
			return err
		}
		for _, c := range categories {
			fmt.Fprintln(app.Out, c)
		}
	}
	return nil
}
