package cli

import (
	"context"
	"fmt"

	"despesas/internal/core"
)

type InitCmd struct{}

// Run is a no-op beyond opening the database; NewApp already applies
// migrations on open.
func (cmd *InitCmd) Run(app *App) error {
	fmt.Fprintln(app.Out, "Database initialized")
	return nil
}

type AddExpenseCmd struct {
	Description string `arg:"" help:"What the money was spent on."`
	Amount      string `arg:"" help:"Amount, e.g. 12.34."`
	Category    string `help:"Spending category." required:""`
	Date        string `help:"Entry date (YYYY-MM-DD), defaults to today."`
}

func (cmd *AddExpenseCmd) Run(app *App) error {
	if cmd.Date == "" {
		cmd.Date = app.today()
	}
	date, err := core.ParseDate(cmd.Date)
	if err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(cmd.Amount)
	if err != nil {
		return err
	}

	exp := core.Expense{
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Description: cmd.Description,
		Category:    cmd.Category,
		Kind:        core.KindOneOff,
	}
	id, err := app.Ledger.CreateExpense(context.Background(), exp)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Expense #%d recorded: %s %s (%s)\n", id, exp.Description, exp.Amount, exp.Category)
	return nil
}

type AddIncomeCmd struct {
	Description string `arg:"" help:"Where the money came from."`
	Amount      string `arg:"" help:"Amount, e.g. 2500.00."`
	Category    string `help:"Income category." default:"salary"`
	Date        string `help:"Entry date (YYYY-MM-DD), defaults to today."`
}

func (cmd *AddIncomeCmd) Run(app *App) error {
	if cmd.Date == "" {
		cmd.Date = app.today()
	}
	date, err := core.ParseDate(cmd.Date)
	if err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(cmd.Amount)
	if err != nil {
		return err
	}

	in := core.Income{
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Description: cmd.Description,
		Category:    cmd.Category,
	}
	id, err := app.Ledger.CreateIncome(context.Background(), in)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Income #%d recorded: %s %s\n", id, in.Description, in.Amount)
	return nil
}

type AddSubscriptionCmd struct {
	Name      string `arg:"" help:"Subscription name, e.g. Netflix."`
	Amount    string `arg:"" help:"Billed amount per cycle."`
	Category  string `help:"Spending category." required:""`
	Frequency string `help:"Billing cadence." enum:"monthly,yearly" default:"monthly"`
	Start     string `help:"First billing date (YYYY-MM-DD), defaults to today."`
	End       string `help:"Optional last billing date (YYYY-MM-DD)."`
}

func (cmd *AddSubscriptionCmd) Run(app *App) error {
	if cmd.Start == "" {
		cmd.Start = app.today()
	}
	start, err := core.ParseDate(cmd.Start)
	if err != nil {
		return err
	}
	var end core.Date
	if cmd.End != "" {
		if end, err = core.ParseDate(cmd.End); err != nil {
			return err
		}
	}
	cents, err := core.ParseDecimalToCents(cmd.Amount)
	if err != nil {
		return err
	}

	sub := core.Subscription{
		Name:      cmd.Name,
		Amount:    core.Money{Cents: cents},
		Category:  cmd.Category,
		Frequency: core.Frequency(cmd.Frequency),
		StartDate: start,
		EndDate:   end,
		Active:    true,
	}
	id, err := app.Ledger.CreateSubscription(context.Background(), sub)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Subscription #%d registered: %s %s %s\n", id, sub.Name, sub.Amount, sub.Frequency)
	return nil
}

type AddInstallmentCmd struct {
	Description string `arg:"" help:"What was purchased."`
	Total       string `arg:"" help:"Total purchase amount."`
	Count       int    `help:"Number of monthly installments." required:""`
	Category    string `help:"Spending category." required:""`
	Start       string `help:"First installment date (YYYY-MM-DD), defaults to today."`
}

func (cmd *AddInstallmentCmd) Run(app *App) error {
	if cmd.Start == "" {
		cmd.Start = app.today()
	}
	start, err := core.ParseDate(cmd.Start)
	if err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(cmd.Total)
	if err != nil {
		return err
	}

	plan := core.InstallmentPlan{
		Description: cmd.Description,
		Category:    cmd.Category,
		TotalAmount: core.Money{Cents: cents},
		Count:       cmd.Count,
		StartDate:   start,
	}
	id, err := app.Ledger.CreateInstallmentPlan(context.Background(), plan)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Installment plan #%d created: %s over %d months\n", id, plan.TotalAmount, plan.Count)
	return nil
}

type RunSubscriptionsCmd struct {
	Month  string `help:"Month to materialize (YYYY-MM), defaults to the current month."`
	DryRun bool   `help:"Report what would be charged without writing."`
}

func (cmd *RunSubscriptionsCmd) Run(app *App) error {
	if cmd.Month == "" {
		cmd.Month = app.currentMonth()
	}

	report, err := app.Materializer.Run(context.Background(), cmd.Month, cmd.DryRun)
	if err != nil {
		return err
	}

	mode := ""
	if report.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(app.Out, "Materialization for %s%s\n", report.Month, mode)
	fmt.Fprintf(app.Out, "  eligible:        %d\n", report.Eligible)
	fmt.Fprintf(app.Out, "  already charged: %d\n", report.AlreadyCharged)
	fmt.Fprintf(app.Out, "  materialized:    %d\n", report.Materialized)
	return nil
}

type SetBudgetCmd struct {
	Category string `arg:"" help:"Category the budget applies to."`
	Amount   string `arg:"" help:"Monthly budget amount."`
}

func (cmd *SetBudgetCmd) Run(app *App) error {
	cents, err := core.ParseDecimalToCents(cmd.Amount)
	if err != nil {
		return err
	}

	b := core.Budget{Category: cmd.Category, Amount: core.Money{Cents: cents}}
	if err := app.Ledger.SetBudget(context.Background(), b); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Budget for %s set to %s\n", b.Category, b.Amount)
	return nil
}
