// Package cli implements the despesas command line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"despesas/internal/services"
	"despesas/internal/storage"
)

type CLI struct {
	DB string `help:"Path to the SQLite database." env:"SQLITE_DB_PATH" default:"./data/despesas.db"`

	Init             InitCmd             `cmd:"" help:"Create the database and apply migrations."`
	AddExpense       AddExpenseCmd       `cmd:"" help:"Record a one-off expense."`
	AddIncome        AddIncomeCmd        `cmd:"" help:"Record an income entry."`
	AddSubscription  AddSubscriptionCmd  `cmd:"" help:"Register a recurring subscription."`
	AddInstallment   AddInstallmentCmd   `cmd:"" help:"Split a purchase into monthly installments."`
	RunSubscriptions RunSubscriptionsCmd `cmd:"" help:"Materialize due subscription charges for a month."`
	SetBudget        SetBudgetCmd        `cmd:"" help:"Set a category's monthly budget."`
	ReportMonth      ReportMonthCmd      `cmd:"" help:"Show the monthly summary and budget status."`
	ReportTrends     ReportTrendsCmd     `cmd:"" help:"Show income and spending over recent months."`
	ReportSavings    ReportSavingsCmd    `cmd:"" help:"Show savings opportunities for a month."`
	List             ListCmd             `cmd:"" help:"List expenses, incomes, subscriptions, budgets, or categories."`
}

// App carries the wired services into command Run methods.
type App struct {
	Ledger       *services.LedgerService
	Reports      *services.Reports
	Materializer *services.Materializer
	Clock        services.Clock
	Out          io.Writer

	repo *storage.SQLiteRepository
}

// NewApp opens the database and wires the service layer. The CLI runs
// without an event broker; publishing only happens in the server.
func NewApp(dbPath string) (*App, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	clock := services.SystemClock{}
	return &App{
		Ledger:       services.NewLedgerService(repo, nil),
		Reports:      services.NewReports(repo, clock),
		Materializer: services.NewMaterializer(repo, nil),
		Clock:        clock,
		Out:          os.Stdout,
		repo:         repo,
	}, nil
}

func (a *App) Close() error {
	return a.repo.Close()
}

// today returns the clock's date in ISO form, the default for date flags.
func (a *App) today() string {
	return a.Clock.Now().Format("2006-01-02")
}

// currentMonth returns the clock's month key, the default for month flags.
func (a *App) currentMonth() string {
	return a.Clock.Now().Format("2006-01")
}
