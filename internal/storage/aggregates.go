package storage

import (
	"context"
	"database/sql"
	"fmt"

	"despesas/internal/core"
)

// SumExpenses returns the total spend inside the month window, in cents.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, month core.MonthWindow) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE expense_date >= ? AND expense_date <= ?`,
		month.Start.ISO(), month.End.ISO()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// SumIncomes returns the total income inside the month window, in cents.
func (r *SQLiteRepository) SumIncomes(ctx context.Context, month core.MonthWindow) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM incomes
		WHERE income_date >= ? AND income_date <= ?`,
		month.Start.ISO(), month.End.ISO()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum incomes: %w", err)
	}
	return total, nil
}

// CategoryTotals aggregates the month's spend per category, largest first.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, month core.MonthWindow) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents) AS total FROM expenses
		WHERE expense_date >= ? AND expense_date <= ?
		GROUP BY category
		ORDER BY total DESC, category ASC`,
		month.Start.ISO(), month.End.ISO())
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// ListCategories returns the all-time category list, for filter dropdowns.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM expenses ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestDataMonth returns the YYYY-MM key of the most recent month with any
// ledger or income data, or "" when the database is empty. Reports anchor
// their windows here instead of on the wall clock.
func (r *SQLiteRepository) LatestDataMonth(ctx context.Context) (string, error) {
	var latest sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(dt) FROM (
			SELECT MAX(expense_date) AS dt FROM expenses
			UNION ALL
			SELECT MAX(income_date) AS dt FROM incomes
		)`).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("latest data month: %w", err)
	}
	if !latest.Valid || len(latest.String) < 7 {
		return "", nil
	}
	return latest.String[:7], nil
}
