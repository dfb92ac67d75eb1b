package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"despesas/internal/core"
)

const expenseColumns = `id, expense_date, amount_cents, description, category, kind,
	subscription_id, installment_id, installment_number, installment_total`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e       core.Expense
		dateRaw string
		subID   sql.NullInt64
		instID  sql.NullInt64
		instNum sql.NullInt64
		instTot sql.NullInt64
	)
	err := row.Scan(&e.ID, &dateRaw, &e.Amount.Cents, &e.Description, &e.Category, &e.Kind,
		&subID, &instID, &instNum, &instTot)
	if err != nil {
		return core.Expense{}, err
	}
	if e.Date, err = core.ParseDate(dateRaw); err != nil {
		return core.Expense{}, err
	}
	e.SubscriptionID = subID.Int64
	e.InstallmentID = instID.Int64
	e.InstallmentNumber = int(instNum.Int64)
	e.InstallmentTotal = int(instTot.Int64)
	return e, nil
}

// CreateExpense inserts a one-off ledger entry and returns its id.
// Subscription and installment entries are created by their own paths.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (expense_date, amount_cents, description, category, kind)
		VALUES (?, ?, ?, ?, ?)`,
		e.Date.ISO(), e.Amount.Cents, e.Description, e.Category, string(core.KindOneOff))
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"date", e.Date.ISO(),
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return id, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense rewrites the user-editable fields of an entry. Kind and
// linkage never change.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET expense_date = ?, amount_cents = ?, description = ?, category = ?
		WHERE id = ?`,
		e.Date.ISO(), e.Amount.Cents, e.Description, e.Category, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteExpense removes an entry; its charge marker (if any) goes with it
// via cascade.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListExpenses returns the month's entries, newest first. Limits at or
// below zero mean no limit.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, month core.MonthWindow, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE expense_date >= ? AND expense_date <= ?
		ORDER BY expense_date DESC, id DESC
		LIMIT ?`,
		month.Start.ISO(), month.End.ISO(), sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// ListRecentExpenses returns the latest entries across all months.
func (r *SQLiteRepository) ListRecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		ORDER BY expense_date DESC, id DESC
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (income_date, amount_cents, description, category)
		VALUES (?, ?, ?, ?)`,
		in.Date.ISO(), in.Amount.Cents, in.Description, in.Category)
	if err != nil {
		return 0, fmt.Errorf("create income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("income id: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", id,
		"date", in.Date.ISO(),
		"amount_cents", in.Amount.Cents,
		"category", in.Category)
	return id, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, month core.MonthWindow, limit int) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, income_date, amount_cents, description, category FROM incomes
		WHERE income_date >= ? AND income_date <= ?
		ORDER BY income_date DESC, id DESC
		LIMIT ?`,
		month.Start.ISO(), month.End.ISO(), sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			in      core.Income
			dateRaw string
		)
		if err := rows.Scan(&in.ID, &dateRaw, &in.Amount.Cents, &in.Description, &in.Category); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if in.Date, err = core.ParseDate(dateRaw); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
