package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"despesas/internal/core"
)

const subscriptionColumns = `id, name, amount_cents, category, frequency, start_date, end_date, active`

func scanSubscription(row interface{ Scan(...any) error }) (core.Subscription, error) {
	var (
		s        core.Subscription
		startRaw string
		endRaw   sql.NullString
		active   int64
	)
	err := row.Scan(&s.ID, &s.Name, &s.Amount.Cents, &s.Category, &s.Frequency, &startRaw, &endRaw, &active)
	if err != nil {
		return core.Subscription{}, err
	}
	if s.StartDate, err = core.ParseDate(startRaw); err != nil {
		return core.Subscription{}, err
	}
	if s.EndDate, err = parseNullableDate(endRaw); err != nil {
		return core.Subscription{}, err
	}
	s.Active = active != 0
	return s, nil
}

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (name, amount_cents, category, frequency, start_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		s.Name, s.Amount.Cents, s.Category, string(s.Frequency), s.StartDate.ISO(), nullIfZero(s.EndDate))
	if err != nil {
		return 0, fmt.Errorf("create subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("subscription id: %w", err)
	}

	slog.InfoContext(ctx, "Subscription registered",
		"id", id,
		"name", s.Name,
		"amount_cents", s.Amount.Cents,
		"frequency", s.Frequency)
	return id, nil
}

func (r *SQLiteRepository) GetSubscription(ctx context.Context, id int64) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, core.ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s core.Subscription) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET name = ?, amount_cents = ?, category = ?, frequency = ?, start_date = ?, end_date = ?, active = ?
		WHERE id = ?`,
		s.Name, s.Amount.Cents, s.Category, string(s.Frequency), s.StartDate.ISO(), nullIfZero(s.EndDate),
		boolToInt(s.Active), s.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeactivateSubscription soft-disables a subscription so future runs skip
// it while its charge history stays intact.
func (r *SQLiteRepository) DeactivateSubscription(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteSubscription hard-deletes a subscription. The foreign key from
// expenses blocks the delete once charges exist; callers should offer
// deactivation instead.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("delete subscription %d: %w", id, core.ErrLinkedCharges)
	}
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY active DESC, amount_cents DESC`)
}

func (r *SQLiteRepository) ListActiveSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE active = 1 ORDER BY id ASC`)
}

func (r *SQLiteRepository) querySubscriptions(ctx context.Context, query string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// HasCharge reports whether a charge marker exists for the subscription and
// billing month.
func (r *SQLiteRepository) HasCharge(ctx context.Context, subscriptionID int64, monthKey string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM subscription_charges WHERE subscription_id = ? AND charge_month = ?`,
		subscriptionID, monthKey).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup charge marker: %w", err)
	}
	return true, nil
}

// CreateCharge writes the ledger entry and its charge marker in one
// transaction. A crash between the two inserts rolls both back, so a retry
// can never double-charge; a concurrent run racing on the same month loses
// on the unique marker and gets ErrDuplicateCharge.
func (r *SQLiteRepository) CreateCharge(ctx context.Context, sub core.Subscription, monthKey string, chargeDate core.Date) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin charge tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (expense_date, amount_cents, description, category, kind, subscription_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		chargeDate.ISO(), sub.Amount.Cents, "Subscription: "+sub.Name, sub.Category,
		string(core.KindSubscription), sub.ID)
	if err != nil {
		return 0, fmt.Errorf("insert charge entry: %w", err)
	}
	expenseID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("charge entry id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscription_charges (subscription_id, charge_month, expense_id)
		VALUES (?, ?, ?)`,
		sub.ID, monthKey, expenseID)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("charge %d/%s: %w", sub.ID, monthKey, core.ErrDuplicateCharge)
	}
	if err != nil {
		return 0, fmt.Errorf("insert charge marker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit charge tx: %w", err)
	}
	return expenseID, nil
}

// CreateInstallmentPlan stores the plan row and all of its pre-split ledger
// entries atomically. The entries carry their number within the plan.
func (r *SQLiteRepository) CreateInstallmentPlan(ctx context.Context, plan core.InstallmentPlan, entries []core.Expense) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin plan tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO installments (description, category, total_amount_cents, installment_count, start_date)
		VALUES (?, ?, ?, ?, ?)`,
		plan.Description, plan.Category, plan.TotalAmount.Cents, plan.Count, plan.StartDate.ISO())
	if err != nil {
		return 0, fmt.Errorf("insert plan: %w", err)
	}
	planID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("plan id: %w", err)
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (expense_date, amount_cents, description, category, kind,
				installment_id, installment_number, installment_total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Date.ISO(), e.Amount.Cents, e.Description, e.Category,
			string(core.KindInstallment), planID, e.InstallmentNumber, e.InstallmentTotal)
		if err != nil {
			return 0, fmt.Errorf("insert installment entry %d: %w", e.InstallmentNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit plan tx: %w", err)
	}

	slog.InfoContext(ctx, "Installment plan registered",
		"id", planID,
		"description", plan.Description,
		"count", plan.Count,
		"total_cents", plan.TotalAmount.Cents)
	return planID, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
