package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/storage"
)

// Materializer converts due subscriptions into concrete ledger entries for
// a billing month, exactly once per (subscription, month).
type Materializer struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

// NewMaterializer creates a materializer. The events client may be nil;
// charges are then recorded without publishing.
func NewMaterializer(storage *storage.SQLiteRepository, events *amqp.Client) *Materializer {
	return &Materializer{
		storage: storage,
		events:  events,
	}
}

// Run materializes subscription charges for the month identified by
// monthKey ("YYYY-MM"). A malformed key fails before anything is read or
// written. With dryRun set, it reports what would be charged without
// touching the ledger.
//
// Each charge is its own transaction: one subscription failing to charge is
// logged and skipped, never aborting the rest of the run. Installment plans
// are not involved here at all; their entries were written eagerly when the
// plan was created.
func (m *Materializer) Run(ctx context.Context, monthKey string, dryRun bool) (core.MaterializationReport, error) {
	report := core.MaterializationReport{Month: monthKey, DryRun: dryRun}

	month, err := core.ParseMonth(monthKey)
	if err != nil {
		return report, err
	}
	chargeDate := month.Start // charges are dated to the first of the month

	subs, err := m.storage.ListActiveSubscriptions(ctx)
	if err != nil {
		return report, fmt.Errorf("load active subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Materializing subscription charges",
		"month", monthKey,
		"dry_run", dryRun,
		"active_subscriptions", len(subs))

	for _, sub := range subs {
		due, err := IsDue(sub, month)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping subscription with unresolvable frequency",
				"subscription_id", sub.ID,
				"frequency", sub.Frequency,
				"error", err)
			continue
		}
		if !due {
			continue
		}
		report.Eligible++

		charged, err := m.storage.HasCharge(ctx, sub.ID, monthKey)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check charge marker",
				"subscription_id", sub.ID,
				"month", monthKey,
				"error", err)
			continue
		}
		if charged {
			report.AlreadyCharged++
			continue
		}

		if dryRun {
			report.Materialized++
			continue
		}

		expenseID, err := m.storage.CreateCharge(ctx, sub, monthKey, chargeDate)
		if errors.Is(err, core.ErrDuplicateCharge) {
			// A concurrent run won the race on the marker; the month is covered.
			report.AlreadyCharged++
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize charge",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"month", monthKey,
				"error", err)
			continue
		}
		report.Materialized++

		m.publishCharge(ctx, sub, monthKey, expenseID)
		slog.InfoContext(ctx, "Materialized subscription charge",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"expense_id", expenseID,
			"month", monthKey,
			"amount_cents", sub.Amount.Cents)
	}

	slog.InfoContext(ctx, "Materialization complete",
		"month", monthKey,
		"eligible", report.Eligible,
		"already_charged", report.AlreadyCharged,
		"materialized", report.Materialized)
	return report, nil
}

func (m *Materializer) publishCharge(ctx context.Context, sub core.Subscription, monthKey string, expenseID int64) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishChargeMaterialized(ctx, sub.ID, expenseID, monthKey, sub.Amount.Cents); err != nil {
		// The charge is committed; a lost event is not worth failing the run.
		slog.ErrorContext(ctx, "Failed to publish charge event",
			"subscription_id", sub.ID,
			"expense_id", expenseID,
			"error", err)
	}
}
