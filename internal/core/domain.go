package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	KindOneOff       EntryKind = "one_off"
	KindSubscription EntryKind = "subscription"
	KindInstallment  EntryKind = "installment"
)

type (
	// Frequency is a subscription billing cadence.
	Frequency string

	// EntryKind tells where a ledger entry came from.
	EntryKind string

	Money struct {
		Cents int64
	}

	// Expense is a single ledger entry regardless of origin: logged by hand,
	// materialized from a subscription, or split out of an installment plan.
	Expense struct {
		ID          int64
		Date        Date
		Amount      Money
		Description string
		Category    string
		Kind        EntryKind

		// Kind-specific linkage. SubscriptionID is set for subscription
		// charges; the Installment* fields for installment entries.
		SubscriptionID    int64
		InstallmentID     int64
		InstallmentNumber int
		InstallmentTotal  int
	}

	Income struct {
		ID          int64
		Date        Date
		Amount      Money
		Description string
		Category    string
	}

	Subscription struct {
		ID        int64
		Name      string
		Amount    Money
		Category  string
		Frequency Frequency
		StartDate Date
		EndDate   Date // zero when open-ended
		Active    bool
	}

	// ChargeMarker records that a subscription was billed for a period.
	// One marker per (subscription, month); the uniqueness of that pair is
	// what makes materialization idempotent.
	ChargeMarker struct {
		ID             int64
		SubscriptionID int64
		ChargeMonth    string
		ExpenseID      int64
	}

	InstallmentPlan struct {
		ID          int64
		Description string
		Category    string
		TotalAmount Money
		Count       int
		StartDate   Date
	}

	// Budget is a global per-category spending limit.
	Budget struct {
		Category string
		Amount   Money
	}

	// CategoryAmount is an amount aggregated by category name.
	CategoryAmount struct {
		Category string
		Amount   Money
	}

	// MaterializationReport summarizes a single materialization run.
	MaterializationReport struct {
		Month          string `json:"month"`
		DryRun         bool   `json:"dry_run"`
		Eligible       int    `json:"eligible_subscriptions"`
		AlreadyCharged int    `json:"already_charged"`
		Materialized   int    `json:"materialized"`
	}
)

var (
	ErrInvalidDateFormat = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidMonthKey   = errors.New("invalid month key, want YYYY-MM")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCount      = errors.New("installment count must be positive")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrUnknownFrequency  = errors.New("unknown frequency")
	ErrDuplicateCharge   = errors.New("subscription already charged for this month")
	ErrLinkedCharges     = errors.New("subscription has linked charges")
	ErrBudgetNotFound    = errors.New("budget not found")
	ErrNotFound          = errors.New("not found")
	ErrEntryNotEditable  = errors.New("only one-off entries can be edited or deleted")
)

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDateFormat
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	switch e.Kind {
	case KindOneOff, KindSubscription, KindInstallment:
	default:
		return fmt.Errorf("invalid entry kind: %q", e.Kind)
	}
	return nil
}

func (i Income) Validate() error {
	if i.Date.IsZero() {
		return ErrInvalidDateFormat
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(i.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Validate rejects malformed subscriptions at creation time. Unknown
// frequencies are refused here so the due-date resolver never sees one.
func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyDescription
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	switch s.Frequency {
	case Monthly, Yearly:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, s.Frequency)
	}
	if s.StartDate.IsZero() {
		return fmt.Errorf("invalid start date: %w", ErrInvalidDateFormat)
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

func (p InstallmentPlan) Validate() error {
	if len(strings.TrimSpace(p.Description)) == 0 {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if err := p.TotalAmount.Validate(); err != nil {
		return err
	}
	if p.Count <= 0 {
		return ErrInvalidCount
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("invalid start date: %w", ErrInvalidDateFormat)
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Amount.Validate()
}

// MonthlyEquivalentCents normalizes the subscription cost to a per-month
// figure: the amount itself for monthly billing, one twelfth (half-up
// rounded) for yearly.
func (s Subscription) MonthlyEquivalentCents() int64 {
	if s.Frequency == Yearly {
		return (s.Amount.Cents + 6) / 12
	}
	return s.Amount.Cents
}
