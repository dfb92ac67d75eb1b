package services

import (
	"despesas/internal/core"
)

// SplitCents divides a total into count parts that sum back to the total
// exactly. Every part gets the half-up rounded base amount except the last,
// which absorbs the rounding remainder.
func SplitCents(totalCents int64, count int) ([]int64, error) {
	if count <= 0 {
		return nil, core.ErrInvalidCount
	}
	if totalCents < 0 {
		return nil, core.ErrInvalidAmount
	}

	base := (2*totalCents + int64(count)) / (2 * int64(count))
	parts := make([]int64, count)
	for i := range parts {
		parts[i] = base
	}
	parts[count-1] = totalCents - base*int64(count-1)
	return parts, nil
}

// PlanEntries expands an installment plan into its ledger entries: one per
// month starting in the plan's start month, day clamped on shift, numbered
// 1..count. Computed once at creation; never re-derived.
func PlanEntries(plan core.InstallmentPlan) ([]core.Expense, error) {
	amounts, err := SplitCents(plan.TotalAmount.Cents, plan.Count)
	if err != nil {
		return nil, err
	}

	entries := make([]core.Expense, plan.Count)
	for i, cents := range amounts {
		entries[i] = core.Expense{
			Date:              core.ShiftMonth(plan.StartDate, i),
			Amount:            core.Money{Cents: cents},
			Description:       plan.Description,
			Category:          plan.Category,
			Kind:              core.KindInstallment,
			InstallmentNumber: i + 1,
			InstallmentTotal:  plan.Count,
		}
	}
	return entries, nil
}
