package http

import (
	"despesas/internal/core"
	"despesas/internal/services"
)

type expenseRequest struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type expenseDTO struct {
	ID                int64  `json:"id"`
	Date              string `json:"date"`
	AmountCents       int64  `json:"amount_cents"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Kind              string `json:"kind"`
	SubscriptionID    int64  `json:"subscription_id,omitempty"`
	InstallmentID     int64  `json:"installment_id,omitempty"`
	InstallmentNumber int    `json:"installment_number,omitempty"`
	InstallmentTotal  int    `json:"installment_total,omitempty"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	return expenseDTO{
		ID:                e.ID,
		Date:              e.Date.ISO(),
		AmountCents:       e.Amount.Cents,
		Amount:            e.Amount.String(),
		Description:       e.Description,
		Category:          e.Category,
		Kind:              string(e.Kind),
		SubscriptionID:    e.SubscriptionID,
		InstallmentID:     e.InstallmentID,
		InstallmentNumber: e.InstallmentNumber,
		InstallmentTotal:  e.InstallmentTotal,
	}
}

type incomeRequest struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type incomeDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func toIncomeDTO(in core.Income) incomeDTO {
	return incomeDTO{
		ID:          in.ID,
		Date:        in.Date.ISO(),
		AmountCents: in.Amount.Cents,
		Amount:      in.Amount.String(),
		Description: in.Description,
		Category:    in.Category,
	}
}

type subscriptionRequest struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

type subscriptionDTO struct {
	ID                     int64  `json:"id"`
	Name                   string `json:"name"`
	AmountCents            int64  `json:"amount_cents"`
	Amount                 string `json:"amount"`
	Category               string `json:"category"`
	Frequency              string `json:"frequency"`
	StartDate              string `json:"start_date"`
	EndDate                string `json:"end_date,omitempty"`
	Active                 bool   `json:"active"`
	MonthlyEquivalentCents int64  `json:"monthly_equivalent_cents"`
}

func toSubscriptionDTO(s core.Subscription) subscriptionDTO {
	dto := subscriptionDTO{
		ID:                     s.ID,
		Name:                   s.Name,
		AmountCents:            s.Amount.Cents,
		Amount:                 s.Amount.String(),
		Category:               s.Category,
		Frequency:              string(s.Frequency),
		StartDate:              s.StartDate.ISO(),
		Active:                 s.Active,
		MonthlyEquivalentCents: s.MonthlyEquivalentCents(),
	}
	if !s.EndDate.IsZero() {
		dto.EndDate = s.EndDate.ISO()
	}
	return dto
}

type installmentRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	TotalAmount string `json:"total_amount"`
	Count       int    `json:"count"`
	StartDate   string `json:"start_date"`
}

type budgetRequest struct {
	Amount string `json:"amount"`
}

type budgetDTO struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type runRequest struct {
	Month  string `json:"month"`
	DryRun bool   `json:"dry_run"`
}

type summaryDTO struct {
	Month             string              `json:"month"`
	TotalIncomeCents  int64               `json:"total_income_cents"`
	TotalExpenseCents int64               `json:"total_expense_cents"`
	NetCents          int64               `json:"net_cents"`
	SavingsRate       float64             `json:"savings_rate"`
	PrevIncomeCents   int64               `json:"prev_income_cents"`
	PrevExpenseCents  int64               `json:"prev_expense_cents"`
	ByCategory        []categoryAmountDTO `json:"by_category"`
}

type categoryAmountDTO struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

func toSummaryDTO(s services.Summary) summaryDTO {
	dto := summaryDTO{
		Month:             s.Month,
		TotalIncomeCents:  s.TotalIncome.Cents,
		TotalExpenseCents: s.TotalExpense.Cents,
		NetCents:          s.Net.Cents,
		SavingsRate:       s.SavingsRate,
		PrevIncomeCents:   s.PrevIncome.Cents,
		PrevExpenseCents:  s.PrevExpense.Cents,
		ByCategory:        make([]categoryAmountDTO, 0, len(s.ByCategory)),
	}
	for _, ca := range s.ByCategory {
		dto.ByCategory = append(dto.ByCategory, categoryAmountDTO{
			Category:    ca.Category,
			AmountCents: ca.Amount.Cents,
		})
	}
	return dto
}

type budgetLineDTO struct {
	Category       string  `json:"category"`
	BudgetedCents  int64   `json:"budgeted_cents"`
	SpentCents     int64   `json:"spent_cents"`
	RemainingCents int64   `json:"remaining_cents"`
	Pct            float64 `json:"pct"`
}

func toBudgetLineDTOs(lines []services.BudgetLine) []budgetLineDTO {
	dtos := make([]budgetLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, budgetLineDTO{
			Category:       l.Category,
			BudgetedCents:  l.Budgeted.Cents,
			SpentCents:     l.Spent.Cents,
			RemainingCents: l.Remaining.Cents,
			Pct:            l.Pct,
		})
	}
	return dtos
}

type trendPointDTO struct {
	Month        string `json:"month"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
	NetCents     int64  `json:"net_cents"`
}

func toTrendDTOs(points []services.TrendPoint) []trendPointDTO {
	dtos := make([]trendPointDTO, 0, len(points))
	for _, p := range points {
		dtos = append(dtos, trendPointDTO{
			Month:        p.Month,
			IncomeCents:  p.Income.Cents,
			ExpenseCents: p.Expense.Cents,
			NetCents:     p.Net.Cents,
		})
	}
	return dtos
}

type spikeDTO struct {
	Category     string `json:"category"`
	CurrentCents int64  `json:"current_cents"`
	AverageCents int64  `json:"average_cents"`
	DeltaCents   int64  `json:"delta_cents"`
}

type reviewCandidateDTO struct {
	Subscription           subscriptionDTO `json:"subscription"`
	MonthlyEquivalentCents int64           `json:"monthly_equivalent_cents"`
	ShareOfSpend           float64         `json:"share_of_spend"`
}

type overBudgetDTO struct {
	Category      string `json:"category"`
	BudgetedCents int64  `json:"budgeted_cents"`
	SpentCents    int64  `json:"spent_cents"`
	ExcessCents   int64  `json:"excess_cents"`
}

type savingsReportDTO struct {
	Summary          summaryDTO           `json:"summary"`
	TargetRate       float64              `json:"target_rate"`
	GapToTargetCents int64                `json:"gap_to_target_cents"`
	OverBudget       []overBudgetDTO      `json:"over_budget"`
	Review           []reviewCandidateDTO `json:"review"`
	Spikes           []spikeDTO           `json:"spikes"`
}

func toSavingsReportDTO(r services.SavingsReport) savingsReportDTO {
	dto := savingsReportDTO{
		Summary:          toSummaryDTO(r.Summary),
		TargetRate:       r.TargetRate,
		GapToTargetCents: r.GapToTarget.Cents,
		OverBudget:       make([]overBudgetDTO, 0, len(r.OverBudget)),
		Review:           make([]reviewCandidateDTO, 0, len(r.Review)),
		Spikes:           make([]spikeDTO, 0, len(r.Spikes)),
	}
	for _, ob := range r.OverBudget {
		dto.OverBudget = append(dto.OverBudget, overBudgetDTO{
			Category:      ob.Category,
			BudgetedCents: ob.Budgeted.Cents,
			SpentCents:    ob.Spent.Cents,
			ExcessCents:   ob.Excess.Cents,
		})
	}
	for _, rc := range r.Review {
		dto.Review = append(dto.Review, reviewCandidateDTO{
			Subscription:           toSubscriptionDTO(rc.Subscription),
			MonthlyEquivalentCents: rc.MonthlyEquivalent.Cents,
			ShareOfSpend:           rc.ShareOfSpend,
		})
	}
	for _, sp := range r.Spikes {
		dto.Spikes = append(dto.Spikes, spikeDTO{
			Category:     sp.Category,
			CurrentCents: sp.Current.Cents,
			AverageCents: sp.Average.Cents,
			DeltaCents:   sp.Delta.Cents,
		})
	}
	return dto
}
