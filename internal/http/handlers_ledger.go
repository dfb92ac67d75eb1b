package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"despesas/internal/core"
)

const defaultListLimit = 100

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var (
		expenses []core.Expense
		err      error
	)
	if monthKey := r.URL.Query().Get("month"); monthKey != "" {
		expenses, err = s.ledger.ListExpenses(r.Context(), monthKey, limit)
	} else {
		expenses, err = s.ledger.ListRecentExpenses(r.Context(), limit)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]expenseDTO, 0, len(expenses))
	for _, e := range expenses {
		dtos = append(dtos, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := expenseFromRequest(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.ledger.CreateExpense(r.Context(), exp)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	exp.ID = id
	exp.Kind = core.KindOneOff
	writeJSON(w, http.StatusCreated, toExpenseDTO(exp))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := expenseFromRequest(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.ledger.UpdateExpense(r.Context(), id, exp); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	exp.ID = id
	exp.Kind = core.KindOneOff
	writeJSON(w, http.StatusOK, toExpenseDTO(exp))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

func expenseFromRequest(req expenseRequest) (core.Expense, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Date:        date,
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Kind:        core.KindOneOff,
	}, nil
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	monthKey := r.URL.Query().Get("month")
	if monthKey == "" {
		writeError(w, http.StatusBadRequest, "month query parameter is required")
		return
	}

	incomes, err := s.ledger.ListIncomes(r.Context(), monthKey, defaultListLimit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]incomeDTO, 0, len(incomes))
	for _, in := range incomes {
		dtos = append(dtos, toIncomeDTO(in))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	in := core.Income{
		Date:        date,
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
	}

	id, err := s.ledger.CreateIncome(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	in.ID = id
	writeJSON(w, http.StatusCreated, toIncomeDTO(in))
}

func (s *Server) handleCreateInstallmentPlan(w http.ResponseWriter, r *http.Request) {
	var req installmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	plan := core.InstallmentPlan{
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		TotalAmount: total,
		Count:       req.Count,
		StartDate:   start,
	}

	id, err := s.ledger.CreateInstallmentPlan(r.Context(), plan)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	slog.InfoContext(r.Context(), "Installment plan created",
		"id", id,
		"count", plan.Count,
		"total_cents", plan.TotalAmount.Cents)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.ListBudgets(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]budgetDTO, 0, len(budgets))
	for _, b := range budgets {
		dtos = append(dtos, budgetDTO{
			Category:    b.Category,
			AmountCents: b.Amount.Cents,
			Amount:      b.Amount.String(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(chi.URLParam(r, "category"))
	if strings.TrimSpace(category) == "" {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	b := core.Budget{Category: category, Amount: amount}
	if err := s.ledger.SetBudget(r.Context(), b); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusOK, budgetDTO{
		Category:    b.Category,
		AmountCents: b.Amount.Cents,
		Amount:      b.Amount.String(),
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(chi.URLParam(r, "category"))

	if err := s.ledger.DeleteBudget(r.Context(), category); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
