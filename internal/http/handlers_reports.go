package http

import (
	"fmt"
	"net/http"
	"strconv"
)

// monthParam resolves the month query parameter, falling back to the latest
// month with data so an empty query shows something useful.
func (s *Server) monthParam(r *http.Request) (string, error) {
	if monthKey := r.URL.Query().Get("month"); monthKey != "" {
		return monthKey, nil
	}
	return s.reports.DefaultMonth(r.Context())
}

func (s *Server) handleDefaultMonth(w http.ResponseWriter, r *http.Request) {
	month, err := s.reports.DefaultMonth(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"month": month})
}

func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	monthKey, err := s.monthParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if cached, ok := s.summaryCache.Get(monthKey); ok {
		writeJSON(w, http.StatusOK, toSummaryDTO(cached))
		return
	}

	summary, err := s.reports.MonthlySummary(r.Context(), monthKey)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.summaryCache.Set(monthKey, summary)
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	monthKey, err := s.monthParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if cached, ok := s.budgetCache.Get(monthKey); ok {
		writeJSON(w, http.StatusOK, toBudgetLineDTOs(cached))
		return
	}

	lines, err := s.reports.BudgetStatus(r.Context(), monthKey)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.budgetCache.Set(monthKey, lines)
	writeJSON(w, http.StatusOK, toBudgetLineDTOs(lines))
}

func (s *Server) handleTrendReport(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 36 {
			writeError(w, http.StatusBadRequest, "months must be between 1 and 36")
			return
		}
		months = n
	}

	key := strconv.Itoa(months)
	if cached, ok := s.trendCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toTrendDTOs(cached))
		return
	}

	points, err := s.reports.Trend(r.Context(), months)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.trendCache.Set(key, points)
	writeJSON(w, http.StatusOK, toTrendDTOs(points))
}

func (s *Server) handleSavingsReport(w http.ResponseWriter, r *http.Request) {
	monthKey, err := s.monthParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	target := s.targetRate
	if v := r.URL.Query().Get("target"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 100 {
			writeError(w, http.StatusBadRequest, "target must be between 0 and 100")
			return
		}
		target = t
	}

	key := fmt.Sprintf("%s/%.1f", monthKey, target)
	if cached, ok := s.savingsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toSavingsReportDTO(cached))
		return
	}

	report, err := s.reports.SavingsOpportunities(r.Context(), monthKey, target)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.savingsCache.Set(key, report)
	writeJSON(w, http.StatusOK, toSavingsReportDTO(report))
}
