package http

import (
	"log/slog"
	"net/http"

	"despesas/internal/core"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.ledger.ListSubscriptions(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]subscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		dtos = append(dtos, toSubscriptionDTO(sub))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := subscriptionFromRequest(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.ledger.CreateSubscription(r.Context(), sub)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	sub.ID = id
	sub.Active = true
	writeJSON(w, http.StatusCreated, toSubscriptionDTO(sub))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := subscriptionFromRequest(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.ledger.UpdateSubscription(r.Context(), id, sub); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	updated, err := s.ledger.GetSubscription(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(updated))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.ledger.DeleteSubscription(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeactivateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.ledger.DeactivateSubscription(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}

// handleRunMaterialization turns due subscriptions into ledger charges for
// the requested month. Safe to call repeatedly; existing charges are
// reported, not duplicated.
func (s *Server) handleRunMaterialization(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Month == "" {
		writeError(w, http.StatusBadRequest, "month is required")
		return
	}

	report, err := s.materializer.Run(r.Context(), req.Month, req.DryRun)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if !req.DryRun && report.Materialized > 0 {
		s.invalidateReports()
	}

	slog.InfoContext(r.Context(), "Materialization run completed",
		"month", report.Month,
		"dry_run", report.DryRun,
		"eligible", report.Eligible,
		"materialized", report.Materialized,
		"already_charged", report.AlreadyCharged)
	writeJSON(w, http.StatusOK, report)
}

func subscriptionFromRequest(req subscriptionRequest) (core.Subscription, error) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.Subscription{}, err
	}

	var end core.Date
	if req.EndDate != "" {
		if end, err = core.ParseDate(req.EndDate); err != nil {
			return core.Subscription{}, err
		}
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Subscription{}, err
	}

	return core.Subscription{
		Name:      sanitizeInput(req.Name),
		Amount:    amount,
		Category:  sanitizeInput(req.Category),
		Frequency: core.Frequency(req.Frequency),
		StartDate: start,
		EndDate:   end,
		Active:    true,
	}, nil
}
