package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/huy7715/money-tracker/internal/core"
)

// parseLimitCents parses a budget limit. Unlike a transaction amount, a
// limit of zero is legal.
func parseLimitCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	cents, err := core.ParseAmountToCents(s)
	if err == nil {
		return cents, nil
	}
	if f, ferr := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); ferr == nil && f == 0 {
		return 0, nil
	}
	return 0, err
}

type budgetRequest struct {
	Category string `json:"category"`
	Month    string `json:"month"`
	Limit    string `json:"limit"`
}

type budgetAdjustRequest struct {
	Category string `json:"category"`
	Month    string `json:"month"`
	// Amount is the unsigned adjustment; Direction is "increase" or
	// "decrease".
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

type budgetView struct {
	Category   string  `json:"category"`
	Month      string  `json:"month"`
	Limit      float64 `json:"limit"`
	LimitCents int64   `json:"limit_cents"`
}

type budgetStatusView struct {
	Category   string  `json:"category"`
	Month      string  `json:"month"`
	Limit      float64 `json:"limit"`
	Spent      float64 `json:"spent"`
	Remaining  float64 `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Level      string  `json:"level"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := parseLimitCents(req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget := core.Budget{
		Category:     sanitizeInput(req.Category),
		Month:        month,
		MonthlyLimit: core.Money{Cents: cents},
	}
	if err := s.budgets.SetBudget(r.Context(), budget); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetView{
		Category:   budget.Category,
		Month:      string(budget.Month),
		Limit:      budget.MonthlyLimit.Float64(),
		LimitCents: budget.MonthlyLimit.Cents,
	})
}

func (s *Server) handleAdjustBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetAdjustRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := core.ParseAmountToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	switch req.Direction {
	case "increase":
	case "decrease":
		cents = -cents
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "direction must be 'increase' or 'decrease'"})
		return
	}
	budget, err := s.budgets.AdjustBudget(r.Context(), sanitizeInput(req.Category), month, cents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetView{
		Category:   budget.Category,
		Month:      string(budget.Month),
		Limit:      budget.MonthlyLimit.Float64(),
		LimitCents: budget.MonthlyLimit.Cents,
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(r.URL.Query().Get("category"))
	if category == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "category is required"})
		return
	}
	month, err := requiredMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.budgets.DeleteBudget(r.Context(), category, month); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := requiredMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	statuses, err := s.budgets.Status(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]budgetStatusView, 0, len(statuses))
	for _, status := range statuses {
		views = append(views, budgetStatusView{
			Category:   status.Category,
			Month:      string(status.Month),
			Limit:      status.Limit.Float64(),
			Spent:      status.Spent.Float64(),
			Remaining:  status.Remaining.Float64(),
			Percentage: status.Percentage,
			Level:      status.Level,
		})
	}
	writeJSON(w, http.StatusOK, views)
}
