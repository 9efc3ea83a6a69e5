package http

import (
	"net/http"

	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/services"
)

// transactionRequest is the JSON body for creating or updating a ledger
// entry. Amount is a decimal string; direction comes from Type.
type transactionRequest struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
	AssetID     *int64 `json:"asset_id"`
}

type transactionView struct {
	ID          int64   `json:"id"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	AssetID     *int64  `json:"asset_id,omitempty"`
}

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Amount:      t.Amount.Float64(),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Type:        string(t.Type),
		Description: t.Description,
		Date:        t.Date,
		AssetID:     t.AssetID,
	}
}

func toTransactionViews(items []core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(items))
	for _, t := range items {
		views = append(views, toTransactionView(t))
	}
	return views
}

func (req transactionRequest) toParams() (services.AddTransactionParams, error) {
	cents, err := core.ParseAmountToCents(req.Amount)
	if err != nil {
		return services.AddTransactionParams{}, err
	}
	return services.AddTransactionParams{
		AmountCents: cents,
		Category:    sanitizeInput(req.Category),
		Type:        core.TxType(req.Type),
		Description: sanitizeInput(req.Description),
		Date:        req.Date,
		AssetID:     req.AssetID,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	arg, err := req.toParams()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.AddTransaction(r.Context(), arg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusCreated, toTransactionView(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	got, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionView(got))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	arg, err := req.toParams()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.UpdateTransaction(r.Context(), id, arg); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	got, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionView(got))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}
