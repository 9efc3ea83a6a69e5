package http

import (
	"net/http"

	"github.com/huy7715/money-tracker/internal/core"
)

type assetRequest struct {
	Name             string  `json:"name"`
	Kind             string  `json:"kind"`
	Amount           string  `json:"amount"`
	InterestRate     float64 `json:"interest_rate"`
	TermMonths       int64   `json:"term_months"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	AutoContribution string  `json:"auto_contribution"`
}

type assetView struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Kind             string  `json:"kind"`
	Amount           float64 `json:"amount"`
	AmountCents      int64   `json:"amount_cents"`
	InterestRate     float64 `json:"interest_rate,omitempty"`
	TermMonths       int64   `json:"term_months,omitempty"`
	StartDate        string  `json:"start_date,omitempty"`
	EndDate          string  `json:"end_date,omitempty"`
	AutoContribution float64 `json:"auto_contribution"`
	LastUpdatedMonth string  `json:"last_updated_month,omitempty"`
}

func toAssetView(a core.Asset, balance core.Money) assetView {
	view := assetView{
		ID:               a.ID,
		Name:             a.Name,
		Kind:             string(a.Kind),
		Amount:           balance.Float64(),
		AmountCents:      balance.Cents,
		InterestRate:     a.InterestRate,
		TermMonths:       a.TermMonths,
		StartDate:        a.StartDate,
		EndDate:          a.EndDate,
		AutoContribution: a.AutoContribution.Float64(),
	}
	if a.LastUpdatedMonth != nil {
		view.LastUpdatedMonth = string(*a.LastUpdatedMonth)
	}
	return view
}

// toAsset converts the request body into a domain asset. Amount and
// contribution are optional; absent means zero.
func (req assetRequest) toAsset() (core.Asset, error) {
	asset := core.Asset{
		Name:         sanitizeInput(req.Name),
		Kind:         core.AssetKind(req.Kind),
		InterestRate: req.InterestRate,
		TermMonths:   req.TermMonths,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if req.Amount != "" {
		cents, err := core.ParseAmountToCents(req.Amount)
		if err != nil {
			return core.Asset{}, err
		}
		asset.Amount = core.Money{Cents: cents}
	}
	if req.AutoContribution != "" {
		cents, err := core.ParseAmountToCents(req.AutoContribution)
		if err != nil {
			return core.Asset{}, err
		}
		asset.AutoContribution = core.Money{Cents: cents}
	}
	return asset, nil
}

// handleListAssets lists every asset, optionally with balances
// reconstructed at the end of a past month via ?month=YYYY-MM.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := s.assets.AssetsAsOf(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]assetView, 0, len(views))
	for _, v := range views {
		out = append(out, toAssetView(v.Asset, v.Balance))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	asset, err := req.toAsset()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.assets.CreateAsset(r.Context(), asset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssetView(created, created.Amount))
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	var req assetRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	asset, err := req.toAsset()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.assets.UpdateAsset(r.Context(), id, asset); err != nil {
		writeError(w, r, err)
		return
	}
	got, err := s.assets.GetAsset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetView(got, got.Amount))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	if err := s.assets.DeleteAsset(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAssetBalance returns one asset's balance at the end of a month.
func (s *Server) handleAssetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	month, err := requiredMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := s.assets.BalanceAsOf(r.Context(), id, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AssetID      int64   `json:"asset_id"`
		Month        string  `json:"month"`
		Balance      float64 `json:"balance"`
		BalanceCents int64   `json:"balance_cents"`
	}{
		AssetID:      id,
		Month:        string(month),
		Balance:      balance.Float64(),
		BalanceCents: balance.Cents,
	})
}
