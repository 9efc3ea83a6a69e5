package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/huy7715/money-tracker/internal/core"
)

// dataResponse is the combined payload the dashboard polls: the month's
// transactions, its balance and every asset with current balances.
type dataResponse struct {
	Month        string            `json:"month"`
	Transactions []transactionView `json:"transactions"`
	Balance      float64           `json:"balance"`
	BalanceCents int64             `json:"balance_cents"`
	Assets       []assetView       `json:"assets"`
}

// handleData serves the dashboard payload. The first request of each
// day also triggers the recurring contribution check.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	s.checkRecurringOnce(r.Context())

	month, err := requiredMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transactions, err := s.ledger.ListTransactions(r.Context(), &month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := s.ledger.Balance(r.Context(), &month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	assets, err := s.assets.AssetsAsOf(r.Context(), nil)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := dataResponse{
		Month:        string(month),
		Transactions: toTransactionViews(transactions),
		Balance:      balance.Float64(),
		BalanceCents: balance.Cents,
		Assets:       make([]assetView, 0, len(assets)),
	}
	for _, a := range assets {
		resp.Assets = append(resp.Assets, toAssetView(a.Asset, a.Balance))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAvailableMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.reports.AvailableMonths(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]string, 0, len(months))
	for _, m := range months {
		out = append(out, string(m))
	}
	writeJSON(w, http.StatusOK, out)
}

type monthlyReportView struct {
	Month   string `json:"month"`
	Summary struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Net     float64 `json:"net"`
		Count   int64   `json:"count"`
	} `json:"summary"`
	SpendingByCategory []struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	} `json:"spending_by_category"`
	Transactions []transactionView `json:"transactions"`
}

func toMonthlyReportView(report core.MonthlyReport) monthlyReportView {
	view := monthlyReportView{Month: string(report.Month)}
	view.Summary.Income = report.Summary.Income.Float64()
	view.Summary.Expense = report.Summary.Expense.Float64()
	view.Summary.Net = report.Summary.Net.Float64()
	view.Summary.Count = report.Summary.Count
	for _, entry := range report.SpendingByCategory {
		view.SpendingByCategory = append(view.SpendingByCategory, struct {
			Category string  `json:"category"`
			Amount   float64 `json:"amount"`
		}{Category: entry.Category, Amount: entry.Amount.Float64()})
	}
	view.Transactions = toTransactionViews(report.Transactions)
	return view
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, err := requiredMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if cached, found := s.reportCache.Get(string(month)); found {
		writeJSON(w, http.StatusOK, toMonthlyReportView(cached))
		return
	}

	report, err := s.reports.MonthlyReport(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reportCache.Set(string(month), report)
	writeJSON(w, http.StatusOK, toMonthlyReportView(report))
}

func (s *Server) handleAllTimeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reports.AllTime(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Net     float64 `json:"net"`
	}{
		Income:  stats.Income.Float64(),
		Expense: stats.Expense.Float64(),
		Net:     stats.Net.Float64(),
	})
}

// handleExport streams the ledger as CSV, scoped to one month when
// ?month= is given. The file starts with a UTF-8 BOM and dates carry a
// leading tab so spreadsheet applications keep them as text.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transactions, err := s.ledger.ListTransactions(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := "transactions.csv"
	if month != nil {
		filename = fmt.Sprintf("transactions-%s.csv", *month)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ID", "Date", "Type", "Category", "Amount", "Description", "Asset ID"})
	for _, t := range transactions {
		assetID := ""
		if t.AssetID != nil {
			assetID = strconv.FormatInt(*t.AssetID, 10)
		}
		_ = cw.Write([]string{
			strconv.FormatInt(t.ID, 10),
			"\t" + t.Date,
			string(t.Type),
			t.Category,
			strconv.FormatFloat(t.Amount.Float64(), 'f', 2, 64),
			t.Description,
			assetID,
		})
	}
	cw.Flush()
}
