package services

import (
	"context"

	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/storage"
)

// ReportService produces read-only roll-ups over the ledger.
type ReportService struct {
	store *storage.LedgerRepository
}

func NewReportService(store *storage.LedgerRepository) *ReportService {
	return &ReportService{store: store}
}

// MonthlySummary totals income and expense for one month.
func (s *ReportService) MonthlySummary(ctx context.Context, month core.Month) (core.MonthlySummary, error) {
	if err := month.Validate(); err != nil {
		return core.MonthlySummary{}, err
	}
	q := s.store.Queries()
	income, err := q.SumByTypeInMonth(ctx, core.Income, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	expense, err := q.SumByTypeInMonth(ctx, core.Expense, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	count, err := q.CountInMonth(ctx, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return core.MonthlySummary{
		Income:  core.Money{Cents: income},
		Expense: core.Money{Cents: expense},
		Net:     core.Money{Cents: income - expense},
		Count:   count,
	}, nil
}

// MonthlyReport bundles the summary, per-category expense breakdown and
// the month's transactions.
func (s *ReportService) MonthlyReport(ctx context.Context, month core.Month) (core.MonthlyReport, error) {
	summary, err := s.MonthlySummary(ctx, month)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	spending, err := s.store.Queries().SpendingByCategory(ctx, month)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	transactions, err := s.store.Queries().ListTransactionsByMonth(ctx, month)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	return core.MonthlyReport{
		Month:              month,
		Summary:            summary,
		SpendingByCategory: spending,
		Transactions:       transactions,
	}, nil
}

// AllTime totals income and expense over the whole ledger.
func (s *ReportService) AllTime(ctx context.Context) (core.AllTimeStats, error) {
	q := s.store.Queries()
	income, err := q.SumByType(ctx, core.Income)
	if err != nil {
		return core.AllTimeStats{}, err
	}
	expense, err := q.SumByType(ctx, core.Expense)
	if err != nil {
		return core.AllTimeStats{}, err
	}
	return core.AllTimeStats{
		Income:  core.Money{Cents: income},
		Expense: core.Money{Cents: expense},
		Net:     core.Money{Cents: income - expense},
	}, nil
}

// AvailableMonths lists every month with at least one transaction,
// newest first.
func (s *ReportService) AvailableMonths(ctx context.Context) ([]core.Month, error) {
	return s.store.Queries().AvailableMonths(ctx)
}
