package core

// Budget status warning levels.
const (
	LevelSafe    = "safe"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// BudgetStatus classifies one budget's spend against its limit.
type BudgetStatus struct {
	Category   string
	Month      Month
	Limit      Money
	Spent      Money
	Remaining  Money
	Percentage float64
	Level      string
}

// MonthlySummary is the income/expense roll-up for one month.
type MonthlySummary struct {
	Income  Money
	Expense Money
	Net     Money
	Count   int64
}

// MonthlyReport bundles everything the reports surface shows for a month.
type MonthlyReport struct {
	Month              Month
	Summary            MonthlySummary
	SpendingByCategory []CategoryAmount
	Transactions       []Transaction
}

// AllTimeStats is the unscoped income/expense roll-up.
type AllTimeStats struct {
	Income  Money
	Expense Money
	Net     Money
}
