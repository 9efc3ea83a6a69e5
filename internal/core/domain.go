package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Cash       AssetKind = "Cash"
	Bank       AssetKind = "Bank"
	Savings    AssetKind = "Savings"
	Cumulative AssetKind = "Cumulative"
)

// DateTimeLayout is the timestamp format stored on every transaction.
// Values are zero-padded, so lexical order equals chronological order
// and month-prefix comparisons work directly on the stored string.
const DateTimeLayout = "2006-01-02 15:04:05"

type (
	TxType    string
	AssetKind string

	Money struct {
		Cents int64
	}

	// Transaction is one ledger entry. Amount is always positive;
	// direction is carried by Type alone.
	Transaction struct {
		ID          int64
		Amount      Money
		Category    string
		Type        TxType
		Description string
		Date        string // DateTimeLayout
		AssetID     *int64 // nil when not linked to an asset
	}

	// Asset is a named balance-bearing account. Amount is a maintained
	// running total, not an aggregate recomputed from the ledger.
	Asset struct {
		ID               int64
		Name             string
		Kind             AssetKind
		Amount           Money
		InterestRate     float64
		TermMonths       int64
		StartDate        string
		EndDate          string
		AutoContribution Money
		LastUpdatedMonth *Month
	}

	Budget struct {
		ID           int64
		Category     string
		MonthlyLimit Money
		Month        Month
	}
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAssetMissing   = errors.New("linked asset missing")
	ErrReconciliation = errors.New("ledger and asset balance diverged during reconciliation")

	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrEmptyCategory  = errors.New("empty category")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidKind    = errors.New("invalid asset kind")
	ErrNegativeLimit  = errors.New("negative budget limit")
	ErrEmptyAssetName = errors.New("empty asset name")
)

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (k AssetKind) Validate() error {
	switch k {
	case Cash, Bank, Savings, Cumulative:
		return nil
	}
	return ErrInvalidKind
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if _, err := time.Parse(DateTimeLayout, t.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Effect is the signed delta this transaction applies to its linked
// asset's balance: negative for an expense, positive for an income.
func (t Transaction) Effect() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

// Month returns the YYYY-MM prefix of the transaction date.
func (t Transaction) Month() Month {
	if len(t.Date) < 7 {
		return ""
	}
	return Month(t.Date[:7])
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyAssetName
	}
	if err := a.Kind.Validate(); err != nil {
		return err
	}
	if a.AutoContribution.Cents < 0 {
		return ErrInvalidAmount
	}
	if a.LastUpdatedMonth != nil {
		if err := a.LastUpdatedMonth.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.MonthlyLimit.Cents < 0 {
		return ErrNegativeLimit
	}
	return b.Month.Validate()
}

// Now returns the current time formatted with DateTimeLayout.
func Now() string {
	return time.Now().Format(DateTimeLayout)
}
