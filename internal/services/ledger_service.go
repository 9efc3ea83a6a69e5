// Package services contains the reconciliation engine and the derived
// reporting surfaces built on the ledger store.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huy7715/money-tracker/internal/amqp"
	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/storage"
)

// LedgerService is the transaction reconciler: every create, edit and
// removal of a ledger entry goes through here so the linked asset's
// running balance moves in lockstep with the log. Each multi-step
// sequence runs in one storage unit of work.
type LedgerService struct {
	store  *storage.LedgerRepository
	events *amqp.Client // nil disables publishing
}

func NewLedgerService(store *storage.LedgerRepository, events *amqp.Client) *LedgerService {
	return &LedgerService{
		store:  store,
		events: events,
	}
}

// AddTransactionParams carries the caller-supplied fields for a new
// ledger entry. Date defaults to now when empty.
type AddTransactionParams struct {
	AmountCents int64
	Category    string
	Type        core.TxType
	Description string
	Date        string
	AssetID     *int64
}

// AddTransaction validates and inserts a ledger entry, applying its
// signed effect to the linked asset's balance in the same unit of work.
// A missing linked asset is non-fatal: the ledger entry is authoritative
// and is recorded anyway, with the condition logged as a warning.
func (s *LedgerService) AddTransaction(ctx context.Context, arg AddTransactionParams) (core.Transaction, error) {
	if arg.Date == "" {
		arg.Date = core.Now()
	}
	candidate := core.Transaction{
		Amount:      core.Money{Cents: arg.AmountCents},
		Category:    arg.Category,
		Type:        arg.Type,
		Description: arg.Description,
		Date:        arg.Date,
		AssetID:     arg.AssetID,
	}
	if err := candidate.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.store.WithinTx(ctx, func(q *storage.Queries) error {
		var err error
		created, err = q.CreateTransaction(ctx, storage.CreateTransactionParams{
			AmountCents: arg.AmountCents,
			Category:    arg.Category,
			Type:        arg.Type,
			Description: arg.Description,
			Date:        arg.Date,
			AssetID:     arg.AssetID,
		})
		if err != nil {
			return err
		}
		return s.applyEffect(ctx, q, created, created.Effect(), "apply")
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", created.ID,
		"type", created.Type,
		"category", created.Category,
		"amount_cents", created.Amount.Cents,
		"linked", created.AssetID != nil)

	s.publishTransactionChange(ctx, created.ID, amqp.ActionAdd)
	return created, nil
}

// UpdateTransaction replaces every field of an existing entry. When the
// old entry was linked, the old effect is reversed and the new effect
// reapplied against the same asset; reassigning the link during an edit
// is unsupported. Both balance steps read the asset row as it is at
// that step. A reapply failure other than a missing asset surfaces as
// core.ErrReconciliation and rolls the whole unit of work back.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, arg AddTransactionParams) error {
	candidate := core.Transaction{
		Amount:      core.Money{Cents: arg.AmountCents},
		Category:    arg.Category,
		Type:        arg.Type,
		Description: arg.Description,
		Date:        arg.Date,
	}
	if err := candidate.Validate(); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		if old.AssetID != nil {
			if err := s.applyEffect(ctx, q, old, -old.Effect(), "reverse"); err != nil {
				return err
			}
		}

		if err := q.UpdateTransaction(ctx, storage.UpdateTransactionParams{
			ID:          id,
			AmountCents: arg.AmountCents,
			Category:    arg.Category,
			Type:        arg.Type,
			Description: arg.Description,
			Date:        arg.Date,
		}); err != nil {
			return err
		}

		if old.AssetID != nil {
			replacement := candidate
			replacement.ID = id
			replacement.AssetID = old.AssetID
			if err := s.applyEffect(ctx, q, replacement, replacement.Effect(), "reapply"); err != nil {
				// The old effect is already reversed inside this unit
				// of work; failing to reapply means ledger and balance
				// would diverge. Escalate and roll everything back.
				return fmt.Errorf("%w: %v", core.ErrReconciliation, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "type", arg.Type, "amount_cents", arg.AmountCents)
	s.publishTransactionChange(ctx, id, amqp.ActionUpdate)
	return nil
}

// DeleteTransaction removes an entry, reversing its effect on the
// linked asset first: a deleted expense is refunded, a deleted income
// is taken back.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if old.AssetID != nil {
			if err := s.applyEffect(ctx, q, old, -old.Effect(), "reverse"); err != nil {
				return err
			}
		}
		return q.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publishTransactionChange(ctx, id, amqp.ActionDelete)
	return nil
}

// applyEffect adjusts the linked asset by deltaCents. A missing asset
// degrades to a warning and the step is skipped; the ledger entry stays
// the source of truth.
func (s *LedgerService) applyEffect(ctx context.Context, q *storage.Queries, tx core.Transaction, deltaCents int64, step string) error {
	if tx.AssetID == nil {
		return nil
	}
	err := q.AdjustAssetAmount(ctx, *tx.AssetID, deltaCents)
	if errors.Is(err, core.ErrAssetMissing) {
		slog.WarnContext(ctx, "Linked asset missing, balance step skipped",
			"transaction_id", tx.ID,
			"asset_id", *tx.AssetID,
			"step", step,
			"delta_cents", deltaCents)
		return nil
	}
	return err
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.Queries().GetTransaction(ctx, id)
}

// ListTransactions returns entries newest first, scoped to a month when
// one is given.
func (s *LedgerService) ListTransactions(ctx context.Context, month *core.Month) ([]core.Transaction, error) {
	if month == nil {
		return s.store.Queries().ListTransactions(ctx)
	}
	return s.store.Queries().ListTransactionsByMonth(ctx, *month)
}

// Balance returns income minus expense, all-time or for one month.
func (s *LedgerService) Balance(ctx context.Context, month *core.Month) (core.Money, error) {
	q := s.store.Queries()
	var income, expense int64
	var err error
	if month == nil {
		if income, err = q.SumByType(ctx, core.Income); err != nil {
			return core.Money{}, err
		}
		if expense, err = q.SumByType(ctx, core.Expense); err != nil {
			return core.Money{}, err
		}
	} else {
		if income, err = q.SumByTypeInMonth(ctx, core.Income, *month); err != nil {
			return core.Money{}, err
		}
		if expense, err = q.SumByTypeInMonth(ctx, core.Expense, *month); err != nil {
			return core.Money{}, err
		}
	}
	return core.Money{Cents: income - expense}, nil
}

// publishTransactionChange fans out the sync request and data event.
// Publishing is best-effort: the mutation already committed and a broker
// outage must not fail it.
func (s *LedgerService) publishTransactionChange(ctx context.Context, id int64, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionSync(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "action", action, "error", err)
	}
	if err := s.events.PublishDataEvent(ctx, "transaction", action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish data event", "id", id, "action", action, "error", err)
	}
}

func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
