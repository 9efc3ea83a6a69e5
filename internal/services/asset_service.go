package services

import (
	"context"
	"log/slog"

	"github.com/huy7715/money-tracker/internal/amqp"
	"github.com/huy7715/money-tracker/internal/core"
	"github.com/huy7715/money-tracker/internal/storage"
)

// AssetService manages tracked assets and reconstructs their balances
// at past month boundaries from the ledger log.
type AssetService struct {
	store  *storage.LedgerRepository
	events *amqp.Client
}

func NewAssetService(store *storage.LedgerRepository, events *amqp.Client) *AssetService {
	return &AssetService{store: store, events: events}
}

func (s *AssetService) CreateAsset(ctx context.Context, asset core.Asset) (core.Asset, error) {
	if err := asset.Validate(); err != nil {
		return core.Asset{}, err
	}
	id, err := s.store.Queries().CreateAsset(ctx, storage.AssetParams{
		Name:                  asset.Name,
		Kind:                  asset.Kind,
		AmountCents:           asset.Amount.Cents,
		InterestRate:          asset.InterestRate,
		TermMonths:            asset.TermMonths,
		StartDate:             asset.StartDate,
		EndDate:               asset.EndDate,
		AutoContributionCents: asset.AutoContribution.Cents,
		LastUpdatedMonth:      asset.LastUpdatedMonth,
	})
	if err != nil {
		return core.Asset{}, err
	}
	asset.ID = id
	slog.InfoContext(ctx, "Asset created", "id", id, "name", asset.Name, "kind", asset.Kind)
	s.publishAssetChange(ctx, amqp.ActionAdd)
	return asset, nil
}

func (s *AssetService) GetAsset(ctx context.Context, id int64) (core.Asset, error) {
	return s.store.Queries().GetAsset(ctx, id)
}

func (s *AssetService) ListAssets(ctx context.Context) ([]core.Asset, error) {
	return s.store.Queries().ListAssets(ctx)
}

// UpdateAsset rewrites name, kind, balance and contribution. The
// last-updated month is preserved so an edit cannot retrigger a
// contribution already applied.
func (s *AssetService) UpdateAsset(ctx context.Context, id int64, asset core.Asset) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(q *storage.Queries) error {
		existing, err := q.GetAsset(ctx, id)
		if err != nil {
			return err
		}
		return q.UpdateAsset(ctx, id, storage.AssetParams{
			Name:                  asset.Name,
			Kind:                  asset.Kind,
			AmountCents:           asset.Amount.Cents,
			InterestRate:          asset.InterestRate,
			TermMonths:            asset.TermMonths,
			StartDate:             asset.StartDate,
			EndDate:               asset.EndDate,
			AutoContributionCents: asset.AutoContribution.Cents,
			LastUpdatedMonth:      existing.LastUpdatedMonth,
		})
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Asset updated", "id", id, "name", asset.Name)
	s.publishAssetChange(ctx, amqp.ActionUpdate)
	return nil
}

// DeleteAsset removes the asset row. Ledger entries that pointed at it
// keep their link and simply dangle; the reconciler treats the missing
// asset as a skipped balance step from then on.
func (s *AssetService) DeleteAsset(ctx context.Context, id int64) error {
	if err := s.store.Queries().DeleteAsset(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Asset deleted", "id", id)
	s.publishAssetChange(ctx, amqp.ActionDelete)
	return nil
}

// BalanceAsOf reconstructs the asset's balance at the end of month by
// rolling back every linked entry dated after it: the current balance
// minus the net effect (income minus expense) recorded since.
func (s *AssetService) BalanceAsOf(ctx context.Context, id int64, month core.Month) (core.Money, error) {
	if err := month.Validate(); err != nil {
		return core.Money{}, err
	}
	asset, err := s.store.Queries().GetAsset(ctx, id)
	if err != nil {
		return core.Money{}, err
	}
	income, expense, err := s.store.Queries().LinkedActivityAfter(ctx, id, month)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: asset.Amount.Cents - (income - expense)}, nil
}

// AssetView is an asset with its balance evaluated at a point in time.
type AssetView struct {
	core.Asset
	Balance core.Money
}

// AssetsAsOf lists every asset with its balance at the end of month;
// a nil month means current balances.
func (s *AssetService) AssetsAsOf(ctx context.Context, month *core.Month) ([]AssetView, error) {
	assets, err := s.store.Queries().ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]AssetView, 0, len(assets))
	for _, asset := range assets {
		view := AssetView{Asset: asset, Balance: asset.Amount}
		if month != nil {
			balance, err := s.BalanceAsOf(ctx, asset.ID, *month)
			if err != nil {
				return nil, err
			}
			view.Balance = balance
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *AssetService) publishAssetChange(ctx context.Context, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDataEvent(ctx, "asset", action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish data event", "entity", "asset", "action", action, "error", err)
	}
}
