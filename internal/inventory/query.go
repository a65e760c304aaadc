package inventory

import (
	"context"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// LowStock returns records visible to actor whose on-hand quantity is under
// their minimum level. Pages are served from the cache when one is configured.
func (s *Service) LowStock(ctx context.Context, actor brandscope.Actor, limit, offset int) (LowStockPage, error) {
	vis := brandscope.Visible(actor)
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	loader := func(ctx context.Context) (LowStockPage, error) {
		records, total, err := s.repo.LowStock(ctx, vis, limit, offset)
		if err != nil {
			return LowStockPage{}, err
		}
		return LowStockPage{Records: views(records), Total: total}, nil
	}
	if s.cache == nil {
		return loader(ctx)
	}
	return s.cache.FetchLowStock(ctx, vis, limit, offset, loader)
}

// History lists ledger entries for exactly one item or one location, newest first.
func (s *Service) History(ctx context.Context, actor brandscope.Actor, filter HistoryFilter) ([]Movement, int, error) {
	switch {
	case filter.ItemID.Valid && filter.LocationID.Valid:
		return nil, 0, shared.NewFieldError(shared.ErrMissingParameter, "product_id", shared.CodeMissingParameter,
			"provide either product_id or store_id, not both")
	case !filter.ItemID.Valid && !filter.LocationID.Valid:
		return nil, 0, shared.NewFieldError(shared.ErrMissingParameter, "product_id", shared.CodeMissingParameter,
			"product_id or store_id parameter is required")
	}
	filter.Limit = clampLimit(filter.Limit)
	return s.repo.History(ctx, brandscope.Visible(actor), filter)
}
