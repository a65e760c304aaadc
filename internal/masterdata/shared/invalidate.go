package shared

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// StockInvalidator drops cached stock views of a brand. Deletes that cascade
// into inventory records call it after the row is gone.
type StockInvalidator interface {
	Bump(ctx context.Context, brandID uuid.UUID) error
}

// Invalidation pairs an optional invalidator with the logger for its failures.
type Invalidation struct {
	Stock  StockInvalidator
	Logger *slog.Logger
}

// Bump is a no-op without an invalidator. Failures are logged, not returned:
// the delete has already committed and the cache expires on its own.
func (i Invalidation) Bump(ctx context.Context, brandID uuid.UUID) {
	if i.Stock == nil {
		return
	}
	if err := i.Stock.Bump(ctx, brandID); err != nil {
		logger := i.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("stock cache invalidation", slog.String("brand_id", brandID.String()), slog.Any("error", err))
	}
}
