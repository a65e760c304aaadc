package inventory

import "context"

// IntegrationHandler receives inventory events after the ledger transaction commits.
type IntegrationHandler interface {
	HandleLowStock(ctx context.Context, evt LowStockEvent) error
}

// MovementObserver records movement outcomes for metrics.
type MovementObserver interface {
	ObserveMovement(kind, outcome string)
}
