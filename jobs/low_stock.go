package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/brandstock/internal/inventory"
	jobmetrics "github.com/odyssey-erp/brandstock/internal/jobs"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// LowStockCounter reports low-stock record counts per brand.
type LowStockCounter interface {
	LowStockCounts(ctx context.Context) (map[uuid.UUID]int, error)
}

// LowStockJob handles alert and scan tasks.
type LowStockJob struct {
	Audit   AuditRecorder
	Counter LowStockCounter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLowStockJob initialises the low-stock handlers.
func NewLowStockJob(audit AuditRecorder, counter LowStockCounter, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockJob {
	return &LowStockJob{
		Audit:   audit,
		Counter: counter,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handlers lists the task handlers for worker registration.
func (j *LowStockJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskLowStockAlert, Handler: j.HandleAlert},
		{Type: TaskLowStockScan, Handler: j.HandleScan},
	}
}

// HandleAlert records the alert in the audit log.
func (j *LowStockJob) HandleAlert(ctx context.Context, t *asynq.Task) (err error) {
	var evt inventory.LowStockEvent
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskLowStockAlert)
	defer func() { err = tracker.End(err) }()

	if j.Audit == nil {
		return errors.New("low stock alert: audit not configured")
	}
	err = j.Audit.Record(ctx, shared.AuditLog{
		Action:   "inventory:low_stock.alert",
		Entity:   "inventory_record",
		EntityID: evt.RecordID.String(),
		Meta: map[string]any{
			"brand_id":            evt.BrandID.String(),
			"product_id":          evt.ItemID.String(),
			"store_id":            evt.LocationID.String(),
			"movement_id":         evt.MovementID.String(),
			"quantity_on_hand":    evt.OnHand,
			"minimum_stock_level": evt.MinimumLevel,
		},
		At: j.now(),
	})
	if err != nil {
		j.logger().Error("low stock alert failed", slog.String("record_id", evt.RecordID.String()), slog.Any("error", err))
		return err
	}
	j.Metrics.AddAlert(evt.BrandID.String())
	j.logger().Warn("record below minimum stock level",
		slog.String("record_id", evt.RecordID.String()),
		slog.String("brand_id", evt.BrandID.String()),
		slog.Int64("quantity_on_hand", evt.OnHand),
		slog.Int64("minimum_stock_level", evt.MinimumLevel),
	)
	return nil
}

// HandleScan refreshes the per-brand low-stock gauge.
func (j *LowStockJob) HandleScan(ctx context.Context, t *asynq.Task) (err error) {
	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	if j.Counter == nil {
		return errors.New("low stock scan: counter not configured")
	}
	start := j.now()
	counts, err := j.Counter.LowStockCounts(ctx)
	if err != nil {
		j.logger().Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	total := 0
	j.Metrics.ResetLowStock()
	for brand, n := range counts {
		j.Metrics.SetLowStock(brand.String(), n)
		total += n
	}
	j.logger().Info("completed low stock scan",
		slog.Int("brands", len(counts)),
		slog.Int("records", total),
		slog.Duration("duration", j.now().Sub(start)),
	)
	return nil
}

func (j *LowStockJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *LowStockJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
