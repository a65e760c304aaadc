package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/brandstock/internal/inventory"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockAlert follows up a movement that left a record under its minimum level.
	TaskLowStockAlert = "inventory:low_stock_alert"
	// TaskLowStockScan recounts low-stock records for every brand.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// NewLowStockAlertTask constructs an Asynq task for evt. Alerts for the same
// movement and record are deduplicated by task id.
func NewLowStockAlertTask(evt inventory.LowStockEvent) (*asynq.Task, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockAlert, data,
		asynq.Queue(QueueDefault),
		asynq.TaskID(evt.MovementID.String()+":"+evt.RecordID.String()),
		asynq.MaxRetry(5),
	), nil
}

// NewLowStockScanTask constructs the periodic scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil, asynq.Queue(QueueDefault))
}
