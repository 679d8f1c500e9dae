package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan reports active products running out of stock.
	TaskLowStockScan = "catalog:low_stock_scan"
	// TaskDashboardWarmup precomputes the cached dashboard figures.
	TaskDashboardWarmup = "dashboard:warmup"
)

// LowStockScanPayload carries the threshold a scan compares stock against.
type LowStockScanPayload struct {
	Threshold int `json:"threshold"`
}

// DashboardWarmupPayload is empty today; it keeps the task body valid JSON.
type DashboardWarmupPayload struct{}

// NewLowStockScanTask builds a low stock scan task.
func NewLowStockScanTask(threshold int) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// NewDashboardWarmupTask builds a dashboard warmup task.
func NewDashboardWarmupTask() (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
