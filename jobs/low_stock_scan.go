package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/jazmin7552/p2/internal/catalog"
	jobmetrics "github.com/jazmin7552/p2/internal/jobs"
)

// DefaultLowStockThreshold applies when a payload carries no threshold.
const DefaultLowStockThreshold = 5

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LowStockLister lists active products at or below a threshold.
type LowStockLister interface {
	LowStock(ctx context.Context, threshold int) ([]catalog.Product, error)
}

// LowStockScanJob logs the products the kitchen is about to run out of.
type LowStockScanJob struct {
	Catalog LowStockLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockScanJob wires the scan handler.
func NewLowStockScanJob(catalog LowStockLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Catalog: catalog, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Threshold <= 0 {
		payload.Threshold = DefaultLowStockThreshold
	}

	tracker := j.metrics().Track(TaskLowStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("threshold", payload.Threshold))
	products, err := j.Catalog.LowStock(ctx, payload.Threshold)
	if err != nil {
		resultErr = err
		logger.Error("list low stock", slog.Any("error", err))
		return resultErr
	}
	for _, p := range products {
		logger.Warn("product low on stock",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int("stock", p.Stock))
	}
	j.metrics().SetLowStock(len(products))
	logger.Info("completed low stock scan", slog.Int("products", len(products)))
	return resultErr
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
