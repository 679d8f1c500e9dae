package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// warmupDedupWindow collapses repeated manual warmup requests.
const warmupDedupWindow = time.Minute

// RedisClientOpt points asynq at the redis the API already uses.
func RedisClientOpt(opts *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}
}

// Client enqueues comanda tasks on demand, outside the cron schedule.
type Client struct {
	asynq *asynq.Client
}

// NewClient opens an asynq client.
func NewClient(opts asynq.RedisClientOpt) *Client {
	return &Client{asynq: asynq.NewClient(opts)}
}

// EnqueueLowStockScan requests an immediate scan against threshold.
func (c *Client) EnqueueLowStockScan(ctx context.Context, threshold int) (*asynq.TaskInfo, error) {
	task, err := NewLowStockScanTask(threshold)
	if err != nil {
		return nil, err
	}
	return c.asynq.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// EnqueueDashboardWarmup requests one cache refresh.
func (c *Client) EnqueueDashboardWarmup(ctx context.Context) (*asynq.TaskInfo, error) {
	task, err := NewDashboardWarmupTask()
	if err != nil {
		return nil, err
	}
	return c.asynq.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(1),
		asynq.Unique(warmupDedupWindow))
}

// Close releases the redis connection.
func (c *Client) Close() error {
	return c.asynq.Close()
}
