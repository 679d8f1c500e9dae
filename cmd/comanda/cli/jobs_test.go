package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/jazmin7552/p2/jobs"
)

type stubEnqueuer struct {
	threshold int
	warmups   int
}

func (s *stubEnqueuer) EnqueueLowStockScan(_ context.Context, threshold int) (*asynq.TaskInfo, error) {
	s.threshold = threshold
	return &asynq.TaskInfo{ID: "t1", Type: jobs.TaskLowStockScan}, nil
}

func (s *stubEnqueuer) EnqueueDashboardWarmup(context.Context) (*asynq.TaskInfo, error) {
	s.warmups++
	return &asynq.TaskInfo{ID: "t2", Type: jobs.TaskDashboardWarmup}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestTriggerEnqueuesKnownJobs(t *testing.T) {
	client := &stubEnqueuer{}
	c := NewJobsCLIWith(client, nil)

	info, err := c.Trigger(context.Background(), JobLowStockScan, 3)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskLowStockScan, info.Type)
	require.Equal(t, 3, client.threshold)

	info, err = c.Trigger(context.Background(), JobDashboardWarmup, 0)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskDashboardWarmup, info.Type)
	require.Equal(t, 1, client.warmups)

	_, err = c.Trigger(context.Background(), "reindex", 0)
	require.ErrorContains(t, err, "unsupported job")
	require.NoError(t, c.Close())
}

func TestInspectQueue(t *testing.T) {
	c := NewJobsCLIWith(nil, stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 4, Retry: 1}})

	stats, err := c.InspectQueue(context.Background())
	require.NoError(t, err)
	require.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 4, Retry: 1}, stats)

	c = NewJobsCLIWith(nil, stubInspector{err: errors.New("redis down")})
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)

	_, err = NewJobsCLIWith(nil, nil).InspectQueue(context.Background())
	require.ErrorContains(t, err, "inspector not configured")
}
