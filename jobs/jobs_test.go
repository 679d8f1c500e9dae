package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazmin7552/p2/internal/catalog"
	jobmetrics "github.com/jazmin7552/p2/internal/jobs"
)

type stubCatalog struct {
	threshold int
	products  []catalog.Product
	err       error
}

func (s *stubCatalog) LowStock(_ context.Context, threshold int) ([]catalog.Product, error) {
	s.threshold = threshold
	return s.products, s.err
}

type stubWarmer struct {
	calls int
	err   error
}

func (s *stubWarmer) Warm(context.Context) error {
	s.calls++
	return s.err
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestLowStockScanDefaultsThreshold(t *testing.T) {
	cat := &stubCatalog{products: []catalog.Product{{ID: 1, Name: "FLAN", Stock: 2}}}
	job := NewLowStockScanJob(cat, slog.Default(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task := asynq.NewTask(TaskLowStockScan, []byte(`{}`))

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, DefaultLowStockThreshold, cat.threshold)

	task, err := NewLowStockScanTask(9)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 9, cat.threshold)
}

func TestLowStockScanRejectsBadPayload(t *testing.T) {
	job := NewLowStockScanJob(&stubCatalog{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), asynq.NewTask(TaskLowStockScan, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLowStockScanPropagatesFailure(t *testing.T) {
	boom := errors.New("db down")
	job := NewLowStockScanJob(&stubCatalog{err: boom}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewLowStockScanTask(3)
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestDashboardWarmup(t *testing.T) {
	warmer := &stubWarmer{}
	job := NewDashboardWarmupJob(warmer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewDashboardWarmupTask()
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, warmer.calls)

	warmer.err = errors.New("redis down")
	require.Error(t, job.Handle(context.Background(), task))

	var unset *DashboardWarmupJob
	require.Error(t, unset.Handle(context.Background(), task))
}

func TestHealthReportsQueue(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4, Retry: 1}}, slog.Default()).MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, queueHealth{Queue: QueueDefault, Pending: 4, Retry: 1}, body)
}

func TestHealthUnavailable(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("no redis")}, slog.Default()).MountRoutes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRedisClientOptCopiesConnectionSettings(t *testing.T) {
	opt := RedisClientOpt(&redis.Options{Addr: "cache:6379", Username: "app", Password: "secret", DB: 3})

	assert.Equal(t, asynq.RedisClientOpt{Addr: "cache:6379", Username: "app", Password: "secret", DB: 3}, opt)
}

func TestNewWorkerRejectsIncompleteRegistrations(t *testing.T) {
	opts := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}

	_, err := NewWorker(WorkerConfig{RedisOpts: opts, Handlers: []TaskHandler{{Type: TaskLowStockScan}}})
	require.Error(t, err)

	task, err := NewDashboardWarmupTask()
	require.NoError(t, err)
	_, err = NewWorker(WorkerConfig{RedisOpts: opts, Cron: []CronRegistration{{Spec: "not a cron", Task: task}}})
	require.Error(t, err)

	_, err = NewWorker(WorkerConfig{RedisOpts: opts, Cron: []CronRegistration{{Spec: "*/5 * * * *"}}})
	require.Error(t, err)
}

func TestNilWorkerDoesNotRun(t *testing.T) {
	var w *Worker
	require.Error(t, w.Run(context.Background()))
}
