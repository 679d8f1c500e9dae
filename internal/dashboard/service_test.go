package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazmin7552/p2/internal/events"
	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
)

type mockRepo struct {
	counts Counts
	calls  int
}

func (m *mockRepo) Counts(context.Context) (Counts, error) {
	m.calls++
	return m.counts, nil
}

type mockOrders struct {
	active []orders.Order
	today  []orders.Order
	calls  int
}

func (m *mockOrders) Active(context.Context) ([]orders.Order, error) {
	m.calls++
	return m.active, nil
}

func (m *mockOrders) Today(context.Context) ([]orders.Order, error) {
	m.calls++
	return m.today, nil
}

type mockTables struct{ byStatus map[string][]tables.Table }

func (m mockTables) ByStatusName(_ context.Context, name string) ([]tables.Table, error) {
	return m.byStatus[name], nil
}

type mockStatuses struct{}

func (mockStatuses) ByName(_ context.Context, name string) (statuses.Status, error) {
	ids := map[string]int64{statuses.Pending: 1, statuses.Paid: 5, statuses.Cancelled: 6, statuses.Occupied: 8}
	return statuses.Status{ID: ids[name], Name: name}, nil
}

func orderWith(statusID int64, subtotals ...string) orders.Order {
	o := orders.Order{StatusID: statusID}
	for _, s := range subtotals {
		o.Lines = append(o.Lines, ledger.Line{Subtotal: decimal.RequireFromString(s)})
	}
	return o
}

func newTestService(t *testing.T, repo *mockRepo, ord *mockOrders) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	tbl := mockTables{byStatus: map[string][]tables.Table{
		statuses.Occupied: {{ID: 3, Capacity: 4, Location: "TERRACE", StatusID: 8}},
	}}
	svc := NewService(repo, ord, tbl, mockStatuses{}, cache, nil)
	svc.WithClock(func() time.Time { return time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC) })
	return svc, cache
}

func TestStatsCaches(t *testing.T) {
	repo := &mockRepo{counts: Counts{Orders: 12, Products: 40, Tables: 8, Users: 5}}
	ord := &mockOrders{active: []orders.Order{orderWith(1), orderWith(1)}}
	svc, _ := newTestService(t, repo, ord)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), first.Orders)
	assert.Equal(t, int64(2), first.ActiveOrders)

	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, 1, repo.calls)
}

func TestInvalidatorBumpsVersion(t *testing.T) {
	repo := &mockRepo{counts: Counts{Orders: 1}}
	svc, cache := newTestService(t, repo, &mockOrders{})
	ctx := context.Background()

	_, err := svc.Stats(ctx)
	require.NoError(t, err)
	before, err := cache.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, NewInvalidator(cache).Publish(ctx, events.New(events.OrderCreated, 1)))
	after, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	repo.counts.Orders = 2
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Orders)
	assert.Equal(t, 2, repo.calls)
}

func TestSalesTodayExcludesCancelledRevenue(t *testing.T) {
	ord := &mockOrders{today: []orders.Order{
		orderWith(5, "25.50", "10.00"),
		orderWith(1, "14.50"),
		orderWith(6, "99.99"),
	}}
	svc, _ := newTestService(t, &mockRepo{}, ord)

	sales, err := svc.SalesToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", sales.Date)
	assert.Equal(t, 3, sales.Orders)
	assert.Equal(t, 1, sales.Cancelled)
	assert.Equal(t, "50.00", sales.Revenue.StringFixed(2))
	assert.Equal(t, "25.00", sales.AverageTicket.StringFixed(2))
}

func TestSalesTodayWithoutOrders(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{}, &mockOrders{})
	sales, err := svc.SalesToday(context.Background())
	require.NoError(t, err)
	assert.True(t, sales.Revenue.IsZero())
	assert.True(t, sales.AverageTicket.IsZero())
}

func TestWarmPopulatesCache(t *testing.T) {
	repo := &mockRepo{counts: Counts{Tables: 8}}
	ord := &mockOrders{}
	svc, _ := newTestService(t, repo, ord)
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx))
	require.Equal(t, 1, repo.calls)

	_, err := svc.Stats(ctx)
	require.NoError(t, err)
	_, err = svc.SalesToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 2, ord.calls)
}

func TestOccupiedTables(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{}, &mockOrders{})
	items, err := svc.OccupiedTables(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "TERRACE", items[0].Location)
}

func TestNilCacheLoadsEveryTime(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockOrders{}, mockTables{}, mockStatuses{}, nil, nil)
	for i := 0; i < 2; i++ {
		_, err := svc.Stats(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.calls)
	require.NoError(t, NewInvalidator(nil).Publish(context.Background(), events.Event{}))
}
