package orders_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/events"
	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/platform/memstore"
	"github.com/jazmin7552/p2/internal/roles"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
	"github.com/jazmin7552/p2/internal/users"
)

var lunch = time.Date(2026, 3, 14, 13, 30, 0, 0, time.UTC)

type recorder struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recorder) Publish(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, evt)
	return nil
}

func (r *recorder) Close() error { return nil }

type stockCounter struct {
	mu   sync.Mutex
	seen map[string]int
}

func (c *stockCounter) ObserveStock(op string, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		c.seen = map[string]int{}
	}
	c.seen[op]++
}

type env struct {
	orders   *orders.Service
	ledger   *ledger.Service
	catalog  *catalog.Service
	statuses *statuses.Service
	events   *recorder
	observer *stockCounter
	table    tables.Table
	category catalog.Category
}

func newEnv(t *testing.T, policy orders.TransitionPolicy) *env {
	t.Helper()
	ctx := context.Background()
	store := memstore.New(memstore.WithClock(func() time.Time { return lunch }))
	statusSvc := statuses.NewService(store)
	tableSvc := tables.NewService(store, statusSvc, nil)
	userSvc := users.NewService(store, roles.NewService(store)).WithHashCost(bcrypt.MinCost)
	e := &env{
		catalog:  catalog.NewService(store.Catalog(), nil),
		ledger:   ledger.NewService(store.Ledger(), nil, nil, nil),
		statuses: statusSvc,
		events:   &recorder{},
		observer: &stockCounter{},
	}
	e.orders = orders.NewService(store.Orders(), orders.Dependencies{
		Tables:    tableSvc,
		Users:     userSvc,
		Statuses:  statusSvc,
		Publisher: e.events,
		Observer:  e.observer,
		Policy:    policy,
		Clock:     func() time.Time { return lunch },
	})
	var err error
	e.table, err = tableSvc.Create(ctx, tables.CreateInput{Capacity: 2, Location: "barra"})
	require.NoError(t, err)
	e.category, err = e.catalog.CreateCategory(ctx, "bebidas")
	require.NoError(t, err)
	for _, u := range []users.CreateInput{
		{ID: "W001", Name: "Luis", Email: "luis@example.com", Password: "secret123", RoleID: 2},
		{ID: "C001", Name: "Marta", Email: "marta@example.com", Password: "secret123", RoleID: 3},
	} {
		_, err := userSvc.Create(ctx, u)
		require.NoError(t, err)
	}
	return e
}

func (e *env) status(t *testing.T, name string) statuses.Status {
	t.Helper()
	st, err := e.statuses.ByName(context.Background(), name)
	require.NoError(t, err)
	return st
}

func (e *env) create(t *testing.T, placedAt time.Time) orders.Order {
	t.Helper()
	o, err := e.orders.Create(context.Background(), orders.CreateOrderInput{TableID: e.table.ID, WaiterID: "W001", PlacedAt: &placedAt})
	require.NoError(t, err)
	return o
}

func TestCreateDefaults(t *testing.T) {
	e := newEnv(t, nil)
	o, err := e.orders.Create(context.Background(), orders.CreateOrderInput{TableID: e.table.ID, WaiterID: "W001"})
	require.NoError(t, err)

	assert.Equal(t, e.status(t, statuses.Pending).ID, o.StatusID)
	assert.Equal(t, lunch, o.PlacedAt)
	assert.Nil(t, o.CookID)
	require.Len(t, e.events.got, 1)
	assert.Equal(t, events.OrderCreated, e.events.got[0].Type)
	assert.Equal(t, statuses.Pending, e.events.got[0].Status)
}

func TestCreateResolvesReferences(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	ghost := "X999"
	badStatus := int64(99)

	_, err := e.orders.Create(ctx, orders.CreateOrderInput{TableID: 42, WaiterID: "W001"})
	require.ErrorIs(t, err, tables.ErrTableNotFound)
	_, err = e.orders.Create(ctx, orders.CreateOrderInput{TableID: e.table.ID, WaiterID: ghost})
	require.ErrorIs(t, err, users.ErrUserNotFound)
	_, err = e.orders.Create(ctx, orders.CreateOrderInput{TableID: e.table.ID, WaiterID: "W001", CookID: &ghost})
	require.ErrorIs(t, err, users.ErrUserNotFound)
	_, err = e.orders.Create(ctx, orders.CreateOrderInput{TableID: e.table.ID, WaiterID: "W001", StatusID: &badStatus})
	require.ErrorIs(t, err, statuses.ErrStatusNotFound)
	assert.Empty(t, e.events.got)
}

func TestUpdateAppliesOnlyGivenFields(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	o := e.create(t, lunch)
	cook := "C001"
	ready := e.status(t, statuses.Ready).ID

	updated, err := e.orders.Update(ctx, o.ID, orders.UpdateOrderInput{CookID: &cook, StatusID: &ready})
	require.NoError(t, err)
	require.NotNil(t, updated.CookID)
	assert.Equal(t, "C001", *updated.CookID)
	assert.Equal(t, ready, updated.StatusID)
	assert.Equal(t, "W001", updated.WaiterID)
	assert.Equal(t, o.TableID, updated.TableID)

	var kinds []string
	for _, evt := range e.events.got {
		kinds = append(kinds, evt.Type)
	}
	assert.Equal(t, []string{events.OrderCreated, events.OrderUpdated, events.OrderStatusChanged}, kinds)

	_, err = e.orders.Update(ctx, 999, orders.UpdateOrderInput{CookID: &cook})
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestUnrestrictedPolicyAllowsAnyStatus(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	o := e.create(t, lunch)

	paid, err := e.orders.ChangeStatus(ctx, o.ID, e.status(t, statuses.Paid).ID)
	require.NoError(t, err)
	back, err := e.orders.ChangeStatus(ctx, paid.ID, e.status(t, statuses.Pending).ID)
	require.NoError(t, err)
	assert.Equal(t, e.status(t, statuses.Pending).ID, back.StatusID)

	_, err = e.orders.ChangeStatus(ctx, o.ID, 99)
	require.ErrorIs(t, err, statuses.ErrStatusNotFound)
}

func TestStrictPolicy(t *testing.T) {
	e := newEnv(t, orders.Strict{})
	ctx := context.Background()
	o := e.create(t, lunch)

	_, err := e.orders.ChangeStatus(ctx, o.ID, e.status(t, statuses.Ready).ID)
	require.ErrorIs(t, err, orders.ErrInvalidTransition)
	require.ErrorIs(t, err, httpx.ErrInvalidState)

	for _, name := range []string{statuses.InProgress, statuses.Ready, statuses.Served, statuses.Paid} {
		got, err := e.orders.ChangeStatus(ctx, o.ID, e.status(t, name).ID)
		require.NoError(t, err, name)
		assert.Equal(t, e.status(t, name).ID, got.StatusID)
	}
	_, err = e.orders.ChangeStatus(ctx, o.ID, e.status(t, statuses.Cancelled).ID)
	require.ErrorIs(t, err, orders.ErrInvalidTransition)

	same, err := e.orders.ChangeStatus(ctx, o.ID, e.status(t, statuses.Paid).ID)
	require.NoError(t, err)
	assert.Equal(t, e.status(t, statuses.Paid).ID, same.StatusID)

	second := e.create(t, lunch)
	_, err = e.orders.ChangeStatus(ctx, second.ID, e.status(t, statuses.Cancelled).ID)
	require.NoError(t, err)
}

func TestStrictAllow(t *testing.T) {
	st := func(id int64, name string) statuses.Status { return statuses.Status{ID: id, Name: name} }
	pending, inProgress, ready := st(1, statuses.Pending), st(2, statuses.InProgress), st(3, statuses.Ready)
	paid, cancelled, occupied := st(5, statuses.Paid), st(6, statuses.Cancelled), st(8, statuses.Occupied)

	policy := orders.Strict{}
	assert.NoError(t, policy.Allow(pending, inProgress))
	assert.NoError(t, policy.Allow(inProgress, ready))
	assert.NoError(t, policy.Allow(ready, cancelled))
	assert.NoError(t, policy.Allow(paid, paid))
	assert.ErrorIs(t, policy.Allow(ready, pending), orders.ErrInvalidTransition)
	assert.ErrorIs(t, policy.Allow(pending, occupied), orders.ErrInvalidTransition)
	assert.ErrorIs(t, policy.Allow(cancelled, pending), orders.ErrInvalidTransition)
	assert.ErrorIs(t, policy.Allow(paid, cancelled), orders.ErrInvalidTransition)
}

func TestParsePolicy(t *testing.T) {
	p, err := orders.ParsePolicy("")
	require.NoError(t, err)
	assert.IsType(t, orders.Unrestricted{}, p)
	p, err = orders.ParsePolicy(" STRICT ")
	require.NoError(t, err)
	assert.IsType(t, orders.Strict{}, p)
	_, err = orders.ParsePolicy("linear")
	require.Error(t, err)
}

func TestDeleteRestoresStock(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	stock := 10
	p, err := e.catalog.Create(ctx, catalog.CreateProductInput{Name: "limonada", Price: decimal.RequireFromString("2.00"), Stock: &stock, CategoryID: e.category.ID})
	require.NoError(t, err)
	o := e.create(t, lunch)
	four := 4
	_, err = e.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: &four})
	require.NoError(t, err)

	total, err := e.orders.Total(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "8.00", total.StringFixed(2))

	require.NoError(t, e.orders.Delete(ctx, o.ID))
	after, err := e.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Stock)

	moves, err := e.catalog.Movements(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, catalog.MovementOrderDelete, moves[0].Kind)
	assert.Equal(t, 4, moves[0].Delta)

	_, err = e.orders.Get(ctx, o.ID)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	lines, err := e.ledger.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.ErrorIs(t, e.orders.Delete(ctx, o.ID), orders.ErrOrderNotFound)
	assert.Equal(t, 2, e.observer.seen["order_delete"])
}

func TestActiveAndToday(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	open := e.create(t, lunch.Add(-time.Hour))
	paid := e.create(t, lunch.Add(-2*time.Hour))
	cancelled := e.create(t, lunch.Add(-3*time.Hour))
	yesterday := e.create(t, lunch.Add(-24*time.Hour))
	_, err := e.orders.ChangeStatus(ctx, paid.ID, e.status(t, statuses.Paid).ID)
	require.NoError(t, err)
	_, err = e.orders.ChangeStatus(ctx, cancelled.ID, e.status(t, statuses.Cancelled).ID)
	require.NoError(t, err)

	active, err := e.orders.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{open.ID, yesterday.ID}, ids(active))

	today, err := e.orders.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{open.ID, paid.ID, cancelled.ID}, ids(today))
}

func TestListFilters(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	first := e.create(t, lunch.Add(-time.Hour))
	second := e.create(t, lunch)

	from, to := lunch.Add(-30*time.Minute), lunch.Add(time.Minute)
	got, err := e.orders.List(ctx, orders.Filter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID}, ids(got))

	waiter := "W001"
	got, err = e.orders.List(ctx, orders.Filter{WaiterID: &waiter})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, ids(got))

	_, err = e.orders.List(ctx, orders.Filter{From: &to, To: &from})
	require.ErrorIs(t, err, orders.ErrInvalidRange)

	missing := int64(99)
	_, err = e.orders.List(ctx, orders.Filter{StatusID: &missing})
	require.ErrorIs(t, err, statuses.ErrStatusNotFound)
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	start, end := orders.DayBounds(time.Date(2026, 3, 14, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, loc), end)
}

func ids(list []orders.Order) []int64 {
	out := make([]int64, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}
