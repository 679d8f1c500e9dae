package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

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

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, e := range r.got {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	catalog  *catalog.Service
	ledger   *ledger.Service
	orders   *orders.Service
	events   *recorder
	category catalog.Category
	table    tables.Table
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	rec := &recorder{}
	statusSvc := statuses.NewService(store)
	tableSvc := tables.NewService(store, statusSvc, nil)
	userSvc := users.NewService(store, roles.NewService(store)).WithHashCost(bcrypt.MinCost)
	f := &fixture{
		store:   store,
		catalog: catalog.NewService(store.Catalog(), nil),
		ledger:  ledger.NewService(store.Ledger(), rec, nil, nil),
		orders: orders.NewService(store.Orders(), orders.Dependencies{
			Tables: tableSvc, Users: userSvc, Statuses: statusSvc,
		}),
		events: rec,
	}
	var err error
	f.category, err = f.catalog.CreateCategory(ctx, "platos")
	require.NoError(t, err)
	f.table, err = tableSvc.Create(ctx, tables.CreateInput{Capacity: 4, Location: "salon"})
	require.NoError(t, err)
	_, err = userSvc.Create(ctx, users.CreateInput{ID: "W001", Name: "Ana", Email: "ana@example.com", Password: "secret123", RoleID: 2})
	require.NoError(t, err)
	return f
}

func (f *fixture) product(t *testing.T, name, price string, stock int) catalog.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), catalog.CreateProductInput{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      &stock,
		CategoryID: f.category.ID,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) order(t *testing.T) orders.Order {
	t.Helper()
	o, err := f.orders.Create(context.Background(), orders.CreateOrderInput{TableID: f.table.ID, WaiterID: "W001"})
	require.NoError(t, err)
	return o
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.catalog.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func qty(n int) *int { return &n }

func TestAddLineTakesStockAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "empanada", "2.50", 10)
	o := f.order(t)

	line, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(3)})
	require.NoError(t, err)
	assert.Equal(t, "EMPANADA", line.ProductName)
	assert.Equal(t, "2.50", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "7.50", line.Subtotal.StringFixed(2))
	assert.Equal(t, 7, f.stock(t, p.ID))

	price := decimal.RequireFromString("4.00")
	_, err = f.catalog.Update(ctx, p.ID, catalog.UpdateProductInput{Price: &price})
	require.NoError(t, err)
	got, err := f.ledger.Get(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.50", got.UnitPrice.StringFixed(2))

	moves, err := f.catalog.Movements(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, catalog.MovementOrderLineAdd, moves[0].Kind)
	assert.Equal(t, -3, moves[0].Delta)
	assert.Equal(t, []string{events.OrderLineAdded}, f.events.types())
}

func TestAddLineExplicitPrice(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "cafe", "1.20", 5)
	o := f.order(t)
	price := decimal.RequireFromString("0.99")

	line, err := f.ledger.AddLine(context.Background(), ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(3), UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "2.97", line.Subtotal.StringFixed(2))
}

func TestAddLineInsufficientStockLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "flan", "3.00", 2)
	o := f.order(t)

	_, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(3)})
	require.ErrorIs(t, err, httpx.ErrInsufficientStock)
	assert.Equal(t, 2, f.stock(t, p.ID))

	lines, err := f.ledger.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Empty(t, f.events.types())
}

func TestAddLineRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "sopa", "5.00", 50)
	o := f.order(t)
	inactive := f.product(t, "guiso", "6.00", 50)
	_, err := f.catalog.SetActive(ctx, inactive.ID, false)
	require.NoError(t, err)

	cases := []struct {
		name  string
		input ledger.AddLineInput
		want  error
	}{
		{"missing quantity", ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID}, ledger.ErrInvalidQuantity},
		{"zero quantity", ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(0)}, ledger.ErrInvalidQuantity},
		{"over limit", ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(101)}, ledger.ErrInvalidQuantity},
		{"unknown order", ledger.AddLineInput{OrderID: 999, ProductID: p.ID, Quantity: qty(1)}, ledger.ErrOrderNotFound},
		{"unknown product", ledger.AddLineInput{OrderID: o.ID, ProductID: 999, Quantity: qty(1)}, catalog.ErrProductNotFound},
		{"inactive product", ledger.AddLineInput{OrderID: o.ID, ProductID: inactive.ID, Quantity: qty(1)}, ledger.ErrProductInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.AddLine(ctx, tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 50, f.stock(t, p.ID))
	assert.Equal(t, 50, f.stock(t, inactive.ID))
}

func TestAddLineRejectsSecondLineForProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "pan", "0.50", 20)
	o := f.order(t)

	_, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(2)})
	require.NoError(t, err)
	_, err = f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(1)})
	require.ErrorIs(t, err, ledger.ErrDuplicateProduct)
	assert.Equal(t, 18, f.stock(t, p.ID))
}

func TestUpdateLineMovesTheDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "jugo", "1.75", 10)
	o := f.order(t)
	line, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(4)})
	require.NoError(t, err)

	line, err = f.ledger.UpdateLine(ctx, line.ID, ledger.UpdateLineInput{Quantity: qty(9)})
	require.NoError(t, err)
	assert.Equal(t, 1, f.stock(t, p.ID))
	assert.Equal(t, "15.75", line.Subtotal.StringFixed(2))

	_, err = f.ledger.UpdateLine(ctx, line.ID, ledger.UpdateLineInput{Quantity: qty(11)})
	require.ErrorIs(t, err, httpx.ErrInsufficientStock)
	assert.Equal(t, 1, f.stock(t, p.ID))

	line, err = f.ledger.UpdateLine(ctx, line.ID, ledger.UpdateLineInput{Quantity: qty(2)})
	require.NoError(t, err)
	assert.Equal(t, 8, f.stock(t, p.ID))
	assert.Equal(t, "3.50", line.Subtotal.StringFixed(2))

	same, err := f.ledger.UpdateLine(ctx, line.ID, ledger.UpdateLineInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, same.Quantity)

	_, err = f.ledger.UpdateLine(ctx, 999, ledger.UpdateLineInput{Quantity: qty(1)})
	require.ErrorIs(t, err, ledger.ErrLineNotFound)
}

func TestRemoveLineRestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "te", "1.00", 6)
	o := f.order(t)
	line, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(5)})
	require.NoError(t, err)

	require.NoError(t, f.ledger.RemoveLine(ctx, line.ID))
	assert.Equal(t, 6, f.stock(t, p.ID))

	err = f.ledger.RemoveLine(ctx, line.ID)
	require.ErrorIs(t, err, ledger.ErrLineNotFound)
	assert.Equal(t, 6, f.stock(t, p.ID))
}

func TestRemoveAllLinesForOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "tacos", "4.00", 10)
	b := f.product(t, "agua", "1.00", 10)
	o := f.order(t)
	other := f.order(t)
	for _, id := range []int64{a.ID, b.ID} {
		_, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: id, Quantity: qty(3)})
		require.NoError(t, err)
	}
	_, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: other.ID, ProductID: a.ID, Quantity: qty(1)})
	require.NoError(t, err)

	removed, err := f.ledger.RemoveAllLinesForOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Equal(t, 9, f.stock(t, a.ID))
	assert.Equal(t, 10, f.stock(t, b.ID))

	left, err := f.ledger.ListByOrder(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	removed, err = f.ledger.RemoveAllLinesForOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = f.ledger.RemoveAllLinesForOrder(ctx, 999)
	require.ErrorIs(t, err, ledger.ErrOrderNotFound)
}

func TestTotalForOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "pizza", "12.99", 10)
	b := f.product(t, "soda", "1.33", 10)
	o := f.order(t)

	total, err := f.ledger.TotalForOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	_, err = f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: a.ID, Quantity: qty(2)})
	require.NoError(t, err)
	_, err = f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: b.ID, Quantity: qty(3)})
	require.NoError(t, err)

	total, err = f.ledger.TotalForOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "29.97", total.StringFixed(2))

	_, err = f.ledger.TotalForOrder(ctx, 999)
	require.ErrorIs(t, err, ledger.ErrOrderNotFound)
}

func TestListByProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "arepa", "2.00", 10)
	for i := 0; i < 3; i++ {
		_, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: f.order(t).ID, ProductID: p.ID, Quantity: qty(1)})
		require.NoError(t, err)
	}
	lines, err := f.ledger.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 3)

	all, err := f.ledger.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.ledger.ListByProduct(ctx, 999)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestConcurrentAddsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "postre", "3.00", 10)
	const workers = 20
	orderIDs := make([]int64, workers)
	for i := range orderIDs {
		orderIDs[i] = f.order(t).ID
	}

	var ok, short atomic.Int32
	var wg sync.WaitGroup
	for _, id := range orderIDs {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			_, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: orderID, ProductID: p.ID, Quantity: qty(1)})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, httpx.ErrInsufficientStock):
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(10), short.Load())
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestAddLineRoundsRequestedPriceToCents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "café", "1.20", 10)
	o := f.order(t)

	price := decimal.RequireFromString("0.995")
	line, err := f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(3), UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "1.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "3.00", line.Subtotal.StringFixed(2))
	assert.True(t, line.Subtotal.Equal(ledger.Subtotal(line.UnitPrice, line.Quantity)))

	stored, err := f.ledger.Get(ctx, line.ID)
	require.NoError(t, err)
	assert.True(t, stored.UnitPrice.Equal(line.UnitPrice))

	updated, err := f.ledger.UpdateLine(ctx, line.ID, ledger.UpdateLineInput{Quantity: qty(3)})
	require.NoError(t, err)
	assert.True(t, updated.Subtotal.Equal(line.Subtotal))

	tiny := decimal.RequireFromString("0.004")
	other := f.product(t, "té", "1.50", 5)
	line, err = f.ledger.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: other.ID, Quantity: qty(2), UnitPrice: &tiny})
	require.NoError(t, err)
	assert.Equal(t, "1.50", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "3.00", line.Subtotal.StringFixed(2))
}

type failingInsert struct{ ledger.TxRepository }

func (failingInsert) InsertLine(context.Context, ledger.Line) (ledger.Line, error) {
	return ledger.Line{}, errors.New("order_lines: connection reset")
}

type failingInsertRepo struct{ memstore.LedgerRepo }

func (r failingInsertRepo) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return r.LedgerRepo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		return fn(ctx, failingInsert{tx})
	})
}

func TestAddLineRollsBackStockWhenLineWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "flan", "3.00", 6)
	o := f.order(t)

	rec := &recorder{}
	svc := ledger.NewService(failingInsertRepo{f.store.Ledger()}, rec, nil, nil)
	_, err := svc.AddLine(ctx, ledger.AddLineInput{OrderID: o.ID, ProductID: p.ID, Quantity: qty(2)})
	require.Error(t, err)

	assert.Equal(t, 6, f.stock(t, p.ID))
	moves, err := f.catalog.Movements(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, moves)
	lines, err := f.ledger.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Empty(t, rec.types())
}
