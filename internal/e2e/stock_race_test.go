package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazmin7552/p2/internal/app"
	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/observability"
	"github.com/jazmin7552/p2/internal/platform/memstore"
	_ "github.com/jazmin7552/p2/testing"
)

type harness struct {
	store   *memstore.Store
	server  *httptest.Server
	metrics *observability.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	cfg := &app.Config{StoreDriver: app.StoreDriverMemory, OrderTransitions: "unrestricted"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	container := app.NewContainer(app.ContainerConfig{
		Config:  cfg,
		Logger:  logger,
		Stores:  app.MemoryStores(store),
		Metrics: metrics,
	})
	server := httptest.NewServer(app.NewRouter(container.RouterParams(cfg, logger, metrics)))
	t.Cleanup(server.Close)
	return &harness{store: store, server: server, metrics: metrics}
}

func (h *harness) post(t *testing.T, path string, body any) (int, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (h *harness) send(t *testing.T, method, path string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, h.server.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (h *harness) mustPost(t *testing.T, path string, body any) {
	t.Helper()
	code, out := h.post(t, path, body)
	require.Equal(t, http.StatusCreated, code, string(out))
}

func (h *harness) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := h.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

// Twenty waiters race for the last ten units of one dish, each on their own
// order. Exactly ten lines may be written and stock must end at zero.
func TestConcurrentAddLineNeverOversells(t *testing.T) {
	h := newHarness(t)
	h.mustPost(t, "/api/categories", map[string]any{"name": "principales"})
	h.mustPost(t, "/api/products", map[string]any{"name": "paella mixta", "price": "16.50", "stock": 10, "category_id": 1})
	h.mustPost(t, "/api/tables", map[string]any{"capacity": 4, "location": "salon"})
	h.mustPost(t, "/api/users", map[string]any{
		"id": "W001", "name": "Lucia", "email": "lucia@comanda.test", "password": "waiter-1234", "role_id": 2,
	})
	const waiters = 20
	for i := 0; i < waiters; i++ {
		h.mustPost(t, "/api/orders", map[string]any{"table_id": 1, "waiter_id": "W001"})
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := 1; i <= waiters; i++ {
		wg.Add(1)
		go func(orderID int) {
			defer wg.Done()
			code, _ := h.post(t, "/api/order-lines", map[string]any{"order_id": orderID, "product_id": 1, "quantity": 1})
			mu.Lock()
			codes[code]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, codes[http.StatusCreated])
	assert.Equal(t, 10, codes[http.StatusBadRequest])
	assert.Equal(t, 0, h.stock(t, 1))

	movements, err := h.store.ListMovements(context.Background(), 1, 0)
	require.NoError(t, err)
	adds := 0
	for _, m := range movements {
		if m.Kind == catalog.MovementOrderLineAdd {
			adds++
			assert.GreaterOrEqual(t, m.StockAfter, 0)
		}
	}
	assert.Equal(t, 10, adds)
}

func TestDeletingOrdersGivesStockBack(t *testing.T) {
	h := newHarness(t)
	h.mustPost(t, "/api/categories", map[string]any{"name": "bebidas"})
	h.mustPost(t, "/api/products", map[string]any{"name": "agua mineral", "price": "1.50", "stock": 12, "category_id": 1})
	h.mustPost(t, "/api/products", map[string]any{"name": "refresco", "price": "2.30", "stock": 12, "category_id": 1})
	h.mustPost(t, "/api/tables", map[string]any{"capacity": 2, "location": "terraza"})
	h.mustPost(t, "/api/users", map[string]any{
		"id": "W001", "name": "Lucia", "email": "lucia@comanda.test", "password": "waiter-1234", "role_id": 2,
	})

	const orders = 4
	for i := 1; i <= orders; i++ {
		h.mustPost(t, "/api/orders", map[string]any{"table_id": 1, "waiter_id": "W001"})
		h.mustPost(t, "/api/order-lines", map[string]any{"order_id": i, "product_id": 1, "quantity": 3})
		h.mustPost(t, "/api/order-lines", map[string]any{"order_id": i, "product_id": 2, "quantity": 1})
	}
	require.Equal(t, 0, h.stock(t, 1))
	require.Equal(t, 8, h.stock(t, 2))

	var wg sync.WaitGroup
	for i := 1; i <= orders; i++ {
		wg.Add(1)
		go func(orderID int) {
			defer wg.Done()
			code, out := h.send(t, http.MethodDelete, fmt.Sprintf("/api/orders/%d", orderID))
			assert.Equal(t, http.StatusNoContent, code, string(out))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 12, h.stock(t, 1))
	assert.Equal(t, 12, h.stock(t, 2))
	code, out := h.send(t, http.MethodGet, "/api/order-lines")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(out))
}
