// Package memstore keeps every repository in process memory. It backs the
// memory store driver and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/roles"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
	"github.com/jazmin7552/p2/internal/users"
)

type sequences struct {
	category, product, movement, line, order, table, status, role int64
}

type dataset struct {
	seq        sequences
	categories map[int64]catalog.Category
	products   map[int64]catalog.Product
	movements  []catalog.Movement
	lines      map[int64]ledger.Line
	orders     map[int64]orders.Order
	tables     map[int64]tables.Table
	statuses   map[int64]statuses.Status
	users      map[string]users.User
	roles      map[int64]roles.Role
}

func newDataset() *dataset {
	return &dataset{
		categories: map[int64]catalog.Category{},
		products:   map[int64]catalog.Product{},
		lines:      map[int64]ledger.Line{},
		orders:     map[int64]orders.Order{},
		tables:     map[int64]tables.Table{},
		statuses:   map[int64]statuses.Status{},
		users:      map[string]users.User{},
		roles:      map[int64]roles.Role{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		seq:        d.seq,
		categories: cloneMap(d.categories),
		products:   cloneMap(d.products),
		movements:  append([]catalog.Movement(nil), d.movements...),
		lines:      cloneMap(d.lines),
		orders:     cloneMap(d.orders),
		tables:     cloneMap(d.tables),
		statuses:   cloneMap(d.statuses),
		users:      cloneMap(d.users),
		roles:      cloneMap(d.roles),
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store holds one dataset guarded by a store-wide lock. Transactions work on a
// copy that replaces the dataset only when the callback succeeds.
type Store struct {
	mu   sync.RWMutex
	data *dataset
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store holding the same reference statuses and roles a freshly
// migrated database has.
func New(opts ...Option) *Store {
	s := &Store{data: newDataset(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range []string{
		statuses.Pending, statuses.InProgress, statuses.Ready, statuses.Served, statuses.Paid,
		statuses.Cancelled, statuses.Available, statuses.Occupied, statuses.Reserved,
	} {
		s.data.seq.status++
		s.data.statuses[s.data.seq.status] = statuses.Status{ID: s.data.seq.status, Name: name}
	}
	for _, r := range []roles.Role{
		{Name: roles.Admin, Description: "Full access"},
		{Name: roles.Waiter, Description: "Takes orders at tables"},
		{Name: roles.Cook, Description: "Prepares orders in the kitchen"},
	} {
		s.data.seq.role++
		r.ID = s.data.seq.role
		r.CreatedAt = s.now().UTC()
		s.data.roles[r.ID] = r
	}
	return s
}

func (s *Store) read(fn func(d *dataset)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) withTx(ctx context.Context, fn func(*memTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{d: s.data.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.d
	return nil
}

// Catalog returns the catalog repository view of the store.
func (s *Store) Catalog() CatalogRepo { return CatalogRepo{s} }

// Ledger returns the order line repository view of the store.
func (s *Store) Ledger() LedgerRepo { return LedgerRepo{s} }

// Orders returns the order repository view of the store.
func (s *Store) Orders() OrderRepo { return OrderRepo{s} }

// CatalogRepo implements catalog.RepositoryPort.
type CatalogRepo struct{ *Store }

// WithTx runs fn on a snapshot that replaces the store only when fn returns nil.
func (r CatalogRepo) WithTx(ctx context.Context, fn func(context.Context, catalog.ProductTx) error) error {
	return r.withTx(ctx, func(tx *memTx) error { return fn(ctx, tx) })
}

// LedgerRepo implements ledger.RepositoryPort.
type LedgerRepo struct{ *Store }

// WithTx runs fn on a snapshot that replaces the store only when fn returns nil.
func (r LedgerRepo) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return r.withTx(ctx, func(tx *memTx) error { return fn(ctx, tx) })
}

// OrderRepo implements orders.RepositoryPort.
type OrderRepo struct{ *Store }

// WithTx runs fn on a snapshot that replaces the store only when fn returns nil.
func (r OrderRepo) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	return r.withTx(ctx, func(tx *memTx) error { return fn(ctx, tx) })
}

func fkViolation(name string) error {
	return fmt.Errorf("%s: referenced row missing or still in use: %w", name, httpx.ErrBadRequest)
}

func uniqueViolation(name string) error {
	return fmt.Errorf("%s: %w", name, httpx.ErrDuplicate)
}
