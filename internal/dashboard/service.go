package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
)

// Counts are the row totals shown on the dashboard.
type Counts struct {
	Orders   int64 `json:"orders"`
	Products int64 `json:"products"`
	Tables   int64 `json:"tables"`
	Users    int64 `json:"users"`
}

// Stats is the general dashboard summary.
type Stats struct {
	Counts
	ActiveOrders int64     `json:"active_orders"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Sales summarises the orders placed on one day. Cancelled orders count but
// add nothing to revenue.
type Sales struct {
	Date          string          `json:"date"`
	Orders        int             `json:"orders"`
	Cancelled     int             `json:"cancelled"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

// RepositoryPort abstracts the count queries.
type RepositoryPort interface {
	Counts(ctx context.Context) (Counts, error)
}

// OrderSource lists orders for the summaries.
type OrderSource interface {
	Active(ctx context.Context) ([]orders.Order, error)
	Today(ctx context.Context) ([]orders.Order, error)
}

// TableSource lists tables by status name.
type TableSource interface {
	ByStatusName(ctx context.Context, name string) ([]tables.Table, error)
}

// StatusSource resolves statuses by name.
type StatusSource interface {
	ByName(ctx context.Context, name string) (statuses.Status, error)
}

// Service computes dashboard figures, caching them in redis.
type Service struct {
	repo     RepositoryPort
	orders   OrderSource
	tables   TableSource
	statuses StatusSource
	cache    *Cache
	clock    func() time.Time
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService wires Service. cache may be nil.
func NewService(repo RepositoryPort, orders OrderSource, tables TableSource, statuses StatusSource, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, orders: orders, tables: tables, statuses: statuses, cache: cache, clock: time.Now, logger: logger}
}

// WithClock overrides the time source.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Stats returns the general summary.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	key, err := s.cache.BuildKey(ctx, "stats")
	if err != nil {
		return Stats{}, err
	}
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.shared(ctx, key, s.computeStats)
	})
	return out, err
}

// SalesToday returns the sales summary of the current day.
func (s *Service) SalesToday(ctx context.Context) (Sales, error) {
	var out Sales
	key, err := s.cache.BuildKey(ctx, "sales", s.clock().Format(time.DateOnly))
	if err != nil {
		return Sales{}, err
	}
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.shared(ctx, key, s.computeSalesToday)
	})
	return out, err
}

// OccupiedTables lists the tables currently marked OCCUPIED. It is never cached.
func (s *Service) OccupiedTables(ctx context.Context) ([]tables.Table, error) {
	return s.tables.ByStatusName(ctx, statuses.Occupied)
}

// Warm recomputes the cached figures ahead of the next request.
func (s *Service) Warm(ctx context.Context) error {
	stats, err := s.computeStats(ctx)
	if err != nil {
		return err
	}
	key, err := s.cache.BuildKey(ctx, "stats")
	if err != nil {
		return err
	}
	if err := s.cache.Store(ctx, key, stats); err != nil {
		return err
	}
	sales, err := s.computeSalesToday(ctx)
	if err != nil {
		return err
	}
	key, err = s.cache.BuildKey(ctx, "sales", s.clock().Format(time.DateOnly))
	if err != nil {
		return err
	}
	return s.cache.Store(ctx, key, sales)
}

// Invalidate drops every cached figure.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) { return fn(ctx) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *Service) computeStats(ctx context.Context) (any, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.orders.Active(ctx)
	if err != nil {
		return nil, err
	}
	return Stats{Counts: counts, ActiveOrders: int64(len(active)), GeneratedAt: s.clock().UTC()}, nil
}

func (s *Service) computeSalesToday(ctx context.Context) (any, error) {
	today, err := s.orders.Today(ctx)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.statuses.ByName(ctx, statuses.Cancelled)
	if err != nil {
		return nil, err
	}
	sales := Sales{Date: s.clock().Format(time.DateOnly), Orders: len(today), Revenue: decimal.Zero, AverageTicket: decimal.Zero}
	for _, o := range today {
		if o.StatusID == cancelled.ID {
			sales.Cancelled++
			continue
		}
		sales.Revenue = sales.Revenue.Add(o.Total())
	}
	if billed := sales.Orders - sales.Cancelled; billed > 0 {
		sales.AverageTicket = sales.Revenue.Div(decimal.NewFromInt(int64(billed))).Round(2)
	}
	sales.Revenue = sales.Revenue.Round(2)
	s.logger.Debug("sales computed", slog.String("date", sales.Date), slog.Int("orders", sales.Orders))
	return sales, nil
}
