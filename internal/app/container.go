package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/dashboard"
	"github.com/jazmin7552/p2/internal/events"
	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/observability"
	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/platform/memstore"
	"github.com/jazmin7552/p2/internal/roles"
	"github.com/jazmin7552/p2/internal/shared"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
	"github.com/jazmin7552/p2/internal/users"
)

// Stores groups the repositories of one store driver.
type Stores struct {
	Catalog   catalog.RepositoryPort
	Ledger    ledger.RepositoryPort
	Orders    orders.RepositoryPort
	Tables    tables.RepositoryPort
	Statuses  statuses.RepositoryPort
	Users     users.RepositoryPort
	Roles     roles.RepositoryPort
	Dashboard dashboard.RepositoryPort
}

// PostgresStores builds the PostgreSQL repositories over pool.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Catalog:   catalog.NewRepository(pool),
		Ledger:    ledger.NewRepository(pool),
		Orders:    orders.NewRepository(pool),
		Tables:    tables.NewRepository(pool),
		Statuses:  statuses.NewRepository(pool),
		Users:     users.NewRepository(pool),
		Roles:     roles.NewRepository(pool),
		Dashboard: dashboard.NewRepository(pool),
	}
}

// MemoryStores exposes one in-process store through every repository port.
func MemoryStores(store *memstore.Store) Stores {
	return Stores{
		Catalog:   store.Catalog(),
		Ledger:    store.Ledger(),
		Orders:    store.Orders(),
		Tables:    store,
		Statuses:  store,
		Users:     store,
		Roles:     store,
		Dashboard: store,
	}
}

// ContainerConfig carries what NewContainer needs. Redis, Publisher and
// Metrics may be nil.
type ContainerConfig struct {
	Config    *Config
	Logger    *slog.Logger
	Stores    Stores
	Redis     redis.UniversalClient
	Publisher events.Publisher
	Metrics   *observability.Metrics
	Clock     func() time.Time
}

// Container holds the wired services.
type Container struct {
	Catalog     *catalog.Service
	Ledger      *ledger.Service
	Orders      *orders.Service
	Tables      *tables.Service
	Statuses    *statuses.Service
	Users       *users.Service
	Roles       *roles.Service
	Dashboard   *dashboard.Service
	Idempotency *shared.IdempotencyStore
	Publisher   events.Publisher
}

// NewContainer wires every service over cfg.Stores. Order events go to the
// configured publisher, the log and the dashboard cache.
func NewContainer(cfg ContainerConfig) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	var (
		cacheTTL  time.Duration
		retention time.Duration
	)
	if cfg.Config != nil {
		cacheTTL = cfg.Config.CacheTTL
		retention = cfg.Config.IdempotencyRetention
	}

	var cache *dashboard.Cache
	if cfg.Redis != nil {
		cache = dashboard.NewCache(cfg.Redis, cacheTTL)
	}
	publisher := events.Multi{
		events.LogPublisher{Logger: logger},
		dashboard.NewInvalidator(cache),
	}
	if cfg.Publisher != nil {
		publisher = append(publisher, cfg.Publisher)
	}

	statusService := statuses.NewService(cfg.Stores.Statuses)
	roleService := roles.NewService(cfg.Stores.Roles)
	tableService := tables.NewService(cfg.Stores.Tables, statusService, logger)
	userService := users.NewService(cfg.Stores.Users, roleService)
	catalogService := catalog.NewService(cfg.Stores.Catalog, cfg.Metrics)
	ledgerService := ledger.NewService(cfg.Stores.Ledger, publisher, cfg.Metrics, logger)
	orderService := orders.NewService(cfg.Stores.Orders, orders.Dependencies{
		Tables:    tableService,
		Users:     userService,
		Statuses:  statusService,
		Publisher: publisher,
		Observer:  cfg.Metrics,
		Policy:    cfg.Config.TransitionPolicy(),
		Clock:     clock,
		Logger:    logger,
	})
	dashboardService := dashboard.NewService(cfg.Stores.Dashboard, orderService, tableService, statusService, cache, logger).
		WithClock(clock)

	return &Container{
		Catalog:     catalogService,
		Ledger:      ledgerService,
		Orders:      orderService,
		Tables:      tableService,
		Statuses:    statusService,
		Users:       userService,
		Roles:       roleService,
		Dashboard:   dashboardService,
		Idempotency: shared.NewIdempotencyStore(cfg.Redis, retention),
		Publisher:   publisher,
	}
}

// RouterParams returns router dependencies for the wired services.
func (c *Container) RouterParams(cfg *Config, logger *slog.Logger, metrics *observability.Metrics) RouterParams {
	return RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalog.NewHandler(logger, c.Catalog),
		LedgerHandler:    ledger.NewHandler(logger, c.Ledger, c.Idempotency),
		OrdersHandler:    orders.NewHandler(logger, c.Orders),
		TablesHandler:    tables.NewHandler(logger, c.Tables),
		StatusesHandler:  statuses.NewHandler(logger, c.Statuses),
		UsersHandler:     users.NewHandler(logger, c.Users),
		RolesHandler:     roles.NewHandler(logger, c.Roles),
		DashboardHandler: dashboard.NewHandler(logger, c.Dashboard),
		Metrics:          metrics,
	}
}

// NewPublisher builds the broker publisher selected by EVENTS_DRIVER. It
// returns nil for the none driver.
func NewPublisher(cfg *Config) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case EventsDriverKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case EventsDriverRabbitMQ:
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return p, nil
	}
	return nil, nil
}
