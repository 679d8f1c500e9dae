package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jazmin7552/p2/internal/catalog"
	"github.com/jazmin7552/p2/internal/dashboard"
	"github.com/jazmin7552/p2/internal/ledger"
	"github.com/jazmin7552/p2/internal/observability"
	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/roles"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
	"github.com/jazmin7552/p2/internal/users"
	"github.com/jazmin7552/p2/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CatalogHandler   *catalog.Handler
	LedgerHandler    *ledger.Handler
	OrdersHandler    *orders.Handler
	TablesHandler    *tables.Handler
	StatusesHandler  *statuses.Handler
	UsersHandler     *users.Handler
	RolesHandler     *roles.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with comanda defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(api)
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(api)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(api)
		}
		if params.TablesHandler != nil {
			params.TablesHandler.MountRoutes(api)
		}
		if params.StatusesHandler != nil {
			params.StatusesHandler.MountRoutes(api)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(api)
		}
		if params.RolesHandler != nil {
			params.RolesHandler.MountRoutes(api)
		}
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(api)
		}
	})

	jobHandler := params.JobHandler
	if jobHandler == nil {
		jobHandler = jobs.NewHandler(nil, params.Logger)
	}
	r.Route("/jobs", jobHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
