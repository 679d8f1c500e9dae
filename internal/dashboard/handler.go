package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/tables"
)

// Handler serves dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Get("/sales-today", h.salesToday)
		r.Get("/occupied-tables", h.occupiedTables)
	})
}

type salesResponse struct {
	Date          string `json:"date"`
	Orders        int    `json:"orders"`
	Cancelled     int    `json:"cancelled"`
	Revenue       string `json:"revenue"`
	AverageTicket string `json:"average_ticket"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, "dashboard stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) salesToday(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.SalesToday(r.Context())
	if err != nil {
		h.fail(w, "sales today", err)
		return
	}
	httpx.JSON(w, http.StatusOK, salesResponse{
		Date:          sales.Date,
		Orders:        sales.Orders,
		Cancelled:     sales.Cancelled,
		Revenue:       sales.Revenue.StringFixed(2),
		AverageTicket: sales.AverageTicket.StringFixed(2),
	})
}

func (h *Handler) occupiedTables(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.OccupiedTables(r.Context())
	if err != nil {
		h.fail(w, "occupied tables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tables": tables.ToResponses(items), "total": len(items)})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.IsInternal(err) {
		h.logger.Error(msg+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
