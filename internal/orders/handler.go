package orders

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Handler exposes orders over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/active", h.active)
		r.Get("/today", h.today)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}/status/{statusID}", h.changeStatus)
		r.Get("/{id}/total", h.total)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter Filter
	var err error
	if filter.TableID, err = httpx.QueryInt64(r, "table_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filter.StatusID, err = httpx.QueryInt64(r, "status_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if v := r.URL.Query().Get("waiter_id"); v != "" {
		filter.WaiterID = &v
	}
	if v := r.URL.Query().Get("cook_id"); v != "" {
		filter.CookID = &v
	}
	if filter.From, err = queryTime(r, "from"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(items))
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Active(r.Context())
	if err != nil {
		h.fail(w, "list active orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(items))
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Today(r.Context())
	if err != nil {
		h.fail(w, "list today's orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(items))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Create(r.Context(), CreateOrderInput(req))
	if err != nil {
		h.fail(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Update(r.Context(), id, UpdateOrderInput(req))
	if err != nil {
		h.fail(w, "update order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	statusID, err := httpx.URLParamInt64(r, "statusID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.ChangeStatus(r.Context(), id, statusID)
	if err != nil {
		h.fail(w, "change order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete order", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) total(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	total, err := h.service.Total(r.Context(), id)
	if err != nil {
		h.fail(w, "order total", err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		OrderID int64  `json:"order_id"`
		Total   string `json:"total"`
	}{id, total.StringFixed(2)})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.IsInternal(err) {
		h.logger.Error(msg+" failed", slog.Any("error", err))
	} else {
		h.logger.Debug(msg+" rejected", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// queryTime accepts RFC 3339 timestamps or plain dates.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: expected RFC 3339 time or YYYY-MM-DD: %w", name, httpx.ErrBadRequest)
}
