package ledger

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/shared"
)

const idempotencyModule = "order-lines"

// Handler exposes order lines over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	idem      *shared.IdempotencyStore
	validator *validator.Validate
}

// NewHandler builds Handler. idem may be nil.
func NewHandler(logger *slog.Logger, service *Service, idem *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idem: idem, validator: validator.New()}
}

// MountRoutes registers order line routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/order-lines", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Get("/order/{orderID}", h.listByOrder)
		r.Delete("/order/{orderID}", h.removeAllForOrder)
		r.Get("/product/{productID}", h.listByProduct)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list lines", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponses(lines))
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get(shared.IdempotencyHeader)
	if key != "" {
		if err := h.idem.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			h.fail(w, "claim idempotency key", err)
			return
		}
	}
	line, err := h.service.AddLine(r.Context(), AddLineInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		if key != "" {
			_ = h.idem.Delete(r.Context(), key, idempotencyModule)
		}
		h.fail(w, "add line", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(line))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	line, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(line))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	line, err := h.service.UpdateLine(r.Context(), id, UpdateLineInput(req))
	if err != nil {
		h.fail(w, "update line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(line))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RemoveLine(r.Context(), id); err != nil {
		h.fail(w, "remove line", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.URLParamInt64(r, "orderID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.fail(w, "list lines by order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Lines []LineResponse `json:"lines"`
		Total string         `json:"total"`
	}{ToResponses(lines), Total(lines).StringFixed(2)})
}

func (h *Handler) removeAllForOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.URLParamInt64(r, "orderID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	removed, err := h.service.RemoveAllLinesForOrder(r.Context(), orderID)
	if err != nil {
		h.fail(w, "remove order lines", err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Removed int `json:"removed"`
	}{len(removed)})
}

func (h *Handler) listByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.URLParamInt64(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		h.fail(w, "list lines by product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponses(lines))
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.IsInternal(err) {
		h.logger.Error(msg+" failed", slog.Any("error", err))
	} else {
		h.logger.Debug(msg+" rejected", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
