package orders

import (
	"time"

	"github.com/jazmin7552/p2/internal/ledger"
)

type createRequest struct {
	TableID  int64      `json:"table_id" validate:"required,gt=0"`
	WaiterID string     `json:"waiter_id" validate:"required,max=20"`
	CookID   *string    `json:"cook_id" validate:"omitempty,max=20"`
	StatusID *int64     `json:"status_id" validate:"omitempty,gt=0"`
	PlacedAt *time.Time `json:"placed_at"`
}

type updateRequest struct {
	TableID  *int64     `json:"table_id" validate:"omitempty,gt=0"`
	WaiterID *string    `json:"waiter_id" validate:"omitempty,max=20"`
	CookID   *string    `json:"cook_id" validate:"omitempty,max=20"`
	StatusID *int64     `json:"status_id" validate:"omitempty,gt=0"`
	PlacedAt *time.Time `json:"placed_at"`
}

type orderResponse struct {
	ID       int64                 `json:"id"`
	PlacedAt time.Time             `json:"placed_at"`
	TableID  int64                 `json:"table_id"`
	WaiterID string                `json:"waiter_id"`
	CookID   *string               `json:"cook_id"`
	StatusID int64                 `json:"status_id"`
	Lines    []ledger.LineResponse `json:"lines"`
	Total    string                `json:"total"`
}

func toResponse(o Order) orderResponse {
	return orderResponse{
		ID:       o.ID,
		PlacedAt: o.PlacedAt,
		TableID:  o.TableID,
		WaiterID: o.WaiterID,
		CookID:   o.CookID,
		StatusID: o.StatusID,
		Lines:    ledger.ToResponses(o.Lines),
		Total:    o.Total().StringFixed(2),
	}
}

func toResponses(items []Order) []orderResponse {
	out := make([]orderResponse, 0, len(items))
	for _, o := range items {
		out = append(out, toResponse(o))
	}
	return out
}
