package tables

import (
	"fmt"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Table limits.
const (
	MinCapacity    = 1
	MaxCapacity    = 20
	MaxLocationLen = 50
)

// Table is a dining table orders are placed at.
type Table struct {
	ID       int64
	Capacity int
	Location string
	StatusID int64
}

// Filter narrows a table listing. Nil fields are ignored.
type Filter struct {
	StatusID    *int64
	MinCapacity *int
	Location    string
}

var (
	ErrTableNotFound   = fmt.Errorf("table %w", httpx.ErrNotFound)
	ErrInvalidCapacity = fmt.Errorf("capacity must be between %d and %d: %w", MinCapacity, MaxCapacity, httpx.ErrBadRequest)
	ErrInvalidLocation = fmt.Errorf("location must be 1 to %d characters: %w", MaxLocationLen, httpx.ErrBadRequest)
	ErrTableInUse      = fmt.Errorf("table has orders, change its status instead: %w", httpx.ErrBadRequest)
)
