package statuses

import (
	"fmt"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Seeded status names shared by orders and tables.
const (
	Pending    = "PENDING"
	InProgress = "IN_PROGRESS"
	Ready      = "READY"
	Served     = "SERVED"
	Paid       = "PAID"
	Cancelled  = "CANCELLED"
	Available  = "AVAILABLE"
	Occupied   = "OCCUPIED"
	Reserved   = "RESERVED"
)

// MaxNameLen bounds a status name.
const MaxNameLen = 20

// Status is a named state used by orders and dining tables.
type Status struct {
	ID   int64
	Name string
}

var (
	ErrStatusNotFound = fmt.Errorf("status %w", httpx.ErrNotFound)
	ErrDuplicateName  = fmt.Errorf("status name already exists: %w", httpx.ErrDuplicate)
	ErrInvalidName    = fmt.Errorf("status name must be 1 to %d characters: %w", MaxNameLen, httpx.ErrBadRequest)
	ErrStatusInUse    = fmt.Errorf("status is referenced by orders or tables: %w", httpx.ErrBadRequest)
)
