package roles

import (
	"fmt"
	"time"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// Seeded role names.
const (
	Admin  = "ADMIN"
	Waiter = "WAITER"
	Cook   = "COOK"
)

// Role groups users by what they do in the restaurant.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

var (
	ErrRoleNotFound  = fmt.Errorf("role %w", httpx.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("role name already exists: %w", httpx.ErrDuplicate)
	ErrInvalidName   = fmt.Errorf("role name must be 1 to 50 characters: %w", httpx.ErrBadRequest)
)
