package users

import (
	"fmt"
	"time"

	"github.com/jazmin7552/p2/internal/platform/httpx"
)

// MaxIDLen bounds the explicit user identifier.
const MaxIDLen = 20

// User is a staff account. ID is chosen by the caller, for example an employee code.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	RoleID       int64
	CreatedAt    time.Time
}

var (
	ErrUserNotFound    = fmt.Errorf("user %w", httpx.ErrNotFound)
	ErrDuplicateID     = fmt.Errorf("user id already exists: %w", httpx.ErrDuplicate)
	ErrDuplicateEmail  = fmt.Errorf("email already registered: %w", httpx.ErrDuplicate)
	ErrInvalidID       = fmt.Errorf("user id must be 1 to %d characters: %w", MaxIDLen, httpx.ErrBadRequest)
	ErrPasswordMissing = fmt.Errorf("password is required: %w", httpx.ErrBadRequest)
	ErrUserInUse       = fmt.Errorf("user is assigned to orders: %w", httpx.ErrBadRequest)
)
