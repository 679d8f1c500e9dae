package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/roles"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id string) error
	UserHasOrders(ctx context.Context, id string) (bool, error)
}

// RoleResolver looks roles up by id.
type RoleResolver interface {
	Get(ctx context.Context, id int64) (roles.Role, error)
}

// CreateInput carries a new account.
type CreateInput struct {
	ID       string
	Name     string
	Email    string
	Password string
	RoleID   int64
}

// UpdateInput changes an account. Nil fields are left unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	RoleID   *int64
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleResolver
	cost  int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleResolver) *Service {
	return &Service{repo: repo, roles: roles, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// Create validates and stores an account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	input.ID = strings.TrimSpace(input.ID)
	if input.ID == "" || len(input.ID) > MaxIDLen {
		return User{}, ErrInvalidID
	}
	if input.Password == "" {
		return User{}, ErrPasswordMissing
	}
	if _, err := s.repo.GetUser(ctx, input.ID); err == nil {
		return User{}, fmt.Errorf("%w: %s", ErrDuplicateID, input.ID)
	} else if !errors.Is(err, httpx.ErrNotFound) {
		return User{}, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.checkEmail(ctx, email, ""); err != nil {
		return User{}, err
	}
	if _, err := s.roles.Get(ctx, input.RoleID); err != nil {
		return User{}, err
	}
	hash, err := s.hash(input.Password)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, User{
		ID:           input.ID,
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		RoleID:       input.RoleID,
	})
}

// Update applies the non-nil fields of input.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != u.Email {
			if err := s.checkEmail(ctx, email, id); err != nil {
				return User{}, err
			}
			u.Email = email
		}
	}
	if input.RoleID != nil {
		if _, err := s.roles.Get(ctx, *input.RoleID); err != nil {
			return User{}, err
		}
		u.RoleID = *input.RoleID
	}
	if input.Password != nil && *input.Password != "" {
		if u.PasswordHash, err = s.hash(*input.Password); err != nil {
			return User{}, err
		}
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete removes an account that is not assigned to any order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetUser(ctx, id); err != nil {
		return err
	}
	used, err := s.repo.UserHasOrders(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: %s", ErrUserInUse, id)
	}
	return s.repo.DeleteUser(ctx, id)
}

// CheckPassword reports whether password matches the stored hash.
func (s *Service) CheckPassword(ctx context.Context, id, password string) (bool, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil, nil
}

func (s *Service) checkEmail(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.UserByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
	case err != nil && !errors.Is(err, httpx.ErrNotFound):
		return err
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(b), nil
}
