package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jazmin7552/p2/internal/orders"
	"github.com/jazmin7552/p2/internal/platform/memstore"
	"github.com/jazmin7552/p2/internal/roles"
	"github.com/jazmin7552/p2/internal/tables"
	"github.com/jazmin7552/p2/internal/users"
)

func newUsers(t *testing.T) (*users.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return users.NewService(store, roles.NewService(store)).WithHashCost(bcrypt.MinCost), store
}

func TestCreateHashesPassword(t *testing.T) {
	svc, _ := newUsers(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, users.CreateInput{ID: " W001 ", Name: " Ana ", Email: "Ana@Example.com", Password: "secret123", RoleID: 2})
	require.NoError(t, err)
	assert.Equal(t, "W001", u.ID)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	ok, err := svc.CheckPassword(ctx, u.ID, "secret123")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.CheckPassword(ctx, u.ID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRejections(t *testing.T) {
	svc, _ := newUsers(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, users.CreateInput{ID: "W001", Email: "a@example.com", Password: "secret123", RoleID: 2})
	require.NoError(t, err)

	cases := []struct {
		name  string
		input users.CreateInput
		want  error
	}{
		{"blank id", users.CreateInput{ID: " ", Email: "b@example.com", Password: "secret123", RoleID: 2}, users.ErrInvalidID},
		{"long id", users.CreateInput{ID: "ABCDEFGHIJKLMNOPQRSTU", Email: "b@example.com", Password: "secret123", RoleID: 2}, users.ErrInvalidID},
		{"no password", users.CreateInput{ID: "W002", Email: "b@example.com", RoleID: 2}, users.ErrPasswordMissing},
		{"taken id", users.CreateInput{ID: "W001", Email: "b@example.com", Password: "secret123", RoleID: 2}, users.ErrDuplicateID},
		{"taken email", users.CreateInput{ID: "W002", Email: "A@example.com", Password: "secret123", RoleID: 2}, users.ErrDuplicateEmail},
		{"unknown role", users.CreateInput{ID: "W002", Email: "b@example.com", Password: "secret123", RoleID: 99}, roles.ErrRoleNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newUsers(t)
	ctx := context.Background()
	for _, in := range []users.CreateInput{
		{ID: "W001", Email: "a@example.com", Password: "secret123", RoleID: 2},
		{ID: "C001", Email: "c@example.com", Password: "secret123", RoleID: 3},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}
	taken := "c@example.com"
	_, err := svc.Update(ctx, "W001", users.UpdateInput{Email: &taken})
	require.ErrorIs(t, err, users.ErrDuplicateEmail)

	name, pass, role := "Ana María", "another-secret", int64(1)
	u, err := svc.Update(ctx, "W001", users.UpdateInput{Name: &name, Password: &pass, RoleID: &role})
	require.NoError(t, err)
	assert.Equal(t, name, u.Name)
	assert.Equal(t, role, u.RoleID)
	ok, err := svc.CheckPassword(ctx, "W001", pass)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Update(ctx, "nobody", users.UpdateInput{Name: &name})
	require.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestDeleteUserInUse(t *testing.T) {
	svc, store := newUsers(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, users.CreateInput{ID: "W001", Email: "a@example.com", Password: "secret123", RoleID: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, users.CreateInput{ID: "W002", Email: "b@example.com", Password: "secret123", RoleID: 2})
	require.NoError(t, err)
	tbl, err := store.CreateTable(ctx, tables.Table{Capacity: 2, Location: "BARRA", StatusID: 7})
	require.NoError(t, err)
	err = store.Orders().WithTx(ctx, func(ctx context.Context, tx orders.TxRepository) error {
		_, err := tx.InsertOrder(ctx, orders.Order{PlacedAt: time.Now(), TableID: tbl.ID, WaiterID: "W001", StatusID: 1})
		return err
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, "W001"), users.ErrUserInUse)
	require.NoError(t, svc.Delete(ctx, "W002"))
	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
