package roles_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazmin7552/p2/internal/platform/memstore"
	"github.com/jazmin7552/p2/internal/roles"
)

func TestRoles(t *testing.T) {
	svc := roles.NewService(memstore.New())
	ctx := context.Background()

	all, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, roles.Admin, all[0].Name)

	r, err := svc.CreateRole(ctx, " cajero ", " Cobra en caja ")
	require.NoError(t, err)
	assert.Equal(t, "CAJERO", r.Name)
	assert.Equal(t, "Cobra en caja", r.Description)

	_, err = svc.CreateRole(ctx, "Cajero", "")
	require.ErrorIs(t, err, roles.ErrDuplicateName)
	_, err = svc.CreateRole(ctx, "  ", "")
	require.ErrorIs(t, err, roles.ErrInvalidName)

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
	_, err = svc.Get(ctx, 99)
	require.ErrorIs(t, err, roles.ErrRoleNotFound)
}
