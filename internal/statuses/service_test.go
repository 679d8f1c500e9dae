package statuses_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazmin7552/p2/internal/platform/memstore"
	"github.com/jazmin7552/p2/internal/statuses"
	"github.com/jazmin7552/p2/internal/tables"
)

func TestSeededStatuses(t *testing.T) {
	svc := statuses.NewService(memstore.New())
	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 9)
	assert.Equal(t, statuses.Pending, all[0].Name)

	st, err := svc.ByName(context.Background(), " in_progress ")
	require.NoError(t, err)
	assert.Equal(t, statuses.InProgress, st.Name)
}

func TestCreateUpdateDelete(t *testing.T) {
	svc := statuses.NewService(memstore.New())
	ctx := context.Background()

	st, err := svc.Create(ctx, "en espera")
	require.NoError(t, err)
	assert.Equal(t, "EN ESPERA", st.Name)

	_, err = svc.Create(ctx, "En Espera")
	require.ErrorIs(t, err, statuses.ErrDuplicateName)
	_, err = svc.Create(ctx, strings.Repeat("x", statuses.MaxNameLen+1))
	require.ErrorIs(t, err, statuses.ErrInvalidName)

	renamed, err := svc.Update(ctx, st.ID, "en cola")
	require.NoError(t, err)
	assert.Equal(t, "EN COLA", renamed.Name)
	same, err := svc.Update(ctx, st.ID, "EN COLA")
	require.NoError(t, err)
	assert.Equal(t, renamed, same)
	_, err = svc.Update(ctx, st.ID, statuses.Paid)
	require.ErrorIs(t, err, statuses.ErrDuplicateName)

	require.NoError(t, svc.Delete(ctx, st.ID))
	_, err = svc.Get(ctx, st.ID)
	require.ErrorIs(t, err, statuses.ErrStatusNotFound)
}

func TestDeleteStatusInUse(t *testing.T) {
	store := memstore.New()
	svc := statuses.NewService(store)
	ctx := context.Background()
	tbl, err := tables.NewService(store, svc, nil).Create(ctx, tables.CreateInput{Capacity: 2, Location: "barra"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, tbl.StatusID), statuses.ErrStatusInUse)
	require.ErrorIs(t, svc.Delete(ctx, 99), statuses.ErrStatusNotFound)
}
