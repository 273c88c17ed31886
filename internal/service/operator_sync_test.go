package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mandil-capture-api/internal/cache"
	"mandil-capture-api/internal/model"

	"github.com/stretchr/testify/require"
)

func directory() []model.Operator {
	return []model.Operator{
		{ID: 1, Username: "jperez", Code: "1001", FirstName: "Juan", LastName: "Perez"},
		{ID: 2, Username: "mlopez", Code: "1002", FirstName: "Maria", LastName: "Lopez"},
	}
}

func TestSyncOperatorsWritesDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{operators: directory()}
	svc := NewOperatorSyncService(gw, store.Operators(), nil)

	count, err := svc.SyncOperators(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	op, err := store.Operators().FindByCodeOrUsername(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, op)
	require.Equal(t, "Juan", op.FirstName)
}

func TestSyncOperatorsIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{operators: directory()}
	svc := NewOperatorSyncService(gw, store.Operators(), nil)

	_, err := svc.SyncOperators(ctx)
	require.NoError(t, err)
	_, err = svc.SyncOperators(ctx)
	require.NoError(t, err)

	total, err := store.Operators().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestSyncOperatorsFailureLeavesTableUntouched(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gw := &fakeGateway{operators: directory()}
	svc := NewOperatorSyncService(gw, store.Operators(), nil)

	_, err := svc.SyncOperators(ctx)
	require.NoError(t, err)

	gw.fetchErr = errors.New("invalid operators response: data is not a list")

	_, err = svc.SyncOperators(ctx)
	require.Error(t, err)

	// The mirror still reflects the last successful pull.
	total, err := store.Operators().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	op, err := store.Operators().FindByCodeOrUsername(ctx, "mlopez")
	require.NoError(t, err)
	require.NotNil(t, op)
}

func TestSyncOperatorsClearsLookupCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lookupCache := cache.NewMemoryCache()
	defer lookupCache.Stop()
	require.NoError(t, lookupCache.Set(ctx, "1001", []byte(`{"first_name":"stale"}`), time.Minute))

	gw := &fakeGateway{operators: directory()}
	svc := NewOperatorSyncService(gw, store.Operators(), lookupCache)

	_, err := svc.SyncOperators(ctx)
	require.NoError(t, err)

	_, err = lookupCache.Get(ctx, "1001")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSyncOperatorsBusy(t *testing.T) {
	store := newTestStore(t)

	svc := NewOperatorSyncService(&fakeGateway{operators: directory()}, store.Operators(), nil)

	// Claim the flag by hand to simulate an in-flight pull.
	require.True(t, svc.tryBegin())
	defer svc.end()

	require.True(t, svc.IsSyncing())
	_, err := svc.SyncOperators(context.Background())
	require.ErrorIs(t, err, ErrSyncBusy)
}
