package repository

import (
	"context"
	"path/filepath"
	"testing"

	"mandil-capture-api/internal/model"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testDelivery(uuid, date string, shift model.Shift) *model.Delivery {
	return &model.Delivery{
		UUID:               uuid,
		RegistrationDate:   date,
		Shift:              shift,
		OperatorCode:       "OP-001",
		ProductDisplayed:   true,
		ApronClean:         true,
		ApronGoodCondition: false,
		Notes:              "left strap worn",
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same file must not fail or lose data.
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestInsertDefaultsToPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Deliveries().Insert(ctx, testDelivery("uuid-1", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	d, err := store.Deliveries().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Equal(t, model.StatusPending, d.SendStatus)
	require.Equal(t, "uuid-1", d.UUID)
	require.Equal(t, "OP-001", d.OperatorCode)
	require.True(t, d.ProductDisplayed)
	require.False(t, d.ApronGoodCondition)
	require.Empty(t, d.ErrorMessage)
}

func TestSaveSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	id, err := store.Deliveries().Insert(ctx, testDelivery("uuid-crash", "2026-08-31", model.ShiftNight))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Simulated restart: the record must still be there as PENDING.
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	d, err := store.Deliveries().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Equal(t, model.StatusPending, d.SendStatus)
}

func TestInsertRejectsDuplicateUUID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Deliveries().Insert(ctx, testDelivery("dup", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)

	_, err = store.Deliveries().Insert(ctx, testDelivery("dup", "2026-08-31", model.ShiftDay))
	require.Error(t, err)
}

func TestListFiltersAndOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Deliveries()

	for _, d := range []*model.Delivery{
		testDelivery("a", "2026-08-30", model.ShiftDay),
		testDelivery("b", "2026-08-31", model.ShiftDay),
		testDelivery("c", "2026-08-31", model.ShiftNight),
		testDelivery("d", "2026-08-31", model.ShiftDay),
	} {
		_, err := repo.Insert(ctx, d)
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, "2026-08-31", "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	// Descending local id.
	require.Equal(t, "d", list[0].UUID)
	require.Equal(t, "c", list[1].UUID)
	require.Equal(t, "b", list[2].UUID)

	dayOnly, err := repo.List(ctx, "2026-08-31", model.ShiftDay)
	require.NoError(t, err)
	require.Len(t, dayOnly, 2)
	for _, d := range dayOnly {
		require.Equal(t, model.ShiftDay, d.Shift)
	}
}

func TestListUnsentSkipsSentAndKeepsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Deliveries()

	idA, err := repo.Insert(ctx, testDelivery("a", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, testDelivery("b", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)
	idC, err := repo.Insert(ctx, testDelivery("c", "2026-09-01", model.ShiftDay))
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(ctx, idA))
	require.NoError(t, repo.MarkError(ctx, idC, "connection refused"))

	unsent, err := repo.ListUnsent(ctx, "")
	require.NoError(t, err)
	require.Len(t, unsent, 2)
	require.Equal(t, "b", unsent[0].UUID)
	require.Equal(t, "c", unsent[1].UUID)

	filtered, err := repo.ListUnsent(ctx, "2026-09-01")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "c", filtered[0].UUID)
	require.Equal(t, model.StatusError, filtered[0].SendStatus)
	require.Equal(t, "connection refused", filtered[0].ErrorMessage)
}

func TestMarkSentClearsErrorMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Deliveries()

	id, err := repo.Insert(ctx, testDelivery("x", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)

	require.NoError(t, repo.MarkError(ctx, id, "timeout"))
	d, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusError, d.SendStatus)
	require.Equal(t, "timeout", d.ErrorMessage)

	require.NoError(t, repo.MarkSent(ctx, id))
	d, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusSent, d.SendStatus)
	require.Empty(t, d.ErrorMessage)
}

func TestCountByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Deliveries()

	idA, err := repo.Insert(ctx, testDelivery("a", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)
	idB, err := repo.Insert(ctx, testDelivery("b", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, testDelivery("c", "2026-08-31", model.ShiftNight))
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(ctx, idA))
	require.NoError(t, repo.MarkError(ctx, idB, "rejected"))

	counts, err := repo.CountByStatus(ctx, "2026-08-31", "")
	require.NoError(t, err)
	require.Equal(t, model.StatusCounts{Total: 3, Sent: 1, Unsent: 2, Errored: 1}, counts)

	dayCounts, err := repo.CountByStatus(ctx, "2026-08-31", model.ShiftDay)
	require.NoError(t, err)
	require.Equal(t, model.StatusCounts{Total: 2, Sent: 1, Unsent: 1, Errored: 1}, dayCounts)
}

func TestDeleteDelivery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Deliveries()

	id, err := repo.Insert(ctx, testDelivery("gone", "2026-08-31", model.ShiftDay))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	d, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Nil(t, d)
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	d, err := store.Deliveries().GetByID(context.Background(), 9999)
	require.NoError(t, err)
	require.Nil(t, d)
}
