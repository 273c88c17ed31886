package repository

import (
	"context"
	"testing"

	"mandil-capture-api/internal/model"

	"github.com/stretchr/testify/require"
)

func testOperators() []model.Operator {
	return []model.Operator{
		{ID: 1, Username: "jperez", Code: "1001", FirstName: "Juan", LastName: "Perez", UpdatedAt: "2026-08-01 10:00:00"},
		{ID: 2, Username: "mlopez", Code: "1002", FirstName: "Maria", LastName: "Lopez", UpdatedAt: "2026-08-01 10:00:00"},
	}
}

func TestReplaceAllUpsertsByPrimaryKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Operators()

	count, err := repo.ReplaceAll(ctx, testOperators())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Same payload again: last writer wins, no growth.
	count, err = repo.ReplaceAll(ctx, testOperators())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	// A changed entry overwrites all fields for that id.
	updated := testOperators()
	updated[0].FirstName = "Juan Carlos"
	_, err = repo.ReplaceAll(ctx, updated)
	require.NoError(t, err)

	op, err := repo.FindByCodeOrUsername(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, op)
	require.Equal(t, "Juan Carlos", op.FirstName)
}

func TestReplaceAllIsAdditive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Operators()

	_, err := repo.ReplaceAll(ctx, testOperators())
	require.NoError(t, err)

	// A shrunken directory leaves stale rows in place.
	_, err = repo.ReplaceAll(ctx, testOperators()[:1])
	require.NoError(t, err)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestFindByCodeOrUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := store.Operators()

	_, err := repo.ReplaceAll(ctx, testOperators())
	require.NoError(t, err)

	byCode, err := repo.FindByCodeOrUsername(ctx, "1002")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	require.Equal(t, "mlopez", byCode.Username)

	byUsername, err := repo.FindByCodeOrUsername(ctx, "jperez")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	require.Equal(t, "1001", byUsername.Code)

	missing, err := repo.FindByCodeOrUsername(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestPreferenceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	prefs := store.Preferences()

	value, err := prefs.Get(ctx, PrefShiftKey)
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, prefs.Set(ctx, PrefShiftKey, "NIGHT"))
	require.NoError(t, prefs.Set(ctx, PrefShiftKey, "DAY"))

	value, err = prefs.Get(ctx, PrefShiftKey)
	require.NoError(t, err)
	require.Equal(t, "DAY", value)
}
