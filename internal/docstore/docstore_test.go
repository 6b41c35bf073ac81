package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = []string{"name", "phonenumber", "medicines"}

func TestCreateAssignsUniqueStableIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	first, err := store.Create(ctx, Record{"name": "Client A"})
	require.NoError(t, err)
	second, err := store.Create(ctx, Record{"name": "Client B"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())

	got, err := store.Get(ctx, IDField, first.ID())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID(), got[0].ID())
	assert.Equal(t, "Client A", got[0]["name"])
}

func TestCreateAppliesSchema(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	rec, err := store.Create(ctx, Record{
		"name":    "Client A",
		"unknown": "dropped",
	})
	require.NoError(t, err)

	assert.NotContains(t, rec, "unknown")
	assert.Equal(t, "", rec["phonenumber"], "missing schema fields default to empty string")
	assert.Equal(t, "", rec["medicines"])
}

func TestGetNoMatchIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	got, err := store.Get(ctx, "name", "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateChangesOnlyNamedFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	rec, err := store.Create(ctx, Record{"name": "Client A", "phonenumber": "111"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, Record{"phonenumber": "222"}, IDField, rec.ID())
	require.NoError(t, err)
	require.Len(t, updated, 1)

	assert.Equal(t, "222", updated[0]["phonenumber"])
	assert.Equal(t, "Client A", updated[0]["name"])
	assert.Equal(t, rec.ID(), updated[0].ID())
}

func TestUpdateRejectsID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	rec, err := store.Create(ctx, Record{"name": "Client A"})
	require.NoError(t, err)

	_, err = store.Update(ctx, Record{IDField: int64(99)}, IDField, rec.ID())
	assert.ErrorIs(t, err, ErrImmutableID)

	got, err := store.Get(ctx, IDField, rec.ID())
	require.NoError(t, err)
	require.Len(t, got, 1, "record must be left unmodified")
	assert.Equal(t, "Client A", got[0]["name"])
}

func TestUpdateMatchesByField(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	_, err := store.Create(ctx, Record{"name": "dup", "phonenumber": "1"})
	require.NoError(t, err)
	_, err = store.Create(ctx, Record{"name": "dup", "phonenumber": "2"})
	require.NoError(t, err)
	_, err = store.Create(ctx, Record{"name": "other", "phonenumber": "3"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, Record{"phonenumber": "0"}, "name", "dup")
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	untouched, err := store.Get(ctx, "name", "other")
	require.NoError(t, err)
	require.Len(t, untouched, 1)
	assert.Equal(t, "3", untouched[0]["phonenumber"])
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	rec, err := store.Create(ctx, Record{"name": "Client A"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, IDField, rec.ID()))

	got, err := store.Get(ctx, IDField, rec.ID())
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting again is a no-op, not an error.
	assert.NoError(t, store.Delete(ctx, IDField, rec.ID()))
}

func TestIDsNeverReused(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	first, err := store.Create(ctx, Record{"name": "Client A"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, IDField, first.ID()))

	second, err := store.Create(ctx, Record{"name": "Client B"})
	require.NoError(t, err)
	assert.Greater(t, second.ID(), first.ID())
}

func TestGetAllReturnsEveryRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	for _, name := range []string{"a", "b", "c"} {
		_, err := store.Create(ctx, Record{"name": name})
		require.NoError(t, err)
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordsAreIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testSchema)

	rec, err := store.Create(ctx, Record{"name": "Client A"})
	require.NoError(t, err)

	rec["name"] = "mutated"

	got, err := store.Get(ctx, IDField, rec.ID())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Client A", got[0]["name"])
}

func TestEqualValuesAcrossNumericTypes(t *testing.T) {
	assert.True(t, equalValues(int64(3), float64(3)))
	assert.True(t, equalValues(float64(3), int64(3)))
	assert.False(t, equalValues(int64(3), int64(4)))
	assert.True(t, equalValues("x", "x"))
	assert.False(t, equalValues("3", int64(3)))
}
