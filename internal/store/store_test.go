package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-map/internal/migrate"
	"heritage-map/internal/store"
	"heritage-map/internal/utils"
)

type doc struct {
	ID       string       `json:"id"`
	Status   string       `json:"status"`
	Score    float64      `json:"score"`
	Geometry [][2]float64 `json:"geometry"`
}

func backends(t *testing.T) map[string]store.Store {
	t.Helper()
	db, err := utils.OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	require.NoError(t, migrate.EnsureSchema(db, "sqlite"))
	sq := store.AttachDB(db, store.SQLite)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]store.Store{
		"memory": store.NewMemory(),
		"sqlite": sq,
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "things", "missing")
			assert.True(t, errors.Is(err, store.ErrNotFound))

			a := doc{ID: "a", Status: "ok", Score: 0.95, Geometry: [][2]float64{{1, 2}, {3, 4}, {5, 6}, {1, 2}}}
			b := doc{ID: "b", Status: "needs_review", Score: 0.4}
			c := doc{ID: "c", Status: "ok", Score: 0.8}
			for _, d := range []doc{c, a, b} {
				require.NoError(t, store.SetJSON(ctx, s, "things", d.ID, d))
			}
			require.NoError(t, store.SetJSON(ctx, s, "others", "a", doc{ID: "a", Status: "ok"}))

			var got doc
			require.NoError(t, store.GetJSON(ctx, s, "things", "a", &got))
			assert.Equal(t, a, got, "nested geometry survives a roundtrip")

			all, err := s.List(ctx, "things")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			ids, err := s.IDs(ctx, "things")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, ids)

			ok, err := s.QueryByField(ctx, "things", "status", "ok")
			require.NoError(t, err)
			require.Len(t, ok, 2)

			// overwrite
			a.Status = "needs_review"
			require.NoError(t, store.SetJSON(ctx, s, "things", "a", a))
			ok, err = s.QueryByField(ctx, "things", "status", "ok")
			require.NoError(t, err)
			assert.Len(t, ok, 1)

			require.NoError(t, s.Delete(ctx, "things", "a"))
			require.NoError(t, s.Delete(ctx, "things", "a"), "deleting twice is fine")
			_, err = s.Get(ctx, "things", "a")
			assert.True(t, errors.Is(err, store.ErrNotFound))

			others, err := s.List(ctx, "others")
			require.NoError(t, err)
			assert.Len(t, others, 1)
		})
	}
}

func TestMemoryRejectsInvalidJSON(t *testing.T) {
	m := store.NewMemory()
	assert.Error(t, m.Set(context.Background(), "c", "id", store.Document("{nope")))
	assert.Equal(t, 0, m.Len("c"))
}
