package heritage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-map/internal/geo"
	"heritage-map/internal/store"
)

func TestRepositorySaveMigratesIdentity(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	repo := NewRepository(mem)

	pt := PointRecord(Asset{ID: "centro", Title: "Centro", Status: StatusOK, Coordinates: geo.Point{Lat: -20, Lon: -43}})
	require.NoError(t, repo.Save(ctx, pt))
	ex, err := repo.Lookup(ctx, "centro")
	require.NoError(t, err)
	require.NotNil(t, ex.Point)
	assert.Nil(t, ex.Area)
	assert.False(t, ex.Point.UpdatedAt.IsZero())

	var area Area
	area.ID = "centro"
	area.ApplyGeometry([]geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}})
	require.NoError(t, repo.Save(ctx, AreaRecord(area)))

	ex, err = repo.Lookup(ctx, "centro")
	require.NoError(t, err)
	assert.Nil(t, ex.Point)
	require.NotNil(t, ex.Area)
	rec, ok := ex.Of(KindArea)
	require.True(t, ok)
	assert.True(t, rec.Resolved())
	_, ok = ex.Of(KindPoint)
	assert.False(t, ok)
	assert.Equal(t, 0, mem.Len(CollectionAssets))
}

func TestRepositoryRejectsMalformedRecords(t *testing.T) {
	repo := NewRepository(store.NewMemory())
	ctx := context.Background()
	assert.Error(t, repo.Save(ctx, Record{Kind: KindPoint}))
	assert.Error(t, repo.Save(ctx, Record{Kind: KindArea, Asset: &Asset{ID: "x"}}))
	assert.Error(t, repo.Save(ctx, PointRecord(Asset{})))
}

func TestRepositoryQueriesAndClear(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	repo := NewRepository(mem)

	require.NoError(t, repo.Save(ctx, PointRecord(Asset{ID: "a", City: "Mariana", Status: StatusOK})))
	require.NoError(t, repo.Save(ctx, PointRecord(Asset{ID: "b", City: "Mariana", Status: StatusNoResult})))
	require.NoError(t, repo.Save(ctx, PointRecord(Asset{ID: "c", City: "Serro", Status: StatusNeedsReview})))
	require.NoError(t, repo.Save(ctx, AreaRecord(Area{ID: "z", Status: StatusNeedsReview})))
	require.NoError(t, store.SetJSON(ctx, mem, CollectionCache, "k1", map[string]string{"id": "k1"}))
	// a document whose body carries no id is still removed
	require.NoError(t, mem.Set(ctx, CollectionCache, "legacy", store.Document(`{"q":"rua direita"}`)))

	mariana, err := repo.AssetsByCity(ctx, "Mariana")
	require.NoError(t, err)
	assert.Len(t, mariana, 2)

	review, err := repo.NeedingReview(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(review))
	for _, r := range review {
		ids = append(ids, r.ID())
	}
	assert.ElementsMatch(t, []string{"b", "c", "z"}, ids)

	areas, err := repo.Areas(ctx)
	require.NoError(t, err)
	assert.Len(t, areas, 1)

	n, err := repo.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assets, err := repo.Assets(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets)
	assert.Equal(t, 0, mem.Len(CollectionCache))
}
