package heritage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"heritage-map/internal/logger"
	"heritage-map/internal/store"
)

// Existing：同一 id 在点/面两个集合中的现存记录
type Existing struct {
	Point *Asset
	Area  *Area
}

// Of：取指定形态的现存记录
func (e Existing) Of(k Kind) (Record, bool) {
	if k == KindPoint && e.Point != nil {
		return PointRecord(*e.Point), true
	}
	if k == KindArea && e.Area != nil {
		return AreaRecord(*e.Area), true
	}
	return Record{}, false
}

// Repository：记录读写入口，保证同一 id 只以一种形态存在
type Repository struct {
	st  store.Store
	now func() time.Time
}

func NewRepository(st store.Store) *Repository {
	return &Repository{st: st, now: time.Now}
}

// Lookup：同时检查点与面集合
func (r *Repository) Lookup(ctx context.Context, id string) (Existing, error) {
	var ex Existing
	var a Asset
	switch err := store.GetJSON(ctx, r.st, CollectionAssets, id, &a); {
	case err == nil:
		ex.Point = &a
	case !errors.Is(err, store.ErrNotFound):
		return ex, err
	}
	var z Area
	switch err := store.GetJSON(ctx, r.st, CollectionAreas, id, &z); {
	case err == nil:
		ex.Area = &z
	case !errors.Is(err, store.ErrNotFound):
		return ex, err
	}
	return ex, nil
}

// Save：写入记录；先删除另一形态的同 id 记录（形态迁移），再写入本形态
func (r *Repository) Save(ctx context.Context, rec Record) error {
	id := rec.ID()
	if id == "" {
		return errors.New("heritage: record without id")
	}
	if err := r.st.Delete(ctx, rec.Kind.Opposite().Collection(), id); err != nil {
		return fmt.Errorf("clear %s %s: %w", rec.Kind.Opposite(), id, err)
	}
	var doc any
	switch rec.Kind {
	case KindPoint:
		if rec.Asset == nil {
			return errors.New("heritage: point record without asset")
		}
		rec.Asset.UpdatedAt = r.now().UTC()
		doc = rec.Asset
	case KindArea:
		if rec.Area == nil {
			return errors.New("heritage: area record without area")
		}
		rec.Area.UpdatedAt = r.now().UTC()
		doc = rec.Area
	default:
		return fmt.Errorf("heritage: unknown kind %q", rec.Kind)
	}
	if err := store.SetJSON(ctx, r.st, rec.Kind.Collection(), id, doc); err != nil {
		return fmt.Errorf("save %s %s: %w", rec.Kind, id, err)
	}
	logger.L().Debug("record_saved", "id", id, "kind", rec.Kind, "status", rec.Status())
	return nil
}

// Delete：删除指定形态的记录
func (r *Repository) Delete(ctx context.Context, k Kind, id string) error {
	return r.st.Delete(ctx, k.Collection(), id)
}

// Areas：全部保护区
func (r *Repository) Areas(ctx context.Context) ([]Area, error) {
	docs, err := r.st.List(ctx, CollectionAreas)
	if err != nil {
		return nil, err
	}
	return decodeAll[Area](docs)
}

// Assets：全部点状资产
func (r *Repository) Assets(ctx context.Context) ([]Asset, error) {
	docs, err := r.st.List(ctx, CollectionAssets)
	if err != nil {
		return nil, err
	}
	return decodeAll[Asset](docs)
}

// AssetsByCity：按城市筛选点状资产
func (r *Repository) AssetsByCity(ctx context.Context, city string) ([]Asset, error) {
	docs, err := r.st.QueryByField(ctx, CollectionAssets, "city", city)
	if err != nil {
		return nil, err
	}
	return decodeAll[Asset](docs)
}

// NeedingReview：待复核记录（点含 needs_review 与 no_result）
func (r *Repository) NeedingReview(ctx context.Context) ([]Record, error) {
	var out []Record
	for _, st := range []Status{StatusNeedsReview, StatusNoResult} {
		docs, err := r.st.QueryByField(ctx, CollectionAssets, "status", string(st))
		if err != nil {
			return nil, err
		}
		assets, err := decodeAll[Asset](docs)
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			out = append(out, PointRecord(a))
		}
	}
	docs, err := r.st.QueryByField(ctx, CollectionAreas, "status", string(StatusNeedsReview))
	if err != nil {
		return nil, err
	}
	areas, err := decodeAll[Area](docs)
	if err != nil {
		return nil, err
	}
	for _, a := range areas {
		out = append(out, AreaRecord(a))
	}
	return out, nil
}

// ClearAll：按存储层 id 清空点、面与地理编码缓存三个集合，不依赖文档内容；是否确认由调用方负责
func (r *Repository) ClearAll(ctx context.Context) (int, error) {
	n := 0
	for _, c := range []string{CollectionAssets, CollectionAreas, CollectionCache} {
		ids, err := r.st.IDs(ctx, c)
		if err != nil {
			return n, err
		}
		for _, id := range ids {
			if err := r.st.Delete(ctx, c, id); err != nil {
				return n, err
			}
			n++
		}
	}
	logger.L().Info("records_cleared", "count", n)
	return n, nil
}

func decodeAll[T any](docs []store.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
