package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"heritage-map/internal/gazetteer"
	"heritage-map/internal/heritage"
	"heritage-map/internal/logger"
	"heritage-map/internal/metrics"
	"heritage-map/internal/store"
	"heritage-map/internal/timeutil"
)

// 命中来源
const (
	SourceMemory    = "memory"
	SourceRedis     = "redis"
	SourceStore     = "store"
	SourceGazetteer = "gazetteer"
)

// Entry：缓存条目；Found 为 false 表示外部检索确认无匹配，同样缓存
type Entry struct {
	ID              string            `json:"id"`
	NormalizedQuery string            `json:"normalizedQuery"`
	Query           string            `json:"query"`
	Found           bool              `json:"found"`
	Result          *gazetteer.Result `json:"result,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`

	Source string `json:"-"`
}

// EntryID：由缓存键派生的确定性 id，并发写入同一查询时落在同一文档
func EntryID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:12])
}

// Options：可选层级
type Options struct {
	LRUSize  int
	Redis    *redis.Client
	RedisTTL time.Duration
	// MissTTL：无匹配条目的有效期，过期后重新检索；0 表示永久有效
	MissTTL  time.Duration
	Clock    timeutil.Clock
}

// Cache：只追加的地理编码缓存，按归一化查询精确匹配；过期的无匹配条目由重新检索的结果覆盖
type Cache struct {
	st    store.Store
	gz    gazetteer.Searcher
	norm  Normalizer
	mem   *lru[Entry]
	rc    *redis.Client
	ttl   time.Duration
	miss  time.Duration
	clock timeutil.Clock

	flight singleflight.Group
}

func New(st store.Store, gz gazetteer.Searcher, norm Normalizer, opt Options) *Cache {
	if opt.Clock == nil {
		opt.Clock = timeutil.RealClock{}
	}
	if opt.RedisTTL <= 0 {
		opt.RedisTTL = 30 * 24 * time.Hour
	}
	return &Cache{
		st:    st,
		gz:    gz,
		norm:  norm,
		mem:   newLRU[Entry](opt.LRUSize, 0),
		rc:    opt.Redis,
		ttl:   opt.RedisTTL,
		miss:  opt.MissTTL,
		clock: opt.Clock,
	}
}

// Resolve：归一化地址后查缓存，未命中时调用外部检索并写回
func (c *Cache) Resolve(ctx context.Context, address, city string) (Entry, error) {
	return c.Lookup(ctx, c.norm.Query(address, city))
}

// Lookup：按查询串逐级查找
// 外部检索失败时返回 gazetteer.ErrUpstream 且不写缓存；持久化失败原样上抛
func (c *Cache) Lookup(ctx context.Context, query string) (Entry, error) {
	key := Key(query)
	if key == "" {
		return Entry{}, errors.New("geocode: empty query")
	}
	if e, ok := c.mem.Get(key); ok && !c.expired(e) {
		metrics.GeocodeCacheHitsTotal.WithLabelValues(SourceMemory).Inc()
		e.Source = SourceMemory
		return e, nil
	}
	if e, ok := c.fromRedis(ctx, key); ok && !c.expired(e) {
		metrics.GeocodeCacheHitsTotal.WithLabelValues(SourceRedis).Inc()
		c.mem.Set(key, e)
		e.Source = SourceRedis
		return e, nil
	}
	docs, err := c.st.QueryByField(ctx, heritage.CollectionCache, "normalizedQuery", key)
	if err != nil {
		return Entry{}, fmt.Errorf("query geocode cache: %w", err)
	}
	if len(docs) > 0 {
		var e Entry
		switch err := json.Unmarshal(docs[0], &e); {
		case err != nil:
			logger.L().Warn("geocode_cache_corrupt", "key", key)
		case c.expired(e):
			logger.L().Info("geocode_miss_expired", "query", query, "cached_at", e.Timestamp)
		default:
			metrics.GeocodeCacheHitsTotal.WithLabelValues(SourceStore).Inc()
			c.mem.Set(key, e)
			c.toRedis(ctx, e)
			e.Source = SourceStore
			return e, nil
		}
	}

	// 同一键的并发未命中合并为一次外部检索
	v, err, _ := c.flight.Do(key, func() (any, error) {
		return c.fetch(ctx, key, query)
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

// expired：只有无匹配条目会过期；同 id 重新写入即覆盖旧条目
func (c *Cache) expired(e Entry) bool {
	return !e.Found && c.miss > 0 && c.clock.Since(e.Timestamp) >= c.miss
}

func (c *Cache) fetch(ctx context.Context, key, query string) (Entry, error) {
	metrics.GeocodeCacheMissesTotal.Inc()
	res, err := c.gz.Search(ctx, query)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:              EntryID(key),
		NormalizedQuery: key,
		Query:           query,
		Found:           res != nil,
		Result:          res,
		Timestamp:       c.clock.Now().UTC(),
	}
	if err := store.SetJSON(ctx, c.st, heritage.CollectionCache, e.ID, e); err != nil {
		return Entry{}, fmt.Errorf("write geocode cache: %w", err)
	}
	c.mem.Set(key, e)
	c.toRedis(ctx, e)
	logger.L().Debug("geocode_cached", "query", query, "found", e.Found)
	e.Source = SourceGazetteer
	return e, nil
}

// Purge：清空进程内层级；持久化集合由 Repository.ClearAll 负责
func (c *Cache) Purge(ctx context.Context) {
	c.mem.Purge()
	if c.rc == nil {
		return
	}
	iter := c.rc.Scan(ctx, 0, redisPrefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		if err := c.rc.Del(ctx, keys...).Err(); err != nil {
			logger.L().Warn("geocode_redis_purge_error", "err", err)
		}
	}
}

const redisPrefix = "geocode:"

// Redis 层只是加速，读写失败都降级为未命中
func (c *Cache) fromRedis(ctx context.Context, key string) (Entry, bool) {
	if c.rc == nil {
		return Entry{}, false
	}
	s, err := c.rc.Get(ctx, redisPrefix+EntryID(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("geocode_redis_get_error", "err", err)
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal([]byte(s), &e); err != nil || e.NormalizedQuery != key {
		return Entry{}, false
	}
	return e, true
}

func (c *Cache) toRedis(ctx context.Context, e Entry) {
	if c.rc == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.rc.Set(ctx, redisPrefix+e.ID, string(b), c.ttl).Err(); err != nil {
		logger.L().Debug("geocode_redis_set_error", "err", err)
	}
}
