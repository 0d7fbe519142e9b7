// 包 importer：把原始记录逐条转成已编码、已分类的文物记录（分类 → 去重判断 → 缓存或检索 → 冲突处理 → 写入）
package importer

import (
	"context"
	"errors"
	"fmt"

	"heritage-map/internal/gazetteer"
	"heritage-map/internal/geo"
	"heritage-map/internal/geocode"
	"heritage-map/internal/heritage"
	"heritage-map/internal/logger"
	"heritage-map/internal/metrics"
	"heritage-map/internal/route"
)

// ErrNoTitle：标题为空无法派生 id
var ErrNoTitle = errors.New("importer: record without title")

// Outcome：单条任务结果
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result：单条任务的处理摘要
type Result struct {
	ID      string          `json:"id"`
	Kind    heritage.Kind   `json:"kind"`
	Outcome Outcome         `json:"outcome"`
	Status  heritage.Status `json:"status,omitempty"`
	Source  string          `json:"source,omitempty"`
}

// Resolver：地理编码缓存能力，由 geocode.Cache 实现
type Resolver interface {
	Resolve(ctx context.Context, address, city string) (geocode.Entry, error)
}

// Pipeline：单条记录处理流程
type Pipeline struct {
	repo   *heritage.Repository
	geo    Resolver
	policy heritage.Policy
	graph  *route.Graph
}

// NewPipeline：graph 可为空，为空时不分配最近路网节点
func NewPipeline(repo *heritage.Repository, r Resolver, policy heritage.Policy, graph *route.Graph) *Pipeline {
	return &Pipeline{repo: repo, geo: r, policy: policy, graph: graph}
}

// Process：处理一条原始记录
// 约束：外部检索无结果或失败只降级状态；只有持久化失败返回错误
func (p *Pipeline) Process(ctx context.Context, raw heritage.RawRecord) (Result, error) {
	kind := p.policy.Classify(raw)
	res := Result{ID: raw.ID(), Kind: kind}
	if res.ID == "" {
		res.Outcome = OutcomeFailed
		return res, ErrNoTitle
	}
	ex, err := p.repo.Lookup(ctx, res.ID)
	if err != nil {
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("lookup %s: %w", res.ID, err)
	}
	// 去重判断放在外部检索之前，重复导入不消耗配额
	if !raw.HasManualCoordinates() {
		if cur, ok := ex.Of(kind); ok && cur.Resolved() {
			res.Outcome = OutcomeSkipped
			res.Status = cur.Status()
			metrics.ImportTasksTotal.WithLabelValues(string(kind), string(OutcomeSkipped)).Inc()
			logger.L().Debug("import_task_skipped", "id", res.ID, "kind", kind)
			return res, nil
		}
	}

	var rec heritage.Record
	if kind == heritage.KindArea {
		rec, res.Source, err = p.area(ctx, raw, res.ID)
	} else {
		rec, res.Source, err = p.point(ctx, raw, res.ID)
	}
	if err != nil {
		res.Outcome = OutcomeFailed
		metrics.ImportTasksTotal.WithLabelValues(string(kind), string(OutcomeFailed)).Inc()
		return res, err
	}
	if ex.Point != nil && kind == heritage.KindArea {
		logger.L().Info("record_migrated", "id", res.ID, "from", heritage.KindPoint, "to", heritage.KindArea)
	}
	if err := p.repo.Save(ctx, rec); err != nil {
		res.Outcome = OutcomeFailed
		metrics.ImportTasksTotal.WithLabelValues(string(kind), string(OutcomeFailed)).Inc()
		return res, err
	}
	res.Outcome = OutcomeWritten
	res.Status = rec.Status()
	metrics.ImportTasksTotal.WithLabelValues(string(kind), string(OutcomeWritten)).Inc()
	logger.L().Info("import_task_done", "id", res.ID, "kind", kind, "status", res.Status, "source", res.Source)
	return res, nil
}

func (p *Pipeline) point(ctx context.Context, raw heritage.RawRecord, id string) (heritage.Record, string, error) {
	a := heritage.Asset{
		ID:          id,
		Title:       raw.Title,
		City:        raw.City,
		AddressText: raw.Address,
	}
	source := "manual"
	if raw.HasManualCoordinates() {
		a.Coordinates = *raw.ManualCoordinates
		a.Confidence = heritage.ManualConfidence
		a.Precision = heritage.PrecisionRooftop
	} else {
		e, err := p.resolve(ctx, raw.Address, raw.City)
		if err != nil {
			return heritage.Record{}, "", err
		}
		source = e.Source
		if e.Found && e.Result != nil {
			a.Coordinates = e.Result.Point()
			a.Confidence, a.Precision = heritage.Score(e.Result.Classes()...)
		} else {
			a.Status = heritage.StatusNoResult
			a.Precision = heritage.PrecisionUnknown
		}
	}
	a.ApplyStatus(p.policy.AcceptThreshold)
	if a.Status != heritage.StatusNoResult && p.graph != nil {
		if wp, _, ok := p.graph.Nearest(a.Coordinates); ok {
			a.GraphNodeID = wp.ID
		}
	}
	return heritage.PointRecord(a), source, nil
}

func (p *Pipeline) area(ctx context.Context, raw heritage.RawRecord, id string) (heritage.Record, string, error) {
	z := heritage.Area{
		ID:       id,
		Title:    raw.Title,
		City:     raw.City,
		ZoneType: raw.ZoneType,
		Color:    raw.Color,
	}
	if z.ZoneType == "" {
		z.ZoneType = heritage.ZoneFederal
	}
	// 面状记录以标题检索，地址通常为空
	q := raw.Address
	if q == "" {
		q = raw.Title
	}
	e, err := p.resolve(ctx, q, raw.City)
	if err != nil {
		return heritage.Record{}, "", err
	}
	var ring []geo.Point
	if e.Found && e.Result != nil {
		ring = e.Result.Geometry
	}
	z.ApplyGeometry(ring)
	return heritage.AreaRecord(z), e.Source, nil
}

// resolve：外部检索失败按无结果处理，不缓存也不重试
func (p *Pipeline) resolve(ctx context.Context, address, city string) (geocode.Entry, error) {
	e, err := p.geo.Resolve(ctx, address, city)
	if errors.Is(err, gazetteer.ErrUpstream) {
		logger.L().Warn("gazetteer_unavailable", "address", address, "city", city, "err", err)
		return geocode.Entry{Source: geocode.SourceGazetteer}, nil
	}
	return e, err
}
