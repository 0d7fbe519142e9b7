// 包 heritage：文物资产（点）与保护区（面）的统一记录模型及判定规则
package heritage

import (
	"time"

	"heritage-map/internal/geo"
)

// Kind：记录形态判别字段
type Kind string

const (
	KindPoint Kind = "point"
	KindArea  Kind = "area"
)

// Status：记录质量状态；低置信度与无结果均降级为待复核而非失败
type Status string

const (
	StatusOK          Status = "ok"
	StatusNeedsReview Status = "needs_review"
	StatusNoResult    Status = "no_result"
)

// Precision：地理编码精度等级
type Precision string

const (
	PrecisionRooftop      Precision = "rooftop"
	PrecisionStreet       Precision = "street"
	PrecisionPlace        Precision = "place"
	PrecisionMunicipality Precision = "municipality"
	PrecisionUnknown      Precision = "unknown"
)

// ZoneType：保护区的法定层级
type ZoneType string

const (
	ZoneFederal   ZoneType = "federal"
	ZoneEstadual  ZoneType = "estadual"
	ZoneMunicipal ZoneType = "municipal"
)

// 持久化集合名
const (
	CollectionAssets = "heritage_assets"
	CollectionAreas  = "heritage_areas"
	CollectionCache  = "geocode_cache"
)

// Asset：点状文物（建筑、纪念物）
type Asset struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	City        string    `json:"city"`
	AddressText string    `json:"address_text"`
	Coordinates geo.Point `json:"coordinates"`
	Confidence  float64   `json:"confidence"`
	Precision   Precision `json:"precision"`
	Status      Status    `json:"status"`
	GraphNodeID string    `json:"graphNodeId,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Area：面状保护区；Geometry 为闭合环，nil 表示尚无几何
type Area struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	City      string      `json:"city"`
	ZoneType  ZoneType    `json:"zoneType"`
	Geometry  []geo.Point `json:"geometry"`
	Status    Status      `json:"status"`
	Color     string      `json:"color"`
	AreaM2    float64     `json:"area_m2"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Record：点/面二选一的标签联合体
// 约束：Kind 为 point 时仅 Asset 非空，为 area 时仅 Area 非空
type Record struct {
	Kind  Kind   `json:"kind"`
	Asset *Asset `json:"asset,omitempty"`
	Area  *Area  `json:"area,omitempty"`
}

func PointRecord(a Asset) Record { return Record{Kind: KindPoint, Asset: &a} }

func AreaRecord(a Area) Record { return Record{Kind: KindArea, Area: &a} }

// ID：记录标识
func (r Record) ID() string {
	switch r.Kind {
	case KindPoint:
		if r.Asset != nil {
			return r.Asset.ID
		}
	case KindArea:
		if r.Area != nil {
			return r.Area.ID
		}
	}
	return ""
}

// Status：记录状态
func (r Record) Status() Status {
	switch {
	case r.Kind == KindPoint && r.Asset != nil:
		return r.Asset.Status
	case r.Kind == KindArea && r.Area != nil:
		return r.Area.Status
	}
	return ""
}

// Resolved：已成功定位（点：状态 ok 且坐标非哨兵；面：状态 ok 且有合法环）
func (r Record) Resolved() bool {
	switch {
	case r.Kind == KindPoint && r.Asset != nil:
		return r.Asset.Status == StatusOK && !r.Asset.Coordinates.IsZero()
	case r.Kind == KindArea && r.Area != nil:
		return r.Area.Status == StatusOK && geo.ValidRing(r.Area.Geometry)
	}
	return false
}

// Collection：记录所属集合
func (k Kind) Collection() string {
	if k == KindArea {
		return CollectionAreas
	}
	return CollectionAssets
}

// Opposite：另一形态
func (k Kind) Opposite() Kind {
	if k == KindArea {
		return KindPoint
	}
	return KindArea
}

// ApplyStatus：按置信度阈值与哨兵坐标收敛点状态；no_result 保持不变
func (a *Asset) ApplyStatus(threshold float64) {
	if a.Status == StatusNoResult {
		return
	}
	if a.Confidence < threshold || a.Coordinates.IsZero() {
		a.Status = StatusNeedsReview
		return
	}
	a.Status = StatusOK
}

// ApplyGeometry：规整几何并计算面积；非法环置空并降级为待复核
func (a *Area) ApplyGeometry(ring []geo.Point) {
	closed := geo.CloseRing(ring)
	if !geo.ValidRing(closed) {
		a.Geometry = nil
		a.AreaM2 = 0
		a.Status = StatusNeedsReview
		return
	}
	a.Geometry = closed
	a.AreaM2 = geo.RingArea(closed)
	a.Status = StatusOK
}
