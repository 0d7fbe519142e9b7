package heritage

import "heritage-map/internal/geo"

// RawRecord：待导入的原始记录（种子文件或上游表格的一行）
type RawRecord struct {
	Title             string     `json:"title"`
	City              string     `json:"city"`
	Address           string     `json:"address,omitempty"`
	Typology          string     `json:"typology,omitempty"`
	ZoneType          ZoneType   `json:"zoneType,omitempty"`
	Color             string     `json:"color,omitempty"`
	ManualCoordinates *geo.Point `json:"manualCoordinates,omitempty"`
}

// ID：由标题派生的稳定标识
func (r RawRecord) ID() string { return Slug(r.Title) }

// HasManualCoordinates：携带人工坐标的记录始终按点处理且跳过外部查询
func (r RawRecord) HasManualCoordinates() bool {
	return r.ManualCoordinates != nil && !r.ManualCoordinates.IsZero()
}
