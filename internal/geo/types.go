// 包 geo：无状态几何工具（球面面积、中点、距离、点入环判定）
package geo

// Point：WGS84 经纬度坐标
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// IsZero：(0,0) 视为未定位的哨兵坐标
func (p Point) IsZero() bool { return p.Lat == 0 && p.Lon == 0 }

// BBox：包围盒，按 minLon, minLat, maxLon, maxLat 排列
type BBox [4]float64

// Contains：点是否落在包围盒内（含边界）
func (b BBox) Contains(p Point) bool {
	return p.Lon >= b[0] && p.Lon <= b[2] && p.Lat >= b[1] && p.Lat <= b[3]
}

// Bounds：计算顶点列表的包围盒；空列表返回零值
func Bounds(pts []Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	b := BBox{180, 90, -180, -90}
	for _, p := range pts {
		if p.Lon < b[0] {
			b[0] = p.Lon
		}
		if p.Lat < b[1] {
			b[1] = p.Lat
		}
		if p.Lon > b[2] {
			b[2] = p.Lon
		}
		if p.Lat > b[3] {
			b[3] = p.Lat
		}
	}
	return b
}

// Clone：顶点列表深拷贝；nil 保持为 nil
func Clone(pts []Point) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}
