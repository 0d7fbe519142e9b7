package geo

import "math"

// EarthRadiusM：WGS84 长半轴（米）
const EarthRadiusM = 6378137.0

// CloseRing：返回闭合环（首点追加到末尾）；已闭合或为空时原样拷贝
func CloseRing(pts []Point) []Point {
	out := Clone(pts)
	if len(out) == 0 {
		return out
	}
	if out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}

// OpenRing：去掉闭合环末尾重复的首点，得到可编辑的顶点列表
func OpenRing(ring []Point) []Point {
	out := Clone(ring)
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// DistinctCount：顶点去重后的数量
func DistinctCount(pts []Point) int {
	seen := make(map[Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// ValidRing：至少 3 个不同顶点且首尾相同
func ValidRing(ring []Point) bool {
	if len(ring) < 4 || ring[0] != ring[len(ring)-1] {
		return false
	}
	return DistinctCount(ring) >= 3
}

// RingArea：球面多边形面积（平方米）
// 公式：|Σ(λ2-λ1)(2+sinφ1+sinφ2)|·R²/2，接受闭合或未闭合的顶点列表；
// 少于 3 个顶点时固定返回 0
func RingArea(pts []Point) float64 {
	ring := OpenRing(pts)
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%n]
		sum += rad(p2.Lon-p1.Lon) * (2 + math.Sin(rad(p1.Lat)) + math.Sin(rad(p2.Lat)))
	}
	return math.Abs(sum * EarthRadiusM * EarthRadiusM / 2)
}

// PointInRing：射线法判定点是否在环内，环可闭合或未闭合
func PointInRing(pt Point, ring []Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi+1e-12)+xi) {
			inside = !inside
		}
	}
	return inside
}

// Contains：包围盒预过滤后再做射线判定
func Contains(ring []Point, pt Point) bool {
	if !Bounds(ring).Contains(pt) {
		return false
	}
	return PointInRing(pt, ring)
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
