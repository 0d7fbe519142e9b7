package geo

import "math"

// Midpoint：两点的算术中点（城市尺度下足够精确）
func Midpoint(a, b Point) Point {
	return Point{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2}
}

// Planar：把经纬度当平面坐标的欧氏距离（单位：度）
// 约束：仅用于路网边权，城市尺度下与测地距离单调一致
func Planar(a, b Point) float64 {
	return math.Hypot(b.Lat-a.Lat, b.Lon-a.Lon)
}

// Haversine：球面大圆距离（米）
func Haversine(a, b Point) float64 {
	dLat := rad(b.Lat - a.Lat)
	dLon := rad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
