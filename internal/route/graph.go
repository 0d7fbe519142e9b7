// 包 route：导览路网（人工维护的小型航点图），提供最短路与多站点拼接
package route

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"heritage-map/internal/geo"
	"heritage-map/internal/logger"
)

// Waypoint：路网中的具名点，不一定对应文物资产
type Waypoint struct {
	ID          string    `json:"id" yaml:"id"`
	Coordinates geo.Point `json:"coordinates" yaml:"coordinates"`
}

// Connection：两个航点之间的无向边
type Connection struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Path：最短路结果；无路可达时 Coordinates 为空且 Distance 为 +Inf
type Path struct {
	WaypointIDs []string    `json:"waypoint_ids"`
	Coordinates []geo.Point `json:"coordinates"`
	Distance    float64     `json:"distance"`
}

// Found：是否存在可达路径
func (p Path) Found() bool { return len(p.Coordinates) > 0 }

// Graph：只读路网；构建后可并发查询
// 约束：边权为经纬度平面欧氏距离；所有点对最短路在构建时一次性计算
type Graph struct {
	index  map[string]int64
	points []Waypoint
	g      *simple.WeightedUndirectedGraph
	all    path.AllShortest
}

// Build：由航点与连接构建路网
// 约束：重复航点保留首个；引用未知航点或自环的连接被跳过；重复连接无副作用
func Build(waypoints []Waypoint, connections []Connection) *Graph {
	l := logger.L()
	uniq := make(map[string]Waypoint, len(waypoints))
	for _, w := range waypoints {
		if _, dup := uniq[w.ID]; dup {
			l.Warn("route_duplicate_waypoint", "id", w.ID)
			continue
		}
		uniq[w.ID] = w
	}
	ids := make([]string, 0, len(uniq))
	for id := range uniq {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	gr := &Graph{
		index:  make(map[string]int64, len(ids)),
		points: make([]Waypoint, len(ids)),
		g:      simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
	}
	for i, id := range ids {
		gr.index[id] = int64(i)
		gr.points[i] = uniq[id]
		gr.g.AddNode(simple.Node(i))
	}
	edges := 0
	for _, c := range connections {
		u, okU := gr.index[c.From]
		v, okV := gr.index[c.To]
		if !okU || !okV {
			l.Warn("route_unknown_connection", "from", c.From, "to", c.To)
			continue
		}
		if u == v {
			continue
		}
		w := geo.Planar(gr.points[u].Coordinates, gr.points[v].Coordinates)
		gr.g.SetWeightedEdge(gr.g.NewWeightedEdge(simple.Node(u), simple.Node(v), w))
		edges++
	}
	gr.all = path.DijkstraAllPaths(gr.g)
	l.Debug("route_graph_built", "waypoints", len(ids), "connections", edges)
	return gr
}

// Len：航点数量
func (gr *Graph) Len() int { return len(gr.points) }

// Waypoint：按 id 读取航点
func (gr *Graph) Waypoint(id string) (Waypoint, bool) {
	i, ok := gr.index[id]
	if !ok {
		return Waypoint{}, false
	}
	return gr.points[i], true
}

// ShortestPath：两航点之间的最短路
// 等价路径按航点 id 序列字典序取最小，保证结果确定；任一 id 不存在或不可达时返回空路径
func (gr *Graph) ShortestPath(startID, endID string) Path {
	u, okU := gr.index[startID]
	v, okV := gr.index[endID]
	if !okU || !okV {
		return noRoute()
	}
	if u == v {
		w := gr.points[u]
		return Path{WaypointIDs: []string{w.ID}, Coordinates: []geo.Point{w.Coordinates}}
	}
	candidates, weight := gr.all.AllBetween(u, v)
	if len(candidates) == 0 || math.IsInf(weight, 1) {
		return noRoute()
	}
	var best []string
	for _, nodes := range candidates {
		seq := gr.idsOf(nodes)
		if best == nil || lessSeq(seq, best) {
			best = seq
		}
	}
	out := Path{WaypointIDs: best, Coordinates: make([]geo.Point, len(best))}
	for i, id := range best {
		out.Coordinates[i] = gr.points[gr.index[id]].Coordinates
	}
	// 以实际坐标重算总长，避免累加顺序带来的浮点差异
	for i := 1; i < len(out.Coordinates); i++ {
		out.Distance += geo.Planar(out.Coordinates[i-1], out.Coordinates[i])
	}
	return out
}

// StitchMultiStop：按顺序拼接相邻站点的最短路，去掉段间重复的连接点
// 少于 2 个站点返回空折线；任一段不可达时整体返回空折线
func (gr *Graph) StitchMultiStop(stopIDs []string) []geo.Point {
	if len(stopIDs) < 2 {
		return []geo.Point{}
	}
	out := make([]geo.Point, 0)
	for i := 1; i < len(stopIDs); i++ {
		seg := gr.ShortestPath(stopIDs[i-1], stopIDs[i])
		if !seg.Found() {
			logger.L().Debug("route_stitch_gap", "from", stopIDs[i-1], "to", stopIDs[i])
			return []geo.Point{}
		}
		coords := seg.Coordinates
		if i > 1 {
			coords = coords[1:]
		}
		out = append(out, coords...)
	}
	return out
}

// Components：连通分量（每个分量内 id 升序，分量按首个 id 排序）
func (gr *Graph) Components() [][]string {
	cc := topo.ConnectedComponents(gr.g)
	out := make([][]string, 0, len(cc))
	for _, c := range cc {
		ids := gr.idsOf(c)
		sort.Strings(ids)
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Nearest：距离给定坐标最近的航点（球面距离）
func (gr *Graph) Nearest(p geo.Point) (Waypoint, float64, bool) {
	if len(gr.points) == 0 {
		return Waypoint{}, 0, false
	}
	best := 0
	bestD := math.MaxFloat64
	for i, w := range gr.points {
		if d := geo.Haversine(p, w.Coordinates); d < bestD {
			best, bestD = i, d
		}
	}
	return gr.points[best], bestD, true
}

func (gr *Graph) idsOf(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = gr.points[n.ID()].ID
	}
	return out
}

func noRoute() Path {
	return Path{WaypointIDs: []string{}, Coordinates: []geo.Point{}, Distance: math.Inf(1)}
}

func lessSeq(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c < 0
		}
	}
	return len(a) < len(b)
}
