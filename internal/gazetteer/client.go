// 包 gazetteer：地名检索外部服务客户端（Nominatim 兼容接口）
package gazetteer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"heritage-map/internal/config"
	"heritage-map/internal/geo"
	"heritage-map/internal/logger"
	"heritage-map/internal/metrics"
)

// ErrUpstream：传输失败、非 200 或响应无法解析；调用方按无结果处理，不重试
var ErrUpstream = errors.New("gazetteer: upstream failure")

// Result：检索命中的首个候选
// 背景：Class/Type/AddressType 三个字段共同决定置信度等级；Geometry 仅在服务返回多边形时非空
type Result struct {
	DisplayName string      `json:"displayName"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
	Class       string      `json:"featureClass"`
	Type        string      `json:"type"`
	AddressType string      `json:"addressType"`
	Geometry    []geo.Point `json:"geometry,omitempty"`
}

// Point：候选坐标
func (r *Result) Point() geo.Point { return geo.Point{Lat: r.Lat, Lon: r.Lon} }

// Classes：参与置信度判定的要素分类
func (r *Result) Classes() []string {
	return []string{r.Class, r.Type, r.AddressType}
}

// Searcher：地名检索能力
// 约束：无匹配返回 nil, nil，属于正常结果
type Searcher interface {
	Search(ctx context.Context, query string) (*Result, error)
}

// Client：HTTP 实现；User-Agent 与 email 按服务使用政策随请求携带
type Client struct {
	base      string
	userAgent string
	email     string
	http      *http.Client
}

func New(cfg config.Gazetteer, hc *http.Client) *Client {
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:      strings.TrimSuffix(cfg.URL, "/"),
		userAgent: cfg.UserAgent,
		email:     cfg.Email,
		http:      hc,
	}
}

type place struct {
	DisplayName string          `json:"display_name"`
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	Category    string          `json:"category"`
	Class       string          `json:"class"`
	Type        string          `json:"type"`
	AddressType string          `json:"addresstype"`
	GeoJSON     json.RawMessage `json:"geojson"`
}

// Search：按自由文本检索，只取第一个候选
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("polygon_geojson", "1")
	if c.email != "" {
		q.Set("email", c.email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	t0 := time.Now()
	metrics.GazetteerRequestsTotal.Inc()
	logger.L().Debug("gazetteer_req", "query", query)
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.GazetteerFailTotal.Inc()
		logger.L().Warn("gazetteer_http_error", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()
	metrics.GazetteerDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.GazetteerFailTotal.Inc()
		logger.L().Warn("gazetteer_bad_status", "query", query, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		metrics.GazetteerFailTotal.Inc()
		logger.L().Warn("gazetteer_decode_error", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(places) == 0 {
		metrics.GazetteerMissTotal.Inc()
		logger.L().Info("gazetteer_miss", "query", query)
		return nil, nil
	}
	r, err := places[0].result()
	if err != nil {
		metrics.GazetteerFailTotal.Inc()
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	logger.L().Debug("gazetteer_resp", "query", query, "class", r.Class, "type", r.Type, "vertices", len(r.Geometry), "duration_ms", time.Since(t0).Milliseconds())
	return r, nil
}

func (p place) result() (*Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("lon %q: %w", p.Lon, err)
	}
	class := p.Category
	if class == "" {
		class = p.Class
	}
	return &Result{
		DisplayName: p.DisplayName,
		Lat:         lat,
		Lon:         lon,
		Class:       class,
		Type:        p.Type,
		AddressType: p.AddressType,
		Geometry:    outerRing(p.GeoJSON),
	}, nil
}

// outerRing：取 Polygon 的外环，MultiPolygon 取第一个多边形的外环；其余几何类型返回 nil
// GeoJSON 坐标顺序为 [lon, lat]
func outerRing(raw json.RawMessage) []geo.Point {
	if len(raw) == 0 {
		return nil
	}
	var g struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil
	}
	var ring [][]float64
	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if json.Unmarshal(g.Coordinates, &rings) != nil || len(rings) == 0 {
			return nil
		}
		ring = rings[0]
	case "MultiPolygon":
		var polys [][][][]float64
		if json.Unmarshal(g.Coordinates, &polys) != nil || len(polys) == 0 || len(polys[0]) == 0 {
			return nil
		}
		ring = polys[0][0]
	default:
		return nil
	}
	out := make([]geo.Point, 0, len(ring))
	for _, c := range ring {
		if len(c) < 2 {
			continue
		}
		out = append(out, geo.Point{Lat: c[1], Lon: c[0]})
	}
	return out
}
