package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-map/internal/gazetteer"
	"heritage-map/internal/geo"
	"heritage-map/internal/geocode"
	"heritage-map/internal/heritage"
	"heritage-map/internal/importer"
	"heritage-map/internal/route"
	"heritage-map/internal/store"
	"heritage-map/internal/timeutil"
	"heritage-map/internal/zone"
)

type stubGazetteer map[string]*gazetteer.Result

func (s stubGazetteer) Search(_ context.Context, q string) (*gazetteer.Result, error) {
	return s[q], nil
}

type testServer struct {
	srv   *httptest.Server
	repo  *heritage.Repository
	queue *importer.Queue
}

func newServer(t *testing.T, withGraph bool) *testServer {
	t.Helper()
	mem := store.NewMemory()
	repo := heritage.NewRepository(mem)
	gz := stubGazetteer{"Rua Direita, Ouro Preto": {Lat: -20.385, Lon: -43.503, Class: "building"}}
	cache := geocode.New(mem, gz, geocode.Normalizer{}, geocode.Options{LRUSize: 8})
	var g *route.Graph
	if withGraph {
		g = route.Build([]route.Waypoint{
			{ID: "A", Coordinates: geo.Point{Lat: 0, Lon: 0}},
			{ID: "B", Coordinates: geo.Point{Lat: 0, Lon: 1}},
			{ID: "C", Coordinates: geo.Point{Lat: 0, Lon: 2}},
			{ID: "D", Coordinates: geo.Point{Lat: 5, Lon: 5}},
		}, []route.Connection{{From: "A", To: "B"}, {From: "B", To: "C"}})
	}
	pipe := importer.NewPipeline(repo, cache, heritage.DefaultPolicy(), g)
	q := importer.NewQueue(pipe, timeutil.NewMockClock(time.Unix(0, 0)), time.Second)
	h := Routes(Deps{
		Repo:     repo,
		Graph:    g,
		Importer: importer.New(pipe, q, repo, cache),
		Sessions: NewSessions(repo),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, repo: repo, queue: q}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestShortestRoute(t *testing.T) {
	ts := newServer(t, true)
	var p pathResponse
	code := ts.do(t, http.MethodGet, "/route/shortest?from=A&to=C", nil, &p)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, p.Found)
	assert.Equal(t, []string{"A", "B", "C"}, p.WaypointIDs)
	require.NotNil(t, p.Distance)
	assert.InDelta(t, 2.0, *p.Distance, 1e-9)

	p = pathResponse{}
	code = ts.do(t, http.MethodGet, "/route/shortest?from=A&to=D", nil, &p)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, p.Found)
	assert.Nil(t, p.Distance)
	assert.Empty(t, p.Coordinates)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/route/shortest?from=A", nil, nil))
}

func TestStitchRoute(t *testing.T) {
	ts := newServer(t, true)
	var s stitchResponse
	code := ts.do(t, http.MethodPost, "/route/stitch", stitchRequest{Stops: []string{"A", "B", "C"}}, &s)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, s.Found)
	assert.Len(t, s.Coordinates, 3)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/route/stitch", "{", nil))
}

func TestRouteWithoutGraph(t *testing.T) {
	ts := newServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodGet, "/route/shortest?from=A&to=B", nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodGet, "/route/components", nil, nil))
}

func TestImportSeedAndStatus(t *testing.T) {
	ts := newServer(t, true)
	seedBody := `[
		{"title": "Casa dos Contos", "city": "Ouro Preto", "address": "Rua Direita"},
		{"title": "Ponte Seca", "city": "Ouro Preto", "manualCoordinates": {"lat": 0.1, "lon": 0.9}}
	]`
	var sum importer.Summary
	code := ts.do(t, http.MethodPost, "/import/seed", seedBody, &sum)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, importer.Summary{Manual: 1, Queued: 1}, sum)

	var asset heritage.Record
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/records/ponte-seca", nil, &asset))
	require.NotNil(t, asset.Asset)
	assert.Equal(t, "B", asset.Asset.GraphNodeID)

	require.True(t, ts.queue.Step(context.Background()))
	var st statusResponse
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/import/status", nil, &st))
	assert.Equal(t, 2, st.Processed)
	assert.Equal(t, 0, st.Queued)
	assert.Empty(t, st.Failures)

	var assets []heritage.Asset
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/assets?city=Ouro%20Preto", nil, &assets))
	assert.Len(t, assets, 2)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/import/seed", `[{"city":"x"}]`, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/records/nada", nil, nil))
}

func TestClearRequiresConfirmation(t *testing.T) {
	ts := newServer(t, false)
	ctx := context.Background()
	require.NoError(t, ts.repo.Save(ctx, heritage.PointRecord(heritage.Asset{ID: "x", Status: heritage.StatusNeedsReview})))

	var review []heritage.Record
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/records/review", nil, &review))
	assert.Len(t, review, 1)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodDelete, "/records", nil, nil))
	var out map[string]int
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/records?confirm=yes", nil, &out))
	assert.Equal(t, 1, out["deleted"])
}

func TestEditorSessionFlow(t *testing.T) {
	ts := newServer(t, false)
	var created sessionResponse
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/editor/sessions", nil, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, zone.ModeIdle, created.State.Mode)
	base := "/editor/sessions/" + created.ID

	send := func(in zone.Intent) (int, sessionResponse) {
		var out sessionResponse
		code := ts.do(t, http.MethodPost, base+"/intents", in, &out)
		return code, out
	}

	code, out := send(zone.Intent{Type: zone.ClickOnMap})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, zone.ModeIdle, out.State.Mode)
	assert.NotEmpty(t, out.Error)

	code, _ = send(zone.Intent{Type: zone.StartCreate})
	require.Equal(t, http.StatusOK, code)
	for _, p := range []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.001}} {
		code, _ = send(zone.Intent{Type: zone.ClickOnMap, Point: p})
		require.Equal(t, http.StatusOK, code)
	}
	code, out = send(zone.Intent{Type: zone.Save})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, zone.ModeCreating, out.State.Mode)

	code, out = send(zone.Intent{Type: zone.ClickOnMap, Point: geo.Point{Lat: 0.001, Lon: 0.001}})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, out.State.CanSave)
	send(zone.Intent{Type: zone.SetAttributes, Title: "Largo do Coimbra", ZoneType: heritage.ZoneMunicipal})
	code, out = send(zone.Intent{Type: zone.Save})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, out.State.Saved)
	assert.Equal(t, "largo-do-coimbra", out.State.Saved.ID)

	var areas []heritage.Area
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/areas", nil, &areas))
	assert.Len(t, areas, 1)

	code, _ = send(zone.Intent{Type: "teleport"})
	assert.Equal(t, http.StatusBadRequest, code)

	var got sessionResponse
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, base, nil, &got))
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, base, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, base, nil, nil))
}

func TestSessionsEvictOldest(t *testing.T) {
	s := NewSessions(heritage.NewRepository(store.NewMemory()))
	now := time.Unix(0, 0)
	s.now = func() time.Time { now = now.Add(time.Second); return now }
	first, _ := s.Create()
	for i := 1; i < MaxSessions; i++ {
		s.Create()
	}
	_, ok := s.Get(first)
	require.True(t, ok, "touching keeps it fresh")
	second := ""
	for id := range s.byID {
		if id != first && (second == "" || s.byID[id].used.Before(s.byID[second].used)) {
			second = id
		}
	}
	s.Create()
	assert.Equal(t, MaxSessions, s.Len())
	_, ok = s.Get(first)
	assert.True(t, ok)
	_, ok = s.Get(second)
	assert.False(t, ok)
}

func TestIntentStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, intentStatus(nil))
	assert.Equal(t, http.StatusInternalServerError, intentStatus(store.ErrUnavailable))
	assert.Equal(t, http.StatusConflict, intentStatus(fmt.Errorf("wrap: %w", zone.ErrInvalidTransition)))
	assert.Equal(t, http.StatusUnprocessableEntity, intentStatus(zone.ErrInvalidVertex))
}
