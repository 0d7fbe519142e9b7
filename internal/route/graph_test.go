package route

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage-map/internal/geo"
)

func lineGraph(conns ...Connection) *Graph {
	wps := []Waypoint{
		{ID: "A", Coordinates: geo.Point{Lat: 0, Lon: 0}},
		{ID: "B", Coordinates: geo.Point{Lat: 0, Lon: 1}},
		{ID: "C", Coordinates: geo.Point{Lat: 0, Lon: 2}},
	}
	return Build(wps, conns)
}

func TestShortestPathThroughIntermediate(t *testing.T) {
	g := lineGraph(Connection{From: "A", To: "B"}, Connection{From: "B", To: "C"})
	p := g.ShortestPath("A", "C")
	require.True(t, p.Found())
	assert.Equal(t, []string{"A", "B", "C"}, p.WaypointIDs)
	want := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}
	if diff := cmp.Diff(want, p.Coordinates); diff != "" {
		t.Fatalf("coordinates mismatch (-want +got):\n%s", diff)
	}
	ab := geo.Planar(want[0], want[1])
	bc := geo.Planar(want[1], want[2])
	assert.InDelta(t, ab+bc, p.Distance, 1e-12)

	// undirected: the reverse direction is the mirrored path
	rev := g.ShortestPath("C", "A")
	assert.Equal(t, []string{"C", "B", "A"}, rev.WaypointIDs)
}

func TestShortestPathUnreachable(t *testing.T) {
	g := lineGraph()
	p := g.ShortestPath("A", "C")
	assert.False(t, p.Found())
	assert.Empty(t, p.Coordinates)
	assert.True(t, math.IsInf(p.Distance, 1))
}

func TestShortestPathUnknownWaypoint(t *testing.T) {
	g := lineGraph(Connection{From: "A", To: "B"})
	p := g.ShortestPath("A", "Z")
	assert.Empty(t, p.Coordinates)
	assert.True(t, math.IsInf(p.Distance, 1))

	_, ok := g.Waypoint("Z")
	assert.False(t, ok)
	w, ok := g.Waypoint("B")
	require.True(t, ok)
	assert.Equal(t, geo.Point{Lat: 0, Lon: 1}, w.Coordinates)
}

func TestShortestPathSameNode(t *testing.T) {
	g := lineGraph(Connection{From: "A", To: "B"})
	p := g.ShortestPath("B", "B")
	assert.Equal(t, []geo.Point{{Lat: 0, Lon: 1}}, p.Coordinates)
	assert.Equal(t, 0.0, p.Distance)
}

func TestShortestPathPrefersShorterDetour(t *testing.T) {
	wps := []Waypoint{
		{ID: "A", Coordinates: geo.Point{Lat: 0, Lon: 0}},
		{ID: "B", Coordinates: geo.Point{Lat: 0, Lon: 1}},
		{ID: "C", Coordinates: geo.Point{Lat: 0, Lon: 2}},
		{ID: "F", Coordinates: geo.Point{Lat: 5, Lon: 1}},
	}
	g := Build(wps, []Connection{
		{From: "A", To: "F"}, {From: "F", To: "C"},
		{From: "A", To: "B"}, {From: "B", To: "C"},
	})
	assert.Equal(t, []string{"A", "B", "C"}, g.ShortestPath("A", "C").WaypointIDs)
}

func TestShortestPathTieBreakIsLexicographic(t *testing.T) {
	wps := []Waypoint{
		{ID: "A", Coordinates: geo.Point{Lat: 0, Lon: 0}},
		{ID: "Y", Coordinates: geo.Point{Lat: 1, Lon: 0}},
		{ID: "X", Coordinates: geo.Point{Lat: 0, Lon: 1}},
		{ID: "D", Coordinates: geo.Point{Lat: 1, Lon: 1}},
	}
	conns := []Connection{{From: "A", To: "Y"}, {From: "Y", To: "D"}, {From: "A", To: "X"}, {From: "X", To: "D"}}
	for i := 0; i < 5; i++ {
		g := Build(wps, conns)
		assert.Equal(t, []string{"A", "X", "D"}, g.ShortestPath("A", "D").WaypointIDs)
	}
}

func TestBuildSkipsBadConnections(t *testing.T) {
	g := lineGraph(
		Connection{From: "A", To: "B"},
		Connection{From: "A", To: "B"},
		Connection{From: "B", To: "A"},
		Connection{From: "A", To: "A"},
		Connection{From: "B", To: "nope"},
	)
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, [][]string{{"A", "B"}, {"C"}}, g.Components())
}

func TestStitchMultiStopDropsJoints(t *testing.T) {
	g := lineGraph(Connection{From: "A", To: "B"}, Connection{From: "B", To: "C"})
	ab := g.ShortestPath("A", "B")
	bc := g.ShortestPath("B", "C")
	line := g.StitchMultiStop([]string{"A", "B", "C"})
	assert.Len(t, line, len(ab.Coordinates)+len(bc.Coordinates)-1)
	assert.Equal(t, []geo.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}, line)

	// out and back again
	back := g.StitchMultiStop([]string{"A", "C", "A"})
	assert.Len(t, back, 5)
}

func TestStitchMultiStopDegenerate(t *testing.T) {
	g := lineGraph(Connection{From: "A", To: "B"})
	assert.Empty(t, g.StitchMultiStop(nil))
	assert.Empty(t, g.StitchMultiStop([]string{"A"}))
	assert.Empty(t, g.StitchMultiStop([]string{"A", "B", "C"}), "gap in the itinerary")
}

func TestNearest(t *testing.T) {
	g := lineGraph()
	w, d, ok := g.Nearest(geo.Point{Lat: 0.01, Lon: 1.9})
	require.True(t, ok)
	assert.Equal(t, "C", w.ID)
	assert.Greater(t, d, 0.0)

	_, _, ok = Build(nil, nil).Nearest(geo.Point{})
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	src := []byte(`
waypoints:
  - id: igreja
    coordinates: {lat: -20.385, lon: -43.503}
  - id: praca
    coordinates: {lat: -20.386, lon: -43.505}
connections:
  - {from: igreja, to: praca}
`)
	g, err := Parse(src)
	require.NoError(t, err)
	p := g.ShortestPath("igreja", "praca")
	assert.Equal(t, []string{"igreja", "praca"}, p.WaypointIDs)

	_, err = Parse([]byte("waypoints: ["))
	assert.Error(t, err)
}
