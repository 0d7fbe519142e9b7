package api

import (
	"errors"
	"net/http"

	"heritage-map/internal/geo"
	"heritage-map/internal/metrics"
)

var errNoGraph = errors.New("route graph not loaded")

// pathResponse：JSON 无法表示 +Inf，不可达时 distance 为 null
type pathResponse struct {
	Found       bool        `json:"found"`
	WaypointIDs []string    `json:"waypointIds"`
	Coordinates []geo.Point `json:"coordinates"`
	Distance    *float64    `json:"distance"`
}

func (h *handlers) shortest(w http.ResponseWriter, r *http.Request) {
	if h.Graph == nil {
		writeError(w, http.StatusServiceUnavailable, errNoGraph)
		return
	}
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, errors.New("from and to are required"))
		return
	}
	p := h.Graph.ShortestPath(from, to)
	resp := pathResponse{Found: p.Found(), WaypointIDs: p.WaypointIDs, Coordinates: p.Coordinates}
	if resp.WaypointIDs == nil {
		resp.WaypointIDs = []string{}
	}
	if resp.Coordinates == nil {
		resp.Coordinates = []geo.Point{}
	}
	if p.Found() {
		d := p.Distance
		resp.Distance = &d
	}
	metrics.RouteRequestsTotal.WithLabelValues("shortest", foundLabel(p.Found())).Inc()
	writeJSON(w, http.StatusOK, resp)
}

type stitchRequest struct {
	Stops []string `json:"stops"`
}

type stitchResponse struct {
	Found       bool        `json:"found"`
	Coordinates []geo.Point `json:"coordinates"`
}

func (h *handlers) stitch(w http.ResponseWriter, r *http.Request) {
	if h.Graph == nil {
		writeError(w, http.StatusServiceUnavailable, errNoGraph)
		return
	}
	var req stitchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	line := h.Graph.StitchMultiStop(req.Stops)
	metrics.RouteRequestsTotal.WithLabelValues("stitch", foundLabel(len(line) > 0)).Inc()
	writeJSON(w, http.StatusOK, stitchResponse{Found: len(line) > 0, Coordinates: line})
}

func (h *handlers) components(w http.ResponseWriter, _ *http.Request) {
	if h.Graph == nil {
		writeError(w, http.StatusServiceUnavailable, errNoGraph)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"waypoints": h.Graph.Len(), "components": h.Graph.Components()})
}

func foundLabel(ok bool) string {
	if ok {
		return "found"
	}
	return "not_found"
}
