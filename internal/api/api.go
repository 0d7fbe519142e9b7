// 包 api：集中注册 HTTP API 路由，入口只负责挂载到 API_BASE 前缀
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"heritage-map/internal/heritage"
	"heritage-map/internal/importer"
	"heritage-map/internal/route"
)

// Deps：路由依赖；Graph 为空时路径规划接口返回 503
type Deps struct {
	Repo     *heritage.Repository
	Graph    *route.Graph
	Importer *importer.Importer
	Sessions *Sessions
}

// Routes：构建 API 路由
func Routes(d Deps) chi.Router {
	h := &handlers{Deps: d}
	r := chi.NewRouter()

	r.Route("/route", func(r chi.Router) {
		r.Get("/shortest", h.shortest)
		r.Post("/stitch", h.stitch)
		r.Get("/components", h.components)
	})

	r.Post("/import/seed", h.importSeed)
	r.Get("/import/status", h.importStatus)

	r.Delete("/records", h.clearAll)
	r.Get("/records/review", h.review)
	r.Get("/records/{id}", h.record)
	r.Get("/assets", h.assets)
	r.Get("/areas", h.areas)

	r.Route("/editor/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Get("/{id}", h.sessionState)
		r.Post("/{id}/intents", h.dispatch)
		r.Delete("/{id}", h.closeSession)
	})
	return r
}

type handlers struct {
	Deps
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

var errBadBody = errors.New("invalid request body")

// 请求体上限 8 MiB，足够容纳数千条种子记录
const maxBody = 8 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}
