package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"heritage-map/internal/heritage"
	"heritage-map/internal/importer"
	"heritage-map/internal/logger"
	"heritage-map/internal/seed"
)

func (h *handlers) importSeed(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, errBadBody)
		return
	}
	recs, err := seed.Parse(b)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	total := len(recs)
	sum, err := h.Importer.ImportSeed(r.Context(), recs, func(done int) {
		if done == total || done%50 == 0 {
			logger.L().Info("import_progress", "done", done, "total", total)
		}
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sum)
}

type statusResponse struct {
	importer.Status
	Failures []importer.Failure `json:"failures"`
}

func (h *handlers) importStatus(w http.ResponseWriter, _ *http.Request) {
	q := h.Importer.Queue()
	fails := q.Failures()
	if fails == nil {
		fails = []importer.Failure{}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: q.Status(), Failures: fails})
}

// clearAll：破坏性操作，必须显式 confirm=yes
func (h *handlers) clearAll(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "yes" {
		writeError(w, http.StatusBadRequest, errors.New("destructive clear requires confirm=yes"))
		return
	}
	n, err := h.Importer.ClearAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.L().Warn("records_cleared_via_api", "count", n, "ip", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (h *handlers) review(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Repo.NeedingReview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []heritage.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handlers) record(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ex, err := h.Repo.Lookup(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, k := range []heritage.Kind{heritage.KindPoint, heritage.KindArea} {
		if rec, ok := ex.Of(k); ok {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeError(w, http.StatusNotFound, errors.New("record not found"))
}

func (h *handlers) assets(w http.ResponseWriter, r *http.Request) {
	var (
		out []heritage.Asset
		err error
	)
	if city := r.URL.Query().Get("city"); city != "" {
		out, err = h.Repo.AssetsByCity(r.Context(), city)
	} else {
		out, err = h.Repo.Assets(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) areas(w http.ResponseWriter, r *http.Request) {
	out, err := h.Repo.Areas(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
