package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heritage-map/internal/logger"
	"heritage-map/internal/zone"
)

// MaxSessions：同时存在的编辑会话上限，超出时淘汰最久未使用的会话
const MaxSessions = 256

type session struct {
	ed   *zone.Editor
	used time.Time
}

// Sessions：编辑会话表；每个会话独占一个编辑器，草稿不跨会话共享
type Sessions struct {
	areas zone.Areas
	now   func() time.Time

	mu   sync.Mutex
	byID map[string]*session
}

func NewSessions(areas zone.Areas) *Sessions {
	return &Sessions{areas: areas, now: time.Now, byID: make(map[string]*session)}
}

// Create：新建会话
func (s *Sessions) Create() (string, *zone.Editor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.byID) >= MaxSessions {
		var oldest string
		var at time.Time
		for id, ss := range s.byID {
			if oldest == "" || ss.used.Before(at) {
				oldest, at = id, ss.used
			}
		}
		delete(s.byID, oldest)
		logger.L().Info("editor_session_evicted", "id", oldest)
	}
	id := uuid.NewString()
	ed := zone.NewEditor(s.areas)
	s.byID[id] = &session{ed: ed, used: s.now()}
	return id, ed
}

// Get：取会话并刷新使用时间
func (s *Sessions) Get(id string) (*zone.Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	ss.used = s.now()
	return ss.ed, true
}

// Close：删除会话，未保存的草稿随之丢弃
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

var errNoSession = errors.New("editor session not found")

type sessionResponse struct {
	ID    string     `json:"id"`
	State zone.State `json:"state"`
	Error string     `json:"error,omitempty"`
}

func (h *handlers) createSession(w http.ResponseWriter, _ *http.Request) {
	id, ed := h.Sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, State: ed.State()})
}

func (h *handlers) sessionState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ed, ok := h.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNoSession)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: ed.State()})
}

// dispatch：被拒绝的意图仍返回当前状态，便于界面回显
func (h *handlers) dispatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ed, ok := h.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNoSession)
		return
	}
	var in zone.Intent
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := ed.Dispatch(r.Context(), in)
	resp := sessionResponse{ID: id, State: st}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, intentStatus(err), resp)
}

func intentStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, zone.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, zone.ErrInvalidPolygon), errors.Is(err, zone.ErrInvalidVertex):
		return http.StatusUnprocessableEntity
	case errors.Is(err, zone.ErrUnknownIntent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Close(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, errNoSession)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
