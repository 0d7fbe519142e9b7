// 包 zone：保护区多边形草稿编辑器（顶点/中点编辑、有界撤销重做、实时面积）
package zone

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"heritage-map/internal/geo"
	"heritage-map/internal/heritage"
	"heritage-map/internal/logger"
	"heritage-map/internal/metrics"
)

var (
	// ErrInvalidTransition：意图与当前模式不匹配，状态不变
	ErrInvalidTransition = errors.New("zone: intent not valid in current mode")
	// ErrInvalidPolygon：少于 3 个不同顶点，拒绝保存
	ErrInvalidPolygon = errors.New("zone: polygon needs at least 3 distinct vertices")
	// ErrInvalidVertex：顶点下标越界
	ErrInvalidVertex = errors.New("zone: vertex index out of range")
	ErrUnknownIntent = errors.New("zone: unknown intent")
)

// Mode：编辑器模式，互斥
type Mode string

const (
	ModeIdle             Mode = "idle"
	ModeCreating         Mode = "creating"
	ModeWaitingSelection Mode = "editing_waiting_for_selection"
	ModeEditingLoaded    Mode = "editing_loaded"
)

// IntentType：编辑意图
type IntentType string

const (
	StartCreate     IntentType = "start_create"
	StartEdit       IntentType = "start_edit"
	ClickOnMap      IntentType = "click_on_map"
	CycleCandidate  IntentType = "cycle_candidate"
	DragVertex      IntentType = "drag_vertex"
	PromoteMidpoint IntentType = "promote_midpoint"
	DeleteVertex    IntentType = "delete_vertex"
	Undo            IntentType = "undo"
	Redo            IntentType = "redo"
	SetAttributes   IntentType = "set_attributes"
	Save            IntentType = "save"
	Delete          IntentType = "delete"
	Cancel          IntentType = "cancel"
	Escape          IntentType = "escape"
)

// Intent：界面发出的单条意图消息
// Point 用于 ClickOnMap/DragVertex；Index 用于顶点类意图；属性字段用于 SetAttributes
type Intent struct {
	Type     IntentType        `json:"type"`
	Point    geo.Point         `json:"point"`
	Index    int               `json:"index"`
	Title    string            `json:"title,omitempty"`
	ZoneType heritage.ZoneType `json:"zoneType,omitempty"`
	Color    string            `json:"color,omitempty"`
}

// Draft：编辑中的多边形；ComputedAreaM2 为派生值
type Draft struct {
	ID             string            `json:"id,omitempty"`
	Vertices       []geo.Point       `json:"vertices"`
	Title          string            `json:"title"`
	ZoneType       heritage.ZoneType `json:"zoneType"`
	Color          string            `json:"color"`
	ComputedAreaM2 float64           `json:"computedAreaM2"`
}

// State：编辑器对外可见的只读快照
type State struct {
	Mode           Mode           `json:"mode"`
	Draft          Draft          `json:"draft"`
	Candidates     []string       `json:"candidates,omitempty"`
	CandidateIndex int            `json:"candidateIndex"`
	CanUndo        bool           `json:"canUndo"`
	CanRedo        bool           `json:"canRedo"`
	CanSave        bool           `json:"canSave"`
	Saved          *heritage.Area `json:"saved,omitempty"`
}

// Areas：编辑器依赖的保护区读写能力，由 heritage.Repository 实现
type Areas interface {
	Areas(ctx context.Context) ([]heritage.Area, error)
	Lookup(ctx context.Context, id string) (heritage.Existing, error)
	Save(ctx context.Context, rec heritage.Record) error
	Delete(ctx context.Context, k heritage.Kind, id string) error
}

// Editor：单一归约器，独占草稿与历史栈；Dispatch 串行执行
type Editor struct {
	mu    sync.Mutex
	areas Areas
	newID func() string

	mode       Mode
	draft      Draft
	city       string
	hist       *History
	candidates []heritage.Area
	cursor     int
}

func NewEditor(areas Areas) *Editor {
	return &Editor{
		areas: areas,
		newID: uuid.NewString,
		mode:  ModeIdle,
		hist:  NewHistory(MaxHistory),
	}
}

// State：当前快照
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Dispatch：应用一条意图；失败时状态保持不变
func (e *Editor) Dispatch(ctx context.Context, in Intent) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var saved *heritage.Area
	err := e.reduce(ctx, in, &saved)
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
		logger.L().Debug("zone_intent_rejected", "intent", in.Type, "mode", e.mode, "err", err)
	}
	metrics.ZoneIntentsTotal.WithLabelValues(string(in.Type), outcome).Inc()
	st := e.snapshot()
	st.Saved = saved
	return st, err
}

func (e *Editor) reduce(ctx context.Context, in Intent, saved **heritage.Area) error {
	switch in.Type {
	case Cancel, Escape:
		e.reset()
		return nil
	case StartCreate:
		if e.mode != ModeIdle {
			return ErrInvalidTransition
		}
		e.reset()
		e.mode = ModeCreating
		e.draft.Vertices = []geo.Point{}
		return nil
	case StartEdit:
		if e.mode != ModeIdle {
			return ErrInvalidTransition
		}
		e.reset()
		e.mode = ModeWaitingSelection
		return nil
	case ClickOnMap:
		switch e.mode {
		case ModeCreating:
			e.mutate(func(v []geo.Point) []geo.Point { return append(v, in.Point) })
			return nil
		case ModeWaitingSelection:
			return e.selectAt(ctx, in.Point)
		}
		return ErrInvalidTransition
	case CycleCandidate:
		if e.mode != ModeEditingLoaded {
			return ErrInvalidTransition
		}
		if len(e.candidates) > 1 {
			e.cursor = (e.cursor + 1) % len(e.candidates)
			e.load(e.candidates[e.cursor])
		}
		return nil
	case DragVertex, PromoteMidpoint, DeleteVertex:
		if !e.editing() {
			return ErrInvalidTransition
		}
		return e.vertexOp(in)
	case Undo, Redo:
		if !e.editing() {
			return ErrInvalidTransition
		}
		var next []geo.Point
		if in.Type == Undo {
			next, _ = e.hist.Undo(e.draft.Vertices)
		} else {
			next, _ = e.hist.Redo(e.draft.Vertices)
		}
		e.setVertices(next)
		return nil
	case SetAttributes:
		if !e.editing() {
			return ErrInvalidTransition
		}
		if in.Title != "" {
			e.draft.Title = in.Title
		}
		if in.ZoneType != "" {
			e.draft.ZoneType = in.ZoneType
		}
		if in.Color != "" {
			e.draft.Color = in.Color
		}
		return nil
	case Save:
		if !e.editing() {
			return ErrInvalidTransition
		}
		return e.save(ctx, saved)
	case Delete:
		if e.mode != ModeEditingLoaded || e.draft.ID == "" {
			return ErrInvalidTransition
		}
		if err := e.areas.Delete(ctx, heritage.KindArea, e.draft.ID); err != nil {
			return fmt.Errorf("delete area %s: %w", e.draft.ID, err)
		}
		logger.L().Info("zone_deleted", "id", e.draft.ID)
		e.reset()
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownIntent, in.Type)
}

func (e *Editor) editing() bool {
	return e.mode == ModeCreating || e.mode == ModeEditingLoaded
}

func (e *Editor) vertexOp(in Intent) error {
	n := len(e.draft.Vertices)
	if in.Index < 0 || in.Index >= n {
		return ErrInvalidVertex
	}
	switch in.Type {
	case DragVertex:
		e.mutate(func(v []geo.Point) []geo.Point {
			v[in.Index] = in.Point
			return v
		})
	case PromoteMidpoint:
		if n < 2 {
			return ErrInvalidVertex
		}
		a := e.draft.Vertices[in.Index]
		b := e.draft.Vertices[(in.Index+1)%n]
		mid := geo.Midpoint(a, b)
		e.mutate(func(v []geo.Point) []geo.Point {
			out := make([]geo.Point, 0, len(v)+1)
			out = append(out, v[:in.Index+1]...)
			out = append(out, mid)
			return append(out, v[in.Index+1:]...)
		})
	case DeleteVertex:
		e.mutate(func(v []geo.Point) []geo.Point {
			return append(v[:in.Index], v[in.Index+1:]...)
		})
	}
	return nil
}

// mutate：先记录历史，再在副本上修改，最后重算面积
func (e *Editor) mutate(f func([]geo.Point) []geo.Point) {
	e.hist.Push(e.draft.Vertices)
	e.setVertices(f(geo.Clone(e.draft.Vertices)))
}

func (e *Editor) setVertices(v []geo.Point) {
	if v == nil {
		v = []geo.Point{}
	}
	e.draft.Vertices = v
	e.draft.ComputedAreaM2 = geo.RingArea(v)
}

// selectAt：命中测试全部已存保护区；多个重叠时全部作为候选，按面积升序、id 升序
func (e *Editor) selectAt(ctx context.Context, pt geo.Point) error {
	all, err := e.areas.Areas(ctx)
	if err != nil {
		return fmt.Errorf("list areas: %w", err)
	}
	var hits []heritage.Area
	for _, a := range all {
		if len(a.Geometry) >= 3 && geo.Contains(a.Geometry, pt) {
			if a.AreaM2 == 0 {
				a.AreaM2 = geo.RingArea(a.Geometry)
			}
			hits = append(hits, a)
		}
	}
	if len(hits) == 0 {
		logger.L().Debug("zone_select_miss", "lat", pt.Lat, "lon", pt.Lon)
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].AreaM2 != hits[j].AreaM2 {
			return hits[i].AreaM2 < hits[j].AreaM2
		}
		return hits[i].ID < hits[j].ID
	})
	e.candidates = hits
	e.cursor = 0
	e.mode = ModeEditingLoaded
	e.load(hits[0])
	return nil
}

func (e *Editor) load(a heritage.Area) {
	e.hist.Clear()
	e.city = a.City
	e.draft = Draft{ID: a.ID, Title: a.Title, ZoneType: a.ZoneType, Color: a.Color}
	e.setVertices(geo.OpenRing(a.Geometry))
}

func (e *Editor) save(ctx context.Context, saved **heritage.Area) error {
	if len(e.draft.Vertices) < 3 || geo.DistinctCount(e.draft.Vertices) < 3 {
		return ErrInvalidPolygon
	}
	id := e.draft.ID
	if id == "" {
		var err error
		if id, err = e.freshID(ctx); err != nil {
			return err
		}
	}
	area := heritage.Area{
		ID:       id,
		Title:    e.draft.Title,
		City:     e.city,
		ZoneType: e.draft.ZoneType,
		Color:    e.draft.Color,
	}
	area.ApplyGeometry(e.draft.Vertices)
	if err := e.areas.Save(ctx, heritage.AreaRecord(area)); err != nil {
		return fmt.Errorf("save area %s: %w", id, err)
	}
	metrics.ZonesSavedTotal.Inc()
	logger.L().Info("zone_saved", "id", id, "vertices", len(e.draft.Vertices), "area_m2", area.AreaM2)
	*saved = &area
	e.reset()
	return nil
}

// freshID：新建保护区的 id；标题派生的 id 已被点或面占用时改用随机 id
// 约束：新建不做形态迁移，不得覆盖或删除已有记录
func (e *Editor) freshID(ctx context.Context) (string, error) {
	id := heritage.Slug(e.draft.Title)
	if id == "" {
		return e.newID(), nil
	}
	ex, err := e.areas.Lookup(ctx, id)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", id, err)
	}
	if ex.Point != nil || ex.Area != nil {
		alt := e.newID()
		logger.L().Info("zone_id_taken", "slug", id, "id", alt)
		return alt, nil
	}
	return id, nil
}

func (e *Editor) reset() {
	e.mode = ModeIdle
	e.draft = Draft{}
	e.city = ""
	e.candidates = nil
	e.cursor = 0
	e.hist.Clear()
}

func (e *Editor) snapshot() State {
	d := e.draft
	d.Vertices = geo.Clone(d.Vertices)
	st := State{
		Mode:           e.mode,
		Draft:          d,
		CandidateIndex: e.cursor,
		CanUndo:        e.editing() && e.hist.CanUndo(),
		CanRedo:        e.editing() && e.hist.CanRedo(),
		CanSave:        e.editing() && len(d.Vertices) >= 3 && geo.DistinctCount(d.Vertices) >= 3,
	}
	for _, c := range e.candidates {
		st.Candidates = append(st.Candidates, c.ID)
	}
	return st
}
