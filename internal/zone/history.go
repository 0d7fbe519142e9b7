package zone

import "heritage-map/internal/geo"

// MaxHistory：撤销/重做栈的容量上限
const MaxHistory = 20

// History：单次多边形编辑的撤销/重做日志，栈内保存顶点列表的深拷贝
// 约束：超出容量时静默丢弃最旧快照；任何新编辑都会清空重做栈
type History struct {
	limit int
	undo  [][]geo.Point
	redo  [][]geo.Point
}

// NewHistory：limit<=0 时使用 MaxHistory
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = MaxHistory
	}
	return &History{limit: limit}
}

// Push：记录修改前的顶点列表，并清空重做栈
func (h *History) Push(vertices []geo.Point) {
	h.undo = pushCapped(h.undo, vertices, h.limit)
	h.redo = nil
}

// Undo：弹出最近快照作为新的当前状态，当前状态压入重做栈；栈空时返回 false
func (h *History) Undo(current []geo.Point) ([]geo.Point, bool) {
	if len(h.undo) == 0 {
		return current, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = pushCapped(h.redo, current, h.limit)
	return geo.Clone(prev), true
}

// Redo：Undo 的逆操作
func (h *History) Redo(current []geo.Point) ([]geo.Point, bool) {
	if len(h.redo) == 0 {
		return current, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = pushCapped(h.undo, current, h.limit)
	return geo.Clone(next), true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth：撤销栈与重做栈当前深度
func (h *History) Depth() (undo, redo int) { return len(h.undo), len(h.redo) }

// Clear：清空两个栈
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

func pushCapped(stack [][]geo.Point, v []geo.Point, limit int) [][]geo.Point {
	snap := geo.Clone(v)
	if snap == nil {
		snap = []geo.Point{}
	}
	stack = append(stack, snap)
	if over := len(stack) - limit; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
