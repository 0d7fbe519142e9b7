package importer

import (
	"context"
	"sync"
	"time"

	"heritage-map/internal/heritage"
	"heritage-map/internal/logger"
	"heritage-map/internal/metrics"
	"heritage-map/internal/timeutil"
)

// DefaultInterval：外部地名服务约每秒一次的使用限制，留出余量
const DefaultInterval = 1100 * time.Millisecond

// Processor：单条处理能力，由 Pipeline 实现
type Processor interface {
	Process(ctx context.Context, raw heritage.RawRecord) (Result, error)
}

// Status：队列计数
type Status struct {
	Queued    int  `json:"queued"`
	Processed int  `json:"processed"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Running   bool `json:"running"`
}

// Failure：失败任务记录；不重试，由调用方决定是否重新导入
type Failure struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Err   string    `json:"error"`
	At    time.Time `json:"at"`
}

// batch：一次入队的进度回调，offset 为同批次此前已完成的数量
type batch struct {
	offset int
	done   int
	fn     func(done int)
}

type task struct {
	raw heritage.RawRecord
	b   *batch
}

// Queue：单消费者 FIFO，每个节拍最多处理一条
// 约束：任务之间不并行；停止即取消 Run 的 ctx，当前任务执行完才退出
type Queue struct {
	proc     Processor
	clock    timeutil.Clock
	interval time.Duration

	mu       sync.Mutex
	backlog  []task
	status   Status
	failures []Failure
	step     sync.Mutex
}

func NewQueue(p Processor, clock timeutil.Clock, interval time.Duration) *Queue {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Queue{proc: p, clock: clock, interval: interval}
}

// Enqueue：追加到队尾；onProgress 在本批每条完成后以累计数回调，可为空
func (q *Queue) Enqueue(recs []heritage.RawRecord, offset int, onProgress func(done int)) {
	if len(recs) == 0 {
		return
	}
	b := &batch{offset: offset, fn: onProgress}
	q.mu.Lock()
	for _, r := range recs {
		q.backlog = append(q.backlog, task{raw: r, b: b})
	}
	q.status.Queued = len(q.backlog)
	q.mu.Unlock()
	q.syncDepth()
	logger.L().Info("import_enqueued", "count", len(recs))
}

// Step：取出队首执行；队列为空返回 false
func (q *Queue) Step(ctx context.Context) bool {
	q.step.Lock()
	defer q.step.Unlock()
	q.mu.Lock()
	if len(q.backlog) == 0 {
		q.mu.Unlock()
		return false
	}
	t := q.backlog[0]
	q.backlog[0] = task{}
	q.backlog = q.backlog[1:]
	q.status.Queued = len(q.backlog)
	q.mu.Unlock()
	q.syncDepth()

	res, err := q.proc.Process(ctx, t.raw)

	q.mu.Lock()
	switch {
	case err != nil:
		q.status.Failed++
		q.failures = append(q.failures, Failure{ID: res.ID, Title: t.raw.Title, Err: err.Error(), At: q.clock.Now().UTC()})
	case res.Outcome == OutcomeSkipped:
		q.status.Skipped++
	default:
		q.status.Processed++
	}
	var notify func(int)
	var done int
	if t.b != nil {
		t.b.done++
		notify, done = t.b.fn, t.b.offset+t.b.done
	}
	q.mu.Unlock()

	if err != nil {
		logger.L().Error("import_task_failed", "id", res.ID, "title", t.raw.Title, "err", err)
	}
	if notify != nil {
		notify(done)
	}
	return true
}

// Run：按节拍消费直到 ctx 取消
func (q *Queue) Run(ctx context.Context) error {
	tk := q.clock.NewTicker(q.interval)
	defer tk.Stop()
	q.setRunning(true)
	defer q.setRunning(false)
	logger.L().Info("import_queue_started", "interval_ms", q.interval.Milliseconds())
	for {
		select {
		case <-ctx.Done():
			logger.L().Info("import_queue_stopped")
			return ctx.Err()
		case <-tk.C():
			// 任务本身不受取消影响，保证写入完整
			q.Step(context.WithoutCancel(ctx))
		}
	}
}

// Flush：按相同节拍消费，队列清空即返回；供命令行一次性导入使用
func (q *Queue) Flush(ctx context.Context) error {
	if q.Len() == 0 {
		return nil
	}
	tk := q.clock.NewTicker(q.interval)
	defer tk.Stop()
	for q.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C():
			q.Step(context.WithoutCancel(ctx))
		}
	}
	return nil
}

// Status：计数快照
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// Failures：失败列表副本
func (q *Queue) Failures() []Failure {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Failure(nil), q.failures...)
}

// Len：待处理数量
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Drain：丢弃未开始的任务，返回丢弃数量
func (q *Queue) Drain() int {
	q.mu.Lock()
	n := len(q.backlog)
	q.backlog = nil
	q.status.Queued = 0
	q.mu.Unlock()
	q.syncDepth()
	return n
}

func (q *Queue) recordFailure(f Failure) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.status.Failed++
	q.failures = append(q.failures, f)
}

func (q *Queue) record(o Outcome) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if o == OutcomeSkipped {
		q.status.Skipped++
	} else {
		q.status.Processed++
	}
}

func (q *Queue) setRunning(v bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.status.Running = v
}

func (q *Queue) syncDepth() {
	metrics.ImportQueueDepth.Set(float64(q.Len()))
}
