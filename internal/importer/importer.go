package importer

import (
	"context"
	"fmt"

	"heritage-map/internal/heritage"
	"heritage-map/internal/logger"
)

// Purger：清空缓存进程内层级的能力，由 geocode.Cache 实现
type Purger interface {
	Purge(ctx context.Context)
}

// Importer：批量导入入口，持有处理流程与限速队列
type Importer struct {
	pipe  Processor
	queue *Queue
	repo  *heritage.Repository
	cache Purger
}

// New：cache 可为空
func New(pipe Processor, queue *Queue, repo *heritage.Repository, cache Purger) *Importer {
	return &Importer{pipe: pipe, queue: queue, repo: repo, cache: cache}
}

func (im *Importer) Queue() *Queue { return im.queue }

// Summary：一次种子导入的分配结果
type Summary struct {
	Manual int `json:"manual"`
	Failed int `json:"failed"`
	Queued int `json:"queued"`
}

// ImportSeed：先同步处理带人工坐标的记录，再把其余记录放入限速队列
// 约束：人工阶段不访问外部服务；单条持久化失败与队列一致，记入失败列表后继续；
// 仅在 ctx 取消时中止且不入队。onProgress 在每条完成后（含失败）以累计数回调
func (im *Importer) ImportSeed(ctx context.Context, recs []heritage.RawRecord, onProgress func(done int)) (Summary, error) {
	var manual, rest []heritage.RawRecord
	for _, r := range recs {
		if r.HasManualCoordinates() {
			manual = append(manual, r)
		} else {
			rest = append(rest, r)
		}
	}
	var sum Summary
	for i, r := range manual {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("manual pass interrupted after %d records: %w", i, err)
		}
		res, err := im.pipe.Process(ctx, r)
		if err != nil {
			im.queue.recordFailure(Failure{ID: res.ID, Title: r.Title, Err: err.Error(), At: im.queue.clock.Now().UTC()})
			logger.L().Error("import_manual_failed", "id", res.ID, "title", r.Title, "err", err)
			sum.Failed++
		} else {
			im.queue.record(res.Outcome)
			sum.Manual++
		}
		if onProgress != nil {
			onProgress(i + 1)
		}
	}
	im.queue.Enqueue(rest, len(manual), onProgress)
	sum.Queued = len(rest)
	logger.L().Info("import_seed_accepted", "manual", sum.Manual, "failed", sum.Failed, "queued", sum.Queued)
	return sum, nil
}

// ClearAll：丢弃未处理任务并清空三个集合；确认由调用方负责
func (im *Importer) ClearAll(ctx context.Context) (int, error) {
	if n := im.queue.Drain(); n > 0 {
		logger.L().Warn("import_backlog_dropped", "count", n)
	}
	if im.cache != nil {
		im.cache.Purge(ctx)
	}
	return im.repo.ClearAll(ctx)
}
