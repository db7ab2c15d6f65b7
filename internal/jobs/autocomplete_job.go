package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/queue"
	"github.com/fulfill-next/internal/repository"
	"github.com/fulfill-next/internal/service"
)

const (
	defaultSweepCron      = "*/10 * * * *"
	defaultSweepBatchSize = 50
)

// AutoCompletionJob 自动完成兜底扫描：周期捞取已送达但未完成的订单并触发评估
type AutoCompletionJob struct {
	orderRepo    repository.OrderRepository
	autoComplete *service.AutoCompleteService
	queueClient  *queue.Client
	cron         *cron.Cron
	spec         string
	batchSize    int
}

// NewAutoCompletionJob 创建自动完成扫描任务
func NewAutoCompletionJob(orderRepo repository.OrderRepository, autoComplete *service.AutoCompleteService, queueClient *queue.Client, cfg config.SweepConfig) *AutoCompletionJob {
	spec := cfg.Cron
	if spec == "" {
		spec = defaultSweepCron
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &AutoCompletionJob{
		orderRepo:    orderRepo,
		autoComplete: autoComplete,
		queueClient:  queueClient,
		cron:         cron.New(),
		spec:         spec,
		batchSize:    batchSize,
	}
}

// Start 注册并启动定时扫描
func (j *AutoCompletionJob) Start() error {
	if j.orderRepo == nil || j.autoComplete == nil {
		return errors.New("auto completion job dependencies missing")
	}
	if _, err := j.cron.AddFunc(j.spec, j.Sweep); err != nil {
		return fmt.Errorf("注册自动完成扫描失败: %w", err)
	}
	j.cron.Start()
	logger.Infow("autocomplete_sweep_started",
		"cron", j.spec,
		"batch_size", j.batchSize,
	)
	return nil
}

// Stop 停止调度并返回在途扫描的完成信号
func (j *AutoCompletionJob) Stop() context.Context {
	logger.Infow("autocomplete_sweep_stopped")
	return j.cron.Stop()
}

// Sweep 执行一轮扫描：队列可用时投递异步任务，否则就地评估
func (j *AutoCompletionJob) Sweep() {
	orders, err := j.orderRepo.ListDeliveredWithoutCompletion(j.batchSize)
	if err != nil {
		logger.Warnw("autocomplete_sweep_list_failed", "error", err)
		return
	}
	if len(orders) == 0 {
		return
	}

	var enqueued, completed int
	for _, order := range orders {
		// 队列可用时走异步任务，与手动触发共用 worker 的处理路径
		if j.queueClient != nil && j.queueClient.Enabled() {
			payload := queue.AutoCompleteCheckPayload{OrderID: order.ID, OrgID: order.OrgID}
			if err := j.queueClient.EnqueueAutoCompleteCheck(payload); err != nil {
				logger.Warnw("autocomplete_sweep_enqueue_failed",
					"order_id", order.ID,
					"error", err,
				)
				continue
			}
			enqueued++
			continue
		}

		result, err := j.autoComplete.EvaluateOrder(order.ID, order.OrgID)
		switch {
		case err == nil:
			if result.Completed {
				completed++
			}
		case errors.Is(err, service.ErrOrderNotFound):
			// 扫描与删除并发时订单可能已不在，跳过
		case errors.Is(err, service.ErrCriticalMilestonesIncomplete):
			logger.Debugw("autocomplete_sweep_milestones_pending", "order_id", order.ID)
		default:
			logger.Warnw("autocomplete_sweep_evaluate_failed",
				"order_id", order.ID,
				"error", err,
			)
		}
	}

	logger.Infow("autocomplete_sweep_done",
		"scanned", len(orders),
		"enqueued", enqueued,
		"completed", completed,
	)
}
