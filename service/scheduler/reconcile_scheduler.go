/*
 * @module service/scheduler/reconcile_scheduler
 * @description 对账调度器：定时全量重扫各数据源分区重建质量计数，并可选定时触发整合作业
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 启动调度器 -> cron触发 -> (可选)分布式锁防重 -> 逐源重扫 -> 计数器重建
 * @rules RECONCILE_CRON为空时禁用对账；CONSOLIDATION_CRON为空时禁用定时整合；
 *        多实例部署时通过分布式锁保证同一时刻仅一个实例执行
 * @dependencies github.com/robfig/cron/v3, service/distributed_lock, service/validation
 * @refs service/validation/quality_aggregator.go, service/consolidation/service.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer360-service/service/distributed_lock"
	"customer360-service/service/validation"

	"github.com/robfig/cron/v3"
)

// ConsolidationRunner 定时整合的触发端
type ConsolidationRunner interface {
	TriggerRun(ctx context.Context, params validation.TriggerParams) error
}

// ReconcileScheduler 对账调度器
type ReconcileScheduler struct {
	aggregator       *validation.QualityAggregator
	runner           ConsolidationRunner
	cron             *cron.Cron
	ctx              context.Context
	cancel           context.CancelFunc
	schedulerStarted bool
	distributedLock  distributed_lock.DistributedLock
}

// NewReconcileScheduler 创建对账调度器
func NewReconcileScheduler(aggregator *validation.QualityAggregator, runner ConsolidationRunner) *ReconcileScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithSeconds())

	return &ReconcileScheduler{
		aggregator: aggregator,
		runner:     runner,
		cron:       c,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetDistributedLock 设置分布式锁
func (rs *ReconcileScheduler) SetDistributedLock(lock distributed_lock.DistributedLock) {
	rs.distributedLock = lock
	if lock != nil {
		slog.Info("对账调度器已启用分布式锁")
	}
}

// StartScheduler 启动调度器
// RECONCILE_CRON默认每日03:00，CONSOLIDATION_CRON默认为空即不定时整合
func (rs *ReconcileScheduler) StartScheduler() error {
	if rs.schedulerStarted {
		return fmt.Errorf("调度器已经启动")
	}

	slog.Info("启动数据质量对账调度器")

	reconcileExpr := getEnvWithDefault("RECONCILE_CRON", "0 0 3 * * *")
	if reconcileExpr != "" {
		if _, err := rs.cron.AddFunc(reconcileExpr, rs.runReconcile); err != nil {
			return fmt.Errorf("注册对账任务失败: %w", err)
		}
		slog.Info("对账任务已注册", "cron", reconcileExpr)
	}

	consolidationExpr := os.Getenv("CONSOLIDATION_CRON")
	if consolidationExpr != "" && rs.runner != nil {
		if _, err := rs.cron.AddFunc(consolidationExpr, rs.runConsolidation); err != nil {
			return fmt.Errorf("注册定时整合任务失败: %w", err)
		}
		slog.Info("定时整合任务已注册", "cron", consolidationExpr)
	}

	rs.cron.Start()
	rs.schedulerStarted = true
	slog.Info("数据质量对账调度器启动完成")
	return nil
}

// StopScheduler 停止调度器
func (rs *ReconcileScheduler) StopScheduler() {
	if !rs.schedulerStarted {
		return
	}

	slog.Info("停止数据质量对账调度器")
	rs.cancel()
	if rs.cron != nil {
		rs.cron.Stop()
	}
	rs.schedulerStarted = false
	slog.Info("数据质量对账调度器已停止")
}

// runReconcile 执行一轮全源对账
func (rs *ReconcileScheduler) runReconcile() {
	rs.withLock("quality_reconcile", 10*time.Minute, func() error {
		return rs.ReconcileAll(rs.ctx)
	})
}

// runConsolidation 执行一次定时整合
func (rs *ReconcileScheduler) runConsolidation() {
	rs.withLock("scheduled_consolidation", 30*time.Minute, func() error {
		return rs.runner.TriggerRun(rs.ctx, validation.TriggerParams{
			ValidatedCustomersPrefix: validation.ValidatedPrefix + "customers/",
			ValidatedPurchasesPrefix: validation.ValidatedPrefix + "purchases/",
			ValidatedFeedbackPrefix:  validation.ValidatedPrefix + "feedback/",
		})
	})
}

// ReconcileAll 对计数器中登记过的每个数据源执行全量重扫
func (rs *ReconcileScheduler) ReconcileAll(ctx context.Context) error {
	scores, err := rs.aggregator.Scores()
	if err != nil {
		return fmt.Errorf("读取数据源清单失败: %w", err)
	}

	for sourceKey := range scores {
		rebuilt, err := rs.aggregator.Rescan(ctx, sourceKey)
		if err != nil {
			slog.Error("数据源对账失败", "source", sourceKey, "error", err)
			continue
		}
		slog.Info("数据源对账完成",
			"source", sourceKey,
			"accepted", rebuilt.Accepted,
			"rejected", rebuilt.Rejected,
			"score", rebuilt.Score)
	}
	return nil
}

// withLock 在分布式锁保护下执行任务，未配置锁时直接执行
func (rs *ReconcileScheduler) withLock(key string, ttl time.Duration, fn func() error) {
	run := func() {
		if err := fn(); err != nil {
			slog.Error("调度任务执行失败", "task", key, "error", err)
		}
	}

	if rs.distributedLock == nil {
		run()
		return
	}

	executor := distributed_lock.NewLockExecutor(rs.distributedLock)
	err := executor.ExecuteWithLock(rs.ctx, key, ttl, func() error {
		run()
		return nil
	})
	if err != nil {
		slog.Error("调度任务获取锁失败", "task", key, "error", err)
	}
}

// getEnvWithDefault 获取环境变量，不存在时返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
