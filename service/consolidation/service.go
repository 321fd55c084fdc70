/*
 * @module service/consolidation/service
 * @description 整合作业编排：串联运行登记、数据装载、整合聚合、情感标注与画像落库
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow 触发 -> (可选)运行租约 -> RUNNING登记 -> 整合 -> 情感 -> 覆盖落库 -> SUCCESS/FAILED
 * @rules 仅由存在通过记录的摄入事件或人工接口触发；RUN_LEASE开启时同一租约窗口内的重复触发被吸收；
 *        任一阶段失败时作业记录置FAILED并保留错误信息，画像表不被破坏
 * @dependencies service/validation, service/distributed_lock, service/metrics, log/slog
 * @refs run_tracker.go, consolidator.go, sentiment.go, profile_sink.go
 */

package consolidation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"customer360-service/service/distributed_lock"
	"customer360-service/service/metrics"
	"customer360-service/service/models"
	"customer360-service/service/validation"

	"github.com/spf13/cast"
)

const runLeaseKey = "customer360_consolidation"

// Service 整合作业编排服务
type Service struct {
	tracker      *RunTracker
	consolidator *Consolidator
	tagger       *SentimentTagger
	sink         *ProfileSink
	leaseExec    *distributed_lock.LockExecutor
	leaseTTL     time.Duration
}

// NewService 创建整合作业编排服务
// RUN_LEASE=true且提供了分布式锁时启用运行租约防重，RUN_LEASE_TTL_SECONDS控制租约时长，默认300
func NewService(tracker *RunTracker, consolidator *Consolidator, tagger *SentimentTagger, sink *ProfileSink, lease distributed_lock.DistributedLock) *Service {
	s := &Service{
		tracker:      tracker,
		consolidator: consolidator,
		tagger:       tagger,
		sink:         sink,
	}
	if lease != nil && strings.EqualFold(getEnvWithDefault("RUN_LEASE", "false"), "true") {
		ttl := cast.ToInt(getEnvWithDefault("RUN_LEASE_TTL_SECONDS", "300"))
		if ttl <= 0 {
			ttl = 300
		}
		s.leaseExec = distributed_lock.NewLockExecutor(lease)
		s.leaseTTL = time.Duration(ttl) * time.Second
	}
	return s
}

// TriggerRun 响应摄入侧触发，执行一次整合作业
func (s *Service) TriggerRun(ctx context.Context, params validation.TriggerParams) error {
	if s.leaseExec != nil {
		return s.leaseExec.ExecuteWithLock(ctx, runLeaseKey, s.leaseTTL, func() error {
			_, err := s.Run(ctx, params)
			return err
		})
	}
	_, err := s.Run(ctx, params)
	return err
}

// Run 执行一次完整的整合作业，返回作业运行记录
func (s *Service) Run(ctx context.Context, params validation.TriggerParams) (*models.RunRecord, error) {
	record, err := s.tracker.Start(params.DQScore, params.ErrorCount)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	slog.Info("整合作业启动",
		"job_id", record.JobID, "dq_score", params.DQScore, "error_count", params.ErrorCount)

	profiles, err := s.execute(ctx, params)
	duration := time.Since(started)
	metrics.RunDuration.Observe(duration.Seconds())

	if err != nil {
		metrics.RunsTotal.WithLabelValues(models.RunStatusFailed).Inc()
		if failErr := s.tracker.Fail(record.JobID, err); failErr != nil {
			slog.Error("回写作业失败状态出错", "job_id", record.JobID, "error", failErr)
		}
		slog.Error("整合作业失败", "job_id", record.JobID, "duration", duration, "error", err)
		return record, err
	}

	if err := s.tracker.Succeed(record.JobID, int64(len(profiles))); err != nil {
		return record, err
	}
	metrics.RunsTotal.WithLabelValues(models.RunStatusSuccess).Inc()
	slog.Info("整合作业完成",
		"job_id", record.JobID, "profiles", len(profiles), "duration", duration)
	return record, nil
}

// execute 作业主体：装载、整合、情感标注、覆盖落库
func (s *Service) execute(ctx context.Context, params validation.TriggerParams) ([]models.CustomerProfile, error) {
	input, err := s.consolidator.Load(ctx, LoadParams{
		CustomersPrefix: params.ValidatedCustomersPrefix,
		PurchasesPrefix: params.ValidatedPurchasesPrefix,
		FeedbackPrefix:  params.ValidatedFeedbackPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("装载通过区数据失败: %w", err)
	}

	profiles, feedbackTexts := s.consolidator.Consolidate(input)
	if len(profiles) > 0 && s.tagger != nil {
		s.tagger.Apply(ctx, profiles, feedbackTexts)
	}

	if err := s.sink.Overwrite(profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// getEnvWithDefault 获取环境变量，不存在时返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
