/*
 * @module service/validation/ingest_service
 * @description 摄入服务：消费上传通知事件，串联解码、校验分流、分区落盘、质量计分与下游触发
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 上传事件 -> 读取raw/对象 -> 编码归一化 -> 分流 -> 落盘 -> 质量计数 -> 触发整合
 * @rules 事件形状非法只记录告警不中断批次；整文件损坏的对象原样落入error/并计一次拒收；
 *        仅当通过记录数大于零时触发下游整合
 * @dependencies service/format, service/objectstore, service/metrics, log/slog
 * @refs partition_writer.go, quality_aggregator.go, service/consolidation
 */

package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"customer360-service/service/format"
	"customer360-service/service/metrics"
	"customer360-service/service/models"
	"customer360-service/service/objectstore"
)

// TriggerParams 下游整合触发参数
type TriggerParams struct {
	ValidatedCustomersPrefix string  `json:"validated_customers_prefix"`
	ValidatedPurchasesPrefix string  `json:"validated_purchases_prefix"`
	ValidatedFeedbackPrefix  string  `json:"validated_feedback_prefix"`
	DQScore                  float64 `json:"dq_score"`
	ErrorCount               int64   `json:"error_count"`
	SourceKey                string  `json:"source_key"`
}

// ConsolidationTrigger 下游整合触发端
type ConsolidationTrigger interface {
	TriggerRun(ctx context.Context, params TriggerParams) error
}

// IngestResult 单个事件的处理结果
type IngestResult struct {
	Key       string              `json:"key"`
	Kind      models.RecordKind   `json:"kind"`
	Accepted  int64               `json:"accepted"`
	Rejected  int64               `json:"rejected"`
	Score     models.QualityScore `json:"score"`
	Triggered bool                `json:"triggered"`
	Skipped   bool                `json:"skipped,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// IngestService 摄入服务
type IngestService struct {
	store      objectstore.ObjectStore
	validator  *Validator
	writer     *PartitionWriter
	aggregator *QualityAggregator
	triggers   []ConsolidationTrigger
	fanoutAll  bool
}

// NewIngestService 创建摄入服务
// INGEST_FANOUT控制事件批次的扇出策略：all(默认)处理批次内全部事件，first仅处理首个合法事件
func NewIngestService(store objectstore.ObjectStore, validator *Validator, writer *PartitionWriter, aggregator *QualityAggregator) *IngestService {
	fanout := strings.ToLower(getEnvWithDefault("INGEST_FANOUT", "all"))
	return &IngestService{
		store:      store,
		validator:  validator,
		writer:     writer,
		aggregator: aggregator,
		fanoutAll:  fanout != "first",
	}
}

// RegisterTrigger 注册下游整合触发端
func (s *IngestService) RegisterTrigger(t ConsolidationTrigger) {
	s.triggers = append(s.triggers, t)
}

// ProcessEvents 批量处理上传通知事件
// 形状非法的事件跳过并计入指标，单个事件的处理失败不中断后续事件；
// 扇出策略为first时只处理批次内首个形状合法的事件，其余事件跳过
func (s *IngestService) ProcessEvents(ctx context.Context, events []models.ObjectEvent) []IngestResult {
	results := make([]IngestResult, 0, len(events))
	processed := false
	for _, event := range events {
		if !s.fanoutAll && processed {
			metrics.EventsProcessed.WithLabelValues("skipped").Inc()
			results = append(results, IngestResult{
				Key:     event.Key,
				Skipped: true,
				Reason:  "扇出策略为first，仅处理批次首个事件",
			})
			continue
		}
		if !event.IsValid() {
			slog.Warn("上传事件形状非法，已跳过", "bucket", event.Bucket, "key", event.Key)
			metrics.EventsProcessed.WithLabelValues("invalid_shape").Inc()
			results = append(results, IngestResult{
				Key:     event.Key,
				Skipped: true,
				Reason:  "事件缺少bucket或key",
			})
			continue
		}
		processed = true
		result, err := s.ProcessEvent(ctx, event)
		if err != nil {
			slog.Error("处理上传事件失败", "key", event.Key, "error", err)
			metrics.EventsProcessed.WithLabelValues("failed").Inc()
			result.Reason = err.Error()
		} else {
			metrics.EventsProcessed.WithLabelValues("ok").Inc()
		}
		results = append(results, result)
	}
	return results
}

// ProcessEvent 处理单个上传通知事件
func (s *IngestService) ProcessEvent(ctx context.Context, event models.ObjectEvent) (IngestResult, error) {
	result := IngestResult{Key: event.Key}

	if !strings.HasPrefix(event.Key, RawPrefix) {
		result.Skipped = true
		result.Reason = "键不在raw/前缀下"
		return result, nil
	}

	data, err := s.store.Get(ctx, event.Key)
	if err != nil {
		return result, fmt.Errorf("读取对象%s失败: %w", event.Key, err)
	}

	data = format.NormalizeUTF8(data)

	f, err := format.ForKey(event.Key)
	if err != nil {
		return result, fmt.Errorf("不支持的文件类型%s: %w", event.Key, err)
	}

	sourceKey := SourceKeyForRawKey(event.Key)

	var accepted, rejectedCount int64
	switch f {
	case format.FormatXML:
		result.Kind = models.KindCustomer
		accepted, rejectedCount, err = s.processCustomers(ctx, event.Key, data)
	case format.FormatJSON:
		result.Kind = models.KindPurchase
		accepted, rejectedCount, err = s.processPurchases(ctx, event.Key, data)
	case format.FormatCSV:
		result.Kind = models.KindFeedback
		accepted, rejectedCount, err = s.processFeedback(ctx, event.Key, data)
	}
	if err != nil {
		if errors.Is(err, format.ErrMalformedFile) {
			// 整文件损坏：原样落入拒收区，计一次拒收
			if putErr := s.store.Put(ctx, ErrorKey(event.Key), data); putErr != nil {
				return result, fmt.Errorf("写入拒收区对象失败: %w", putErr)
			}
			metrics.ValidationFailures.Inc()
			if recErr := s.aggregator.Record(event.Key, 0, 1); recErr != nil {
				return result, recErr
			}
			result.Rejected = 1
			score, scoreErr := s.aggregator.Score(sourceKey)
			if scoreErr != nil {
				return result, scoreErr
			}
			result.Score = score
			metrics.QualityScore.WithLabelValues(sourceKey).Set(score.Score)
			slog.Warn("文件整体损坏，已移入拒收区", "key", event.Key)
			return result, nil
		}
		return result, err
	}

	result.Accepted = accepted
	result.Rejected = rejectedCount
	metrics.RecordsAccepted.WithLabelValues(string(result.Kind)).Add(float64(accepted))
	metrics.RecordsRejected.WithLabelValues(string(result.Kind)).Add(float64(rejectedCount))
	if rejectedCount > 0 {
		metrics.ValidationFailures.Inc()
	}

	if err := s.aggregator.Record(event.Key, accepted, rejectedCount); err != nil {
		return result, err
	}
	score, err := s.aggregator.Score(sourceKey)
	if err != nil {
		return result, err
	}
	result.Score = score
	metrics.QualityScore.WithLabelValues(sourceKey).Set(score.Score)

	slog.Info("上传事件处理完成",
		"key", event.Key, "kind", result.Kind,
		"accepted", accepted, "rejected", rejectedCount, "dq_score", score.Score)

	// 仅当存在通过记录时触发下游整合
	if accepted > 0 && len(s.triggers) > 0 {
		params := TriggerParams{
			ValidatedCustomersPrefix: ValidatedPrefix + "customers/",
			ValidatedPurchasesPrefix: ValidatedPrefix + "purchases/",
			ValidatedFeedbackPrefix:  ValidatedPrefix + "feedback/",
			DQScore:                  score.Score,
			ErrorCount:               score.Rejected,
			SourceKey:                sourceKey,
		}
		for i, t := range s.triggers {
			if err := t.TriggerRun(ctx, params); err != nil {
				slog.Error("触发整合作业失败", "key", event.Key, "trigger", i, "error", err)
			} else {
				result.Triggered = true
			}
		}
	}

	return result, nil
}

// processCustomers 解码并分流客户档案文件
func (s *IngestService) processCustomers(ctx context.Context, rawKey string, data []byte) (int64, int64, error) {
	records, err := format.DecodeCustomers(data)
	if err != nil {
		return 0, 0, err
	}
	accepted, rejectedRecords := s.validator.PartitionCustomers(records)
	if err := s.writer.WriteCustomers(ctx, rawKey, accepted, rejectedRecords); err != nil {
		return 0, 0, err
	}
	return int64(len(accepted)), int64(len(rejectedRecords)), nil
}

// processPurchases 解码并分流购买流水文件
func (s *IngestService) processPurchases(ctx context.Context, rawKey string, data []byte) (int64, int64, error) {
	records, err := format.DecodePurchases(data)
	if err != nil {
		return 0, 0, err
	}
	accepted, rejectedRecords := s.validator.PartitionPurchases(records)
	if err := s.writer.WritePurchases(ctx, rawKey, accepted, rejectedRecords); err != nil {
		return 0, 0, err
	}
	return int64(len(accepted)), int64(len(rejectedRecords)), nil
}

// processFeedback 解码并分流客户反馈文件
func (s *IngestService) processFeedback(ctx context.Context, rawKey string, data []byte) (int64, int64, error) {
	records, err := format.DecodeFeedback(data)
	if err != nil {
		return 0, 0, err
	}
	accepted, rejectedRecords := s.validator.PartitionFeedback(records)
	if err := s.writer.WriteFeedback(ctx, rawKey, accepted, rejectedRecords); err != nil {
		return 0, 0, err
	}
	return int64(len(accepted)), int64(len(rejectedRecords)), nil
}

// getEnvWithDefault 获取环境变量，不存在时返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
