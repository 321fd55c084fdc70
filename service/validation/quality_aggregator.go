/*
 * @module service/validation/quality_aggregator
 * @description 数据质量聚合器：按raw/对象键覆盖式维护通过/拒收计数，按数据源求和计算质量得分，支持全量重扫对账
 * @architecture 分层架构 - 数据校验层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 单文件分流结果 -> 按对象键覆盖计数 -> 按数据源求和得分；对账时重扫分区前缀逐对象重建
 * @rules 同一对象键重放只覆盖不累加；得分=100*通过/(通过+拒收)，分母为零时得分为0；
 *        重扫以分区内实际记录数为准逐对象重建并清除失效行
 * @dependencies gorm.io/gorm, service/objectstore, service/format
 * @refs ingest_service.go, service/scheduler
 */

package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"customer360-service/service/format"
	"customer360-service/service/models"
	"customer360-service/service/objectstore"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QualityAggregator 数据质量聚合器
type QualityAggregator struct {
	db    *gorm.DB
	store objectstore.ObjectStore
}

// NewQualityAggregator 创建数据质量聚合器
func NewQualityAggregator(db *gorm.DB, store objectstore.ObjectStore) *QualityAggregator {
	return &QualityAggregator{db: db, store: store}
}

// SourceKeyForRawKey 从raw/键提取数据源标识
// raw/customers/2024-01.xml -> customers
func SourceKeyForRawKey(rawKey string) string {
	rest := strings.TrimPrefix(rawKey, RawPrefix)
	if idx := strings.Index(rest, "/"); idx > 0 {
		return rest[:idx]
	}
	return rest
}

// Record 记录一个raw/对象的分流结果
// 以对象键为主键覆盖式upsert，同一文件的at-least-once重放不会重复计数
func (a *QualityAggregator) Record(rawKey string, accepted, rejected int64) error {
	counter := models.SourceQuality{
		SourceKey:     rawKey,
		Segment:       SourceKeyForRawKey(rawKey),
		AcceptedCount: accepted,
		RejectedCount: rejected,
		UpdatedAt:     time.Now(),
	}
	err := a.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"accepted_count": accepted,
			"rejected_count": rejected,
			"updated_at":     time.Now(),
		}),
	}).Create(&counter).Error
	if err != nil {
		return fmt.Errorf("更新质量计数器失败: %w", err)
	}
	return nil
}

// Score 返回指定数据源的当前质量得分，由该源下所有对象的计数求和派生
func (a *QualityAggregator) Score(sourceKey string) (models.QualityScore, error) {
	var counters []models.SourceQuality
	if err := a.db.Where("segment = ?", sourceKey).Find(&counters).Error; err != nil {
		return models.QualityScore{}, fmt.Errorf("查询质量计数器失败: %w", err)
	}
	var accepted, rejected int64
	for _, c := range counters {
		accepted += c.AcceptedCount
		rejected += c.RejectedCount
	}
	return models.ComputeQualityScore(accepted, rejected), nil
}

// Scores 返回所有数据源的质量得分
func (a *QualityAggregator) Scores() (map[string]models.QualityScore, error) {
	var counters []models.SourceQuality
	if err := a.db.Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("查询质量计数器失败: %w", err)
	}
	accepted := make(map[string]int64)
	rejected := make(map[string]int64)
	for _, c := range counters {
		accepted[c.Segment] += c.AcceptedCount
		rejected[c.Segment] += c.RejectedCount
	}
	result := make(map[string]models.QualityScore, len(accepted))
	for segment := range accepted {
		result[segment] = models.ComputeQualityScore(accepted[segment], rejected[segment])
	}
	return result, nil
}

// Rescan 全量重扫指定数据源的分区前缀，以实际记录数逐对象重建计数器
// 用于定时对账，纠正计数行与分区内容的漂移，失效的计数行被清除
func (a *QualityAggregator) Rescan(ctx context.Context, sourceKey string) (models.QualityScore, error) {
	counts := make(map[string]*models.SourceQuality)
	entry := func(rawKey string) *models.SourceQuality {
		c, ok := counts[rawKey]
		if !ok {
			c = &models.SourceQuality{
				SourceKey: rawKey,
				Segment:   sourceKey,
				UpdatedAt: time.Now(),
			}
			counts[rawKey] = c
		}
		return c
	}

	validatedKeys, err := a.store.List(ctx, ValidatedPrefix+sourceKey+"/")
	if err != nil {
		return models.QualityScore{}, fmt.Errorf("列举通过区前缀失败: %w", err)
	}
	for _, key := range validatedKeys {
		n, err := a.countObject(ctx, key)
		if err != nil {
			return models.QualityScore{}, err
		}
		entry(RawPrefix + strings.TrimPrefix(key, ValidatedPrefix)).AcceptedCount = n
	}

	errorKeys, err := a.store.List(ctx, ErrorPrefix+sourceKey+"/")
	if err != nil {
		return models.QualityScore{}, fmt.Errorf("列举拒收区前缀失败: %w", err)
	}
	for _, key := range errorKeys {
		n, err := a.countObject(ctx, key)
		if err != nil {
			return models.QualityScore{}, err
		}
		entry(RawPrefix + strings.TrimPrefix(key, ErrorPrefix)).RejectedCount = n
	}

	counters := make([]models.SourceQuality, 0, len(counts))
	var accepted, rejected int64
	for _, c := range counts {
		counters = append(counters, *c)
		accepted += c.AcceptedCount
		rejected += c.RejectedCount
	}
	sort.Slice(counters, func(i, j int) bool {
		return counters[i].SourceKey < counters[j].SourceKey
	})

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("segment = ?", sourceKey).Delete(&models.SourceQuality{}).Error; err != nil {
			return err
		}
		if len(counters) == 0 {
			return nil
		}
		return tx.Create(&counters).Error
	})
	if err != nil {
		return models.QualityScore{}, fmt.Errorf("重建质量计数器失败: %w", err)
	}
	return models.ComputeQualityScore(accepted, rejected), nil
}

// countObject 统计单个对象内的记录条数
// 整文件损坏的对象按一条拒收记录原样进入拒收区，计为1
func (a *QualityAggregator) countObject(ctx context.Context, key string) (int64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("读取对象%s失败: %w", key, err)
	}
	n, err := countRecords(key, data)
	if err != nil {
		if errors.Is(err, format.ErrMalformedFile) {
			return 1, nil
		}
		return 0, fmt.Errorf("解析对象%s失败: %w", key, err)
	}
	return n, nil
}

// countRecords 按键名后缀选择编解码器统计记录条数
func countRecords(key string, data []byte) (int64, error) {
	f, err := format.ForKey(key)
	if err != nil {
		return 0, err
	}
	switch f {
	case format.FormatXML:
		records, err := format.DecodeCustomers(data)
		if err != nil {
			return 0, err
		}
		return int64(len(records)), nil
	case format.FormatJSON:
		records, err := format.DecodePurchases(data)
		if err != nil {
			return 0, err
		}
		return int64(len(records)), nil
	case format.FormatCSV:
		records, err := format.DecodeFeedback(data)
		if err != nil {
			return 0, err
		}
		return int64(len(records)), nil
	}
	return 0, format.ErrUnsupportedFormat
}
