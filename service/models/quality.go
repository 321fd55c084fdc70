/*
 * @module service/models/quality
 * @description 数据质量模型：语料级质量得分与按源文件维护的增量计数器
 * @architecture DDD领域驱动设计 - 值对象/实体模型
 * @documentReference ai_docs/customer360_quality_design.md
 * @stateFlow 单文件校验 -> 按raw/对象键覆盖式upsert -> 按数据源求和 -> 计算得分
 * @rules 同一对象键重复记录不可重复计数；得分为派生值，不单独落库
 * @dependencies gorm.io/gorm
 * @refs service/validation/quality_aggregator.go
 */

package models

import "time"

// QualityScore 语料级数据质量得分
type QualityScore struct {
	Accepted int64   `json:"accepted"`
	Rejected int64   `json:"rejected"`
	Score    float64 `json:"score"` // 100 × accepted / (accepted+rejected)，分母为0时取0
}

// ComputeQualityScore 由计数计算质量得分
func ComputeQualityScore(accepted, rejected int64) QualityScore {
	score := 0.0
	if total := accepted + rejected; total > 0 {
		score = float64(accepted) / float64(total) * 100
	}
	return QualityScore{Accepted: accepted, Rejected: rejected, Score: score}
}

// SourceQuality 按源文件维护的质量计数器
// 以raw/对象键为主键、覆盖式upsert，重放同一文件不会造成重复计数；
// 数据源与语料得分由同segment的行求和派生
type SourceQuality struct {
	SourceKey     string    `json:"source_key" gorm:"primaryKey;column:source_key;type:varchar(500)"`
	Segment       string    `json:"segment" gorm:"size:200;index"`
	AcceptedCount int64     `json:"accepted_count" gorm:"default:0"`
	RejectedCount int64     `json:"rejected_count" gorm:"default:0"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (SourceQuality) TableName() string {
	return "source_quality_counters"
}
