/*
 * @module service/models/profile
 * @description 客户360统一画像模型，每个客户一行，承载购买聚合、反馈聚合与情感标签
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/customer360_batch_design.md
 * @stateFlow 汇总引擎产出 -> 情感富化 -> 覆盖写入customer360_golden
 * @rules 严格完整性：任一联结侧缺失的客户不进入最终画像
 * @dependencies gorm.io/gorm
 * @refs service/consolidation
 */

package models

import "time"

// 情感标签常量
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
	SentimentUnknown  = "Unknown"
)

// CustomerProfile 客户360统一画像
type CustomerProfile struct {
	CustomerID       string     `json:"customer_id" gorm:"primaryKey;column:customer_id;type:varchar(36)"`
	Name             string     `json:"name" gorm:"size:200"`
	City             string     `json:"city" gorm:"size:200"`
	TotalSpend       float64    `json:"total_spend" gorm:"column:total_spend"`
	PurchaseCount    int64      `json:"purchase_count"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
	AvgRating        float64    `json:"avg_rating"`
	FeedbackCount    int64      `json:"feedback_count"`
	Sentiment        string     `json:"sentiment" gorm:"size:20;default:'Unknown'"` // Positive, Negative, Neutral, Unknown
	UpdatedAt        time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名，对齐下游消费方的customer360_golden
func (CustomerProfile) TableName() string {
	return "customer360_golden"
}
