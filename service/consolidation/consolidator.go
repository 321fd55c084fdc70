/*
 * @module service/consolidation/consolidator
 * @description 整合器：读取通过区三类数据集，去重、关联、聚合为客户360画像
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow 读取validated/前缀 -> 按业务键去重 -> 以客户主档内连接 -> 聚合 -> 完整画像集合
 * @rules 去重保留首次出现的记录；购买与反馈先按客户主档过滤；
 *        最终画像要求购买与反馈两侧聚合齐备，任一侧缺失的客户整行剔除
 * @dependencies service/format, service/objectstore, github.com/spf13/cast
 * @refs sentiment.go, profile_sink.go
 */

package consolidation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"customer360-service/service/format"
	"customer360-service/service/models"
	"customer360-service/service/objectstore"

	"github.com/spf13/cast"
)

// Consolidator 客户360整合器
type Consolidator struct {
	store objectstore.ObjectStore
}

// NewConsolidator 创建整合器
func NewConsolidator(store objectstore.ObjectStore) *Consolidator {
	return &Consolidator{store: store}
}

// purchaseAggregate 单客户购买侧聚合
type purchaseAggregate struct {
	totalSpend    float64
	purchaseCount int64
	lastPurchase  time.Time
	hasDate       bool
}

// feedbackAggregate 单客户反馈侧聚合
type feedbackAggregate struct {
	ratingSum     int64
	feedbackCount int64
	texts         []string
}

// ConsolidationInput 整合输入数据集
type ConsolidationInput struct {
	Customers []models.CustomerRecord
	Purchases []models.PurchaseRecord
	Feedback  []models.FeedbackRecord
}

// Load 从通过区前缀读取三类数据集
func (c *Consolidator) Load(ctx context.Context, params LoadParams) (*ConsolidationInput, error) {
	input := &ConsolidationInput{}

	customerKeys, err := c.store.List(ctx, params.CustomersPrefix)
	if err != nil {
		return nil, fmt.Errorf("列举客户主档前缀失败: %w", err)
	}
	for _, key := range customerKeys {
		data, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("读取对象%s失败: %w", key, err)
		}
		records, err := format.DecodeCustomers(data)
		if err != nil {
			return nil, fmt.Errorf("解析对象%s失败: %w", key, err)
		}
		input.Customers = append(input.Customers, records...)
	}

	purchaseKeys, err := c.store.List(ctx, params.PurchasesPrefix)
	if err != nil {
		return nil, fmt.Errorf("列举购买流水前缀失败: %w", err)
	}
	for _, key := range purchaseKeys {
		data, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("读取对象%s失败: %w", key, err)
		}
		records, err := format.DecodePurchases(data)
		if err != nil {
			return nil, fmt.Errorf("解析对象%s失败: %w", key, err)
		}
		input.Purchases = append(input.Purchases, records...)
	}

	feedbackKeys, err := c.store.List(ctx, params.FeedbackPrefix)
	if err != nil {
		return nil, fmt.Errorf("列举客户反馈前缀失败: %w", err)
	}
	for _, key := range feedbackKeys {
		data, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("读取对象%s失败: %w", key, err)
		}
		records, err := format.DecodeFeedback(data)
		if err != nil {
			return nil, fmt.Errorf("解析对象%s失败: %w", key, err)
		}
		input.Feedback = append(input.Feedback, records...)
	}

	return input, nil
}

// LoadParams 整合读取参数
type LoadParams struct {
	CustomersPrefix string
	PurchasesPrefix string
	FeedbackPrefix  string
}

// Consolidate 将三类数据集整合为客户画像集合
// 返回的画像按CustomerID升序排列，Sentiment统一为Unknown，由情感分类阶段补齐
func (c *Consolidator) Consolidate(input *ConsolidationInput) ([]models.CustomerProfile, map[string][]string) {
	customers := dedupCustomers(input.Customers)
	purchases := dedupPurchases(input.Purchases)
	feedback := dedupFeedback(input.Feedback)

	// 以客户主档为准的内连接过滤
	validIDs := make(map[string]models.CustomerRecord, len(customers))
	for _, cu := range customers {
		validIDs[cu.CustomerID] = cu
	}

	purchaseAggs := make(map[string]*purchaseAggregate)
	for _, p := range purchases {
		if _, ok := validIDs[p.CustomerID]; !ok {
			continue
		}
		agg, ok := purchaseAggs[p.CustomerID]
		if !ok {
			agg = &purchaseAggregate{}
			purchaseAggs[p.CustomerID] = agg
		}
		agg.totalSpend += cast.ToFloat64(p.Amount)
		agg.purchaseCount++
		if d, err := time.Parse("2006-01-02", p.Date); err == nil {
			if !agg.hasDate || d.After(agg.lastPurchase) {
				agg.lastPurchase = d
				agg.hasDate = true
			}
		}
	}

	feedbackAggs := make(map[string]*feedbackAggregate)
	for _, f := range feedback {
		if _, ok := validIDs[f.CustomerID]; !ok {
			continue
		}
		agg, ok := feedbackAggs[f.CustomerID]
		if !ok {
			agg = &feedbackAggregate{}
			feedbackAggs[f.CustomerID] = agg
		}
		agg.ratingSum += int64(cast.ToInt(strings.TrimSpace(f.Rating)))
		agg.feedbackCount++
		agg.texts = append(agg.texts, f.Feedback)
	}

	// 两侧聚合齐备的客户才进入画像
	profiles := make([]models.CustomerProfile, 0, len(customers))
	feedbackTexts := make(map[string][]string)
	now := time.Now()
	for _, cu := range customers {
		pa, hasPurchase := purchaseAggs[cu.CustomerID]
		fa, hasFeedback := feedbackAggs[cu.CustomerID]
		if !hasPurchase || !hasFeedback {
			continue
		}
		profile := models.CustomerProfile{
			CustomerID:    cu.CustomerID,
			Name:          cu.Name,
			City:          cu.City,
			TotalSpend:    pa.totalSpend,
			PurchaseCount: pa.purchaseCount,
			AvgRating:     float64(fa.ratingSum) / float64(fa.feedbackCount),
			FeedbackCount: fa.feedbackCount,
			Sentiment:     models.SentimentUnknown,
			UpdatedAt:     now,
		}
		if pa.hasDate {
			d := pa.lastPurchase
			profile.LastPurchaseDate = &d
		}
		profiles = append(profiles, profile)
		feedbackTexts[cu.CustomerID] = fa.texts
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CustomerID < profiles[j].CustomerID
	})
	return profiles, feedbackTexts
}

// dedupCustomers 按CustomerID去重，保留首次出现
func dedupCustomers(records []models.CustomerRecord) []models.CustomerRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.CustomerRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.CustomerID]; ok {
			continue
		}
		seen[r.CustomerID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// dedupPurchases 按(CustomerID, Product, Date)去重
func dedupPurchases(records []models.PurchaseRecord) []models.PurchaseRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.PurchaseRecord, 0, len(records))
	for _, r := range records {
		key := r.CustomerID + "\x00" + r.Product + "\x00" + r.Date
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// dedupFeedback 按(CustomerID, Feedback)去重
func dedupFeedback(records []models.FeedbackRecord) []models.FeedbackRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.FeedbackRecord, 0, len(records))
	for _, r := range records {
		key := r.CustomerID + "\x00" + r.Feedback
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
