/*
 * @module service/models/record
 * @description 客户360原始记录模型，定义客户档案、购买流水、反馈三类记录的强类型结构
 * @architecture DDD领域驱动设计 - 值对象
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 原始字节 -> 格式解析 -> 类型化记录 -> 校验分流
 * @rules 记录字段访问必须编译期可检查，禁止在校验层使用无模式的map
 * @dependencies encoding/xml, time
 * @refs service/format, service/validation
 */

package models

import (
	"encoding/xml"
	"time"
)

// RecordKind 记录种类
type RecordKind string

const (
	KindCustomer RecordKind = "customer" // 客户档案（XML）
	KindPurchase RecordKind = "purchase" // 购买流水（JSON）
	KindFeedback RecordKind = "feedback" // 客户反馈（CSV）
)

// CustomerRecord 客户档案记录
// XML源格式：<Customer><CustomerID>..</CustomerID><Name>..</Name><City>..</City></Customer>
type CustomerRecord struct {
	XMLName    xml.Name `xml:"Customer" json:"-"`
	CustomerID string   `xml:"CustomerID" json:"CustomerID"`
	Name       string   `xml:"Name" json:"Name"`
	City       string   `xml:"City" json:"City"`
}

// CustomerDocument 客户档案XML文档根节点
type CustomerDocument struct {
	XMLName   xml.Name         `xml:"Customers"`
	Customers []CustomerRecord `xml:"Customer"`
}

// PurchaseRecord 购买流水记录
// JSON源格式：数组元素，Amount允许数字或数字字符串，统一在校验层收敛
type PurchaseRecord struct {
	CustomerID string      `json:"CustomerID"`
	Product    string      `json:"Product"`
	Amount     interface{} `json:"Amount"`
	Date       string      `json:"Date"`
}

// FeedbackRecord 客户反馈记录
// CSV源格式：表头 CustomerID,Rating,Feedback
type FeedbackRecord struct {
	CustomerID string `json:"CustomerID"`
	Rating     string `json:"Rating"`
	Feedback   string `json:"Feedback"`
}

// ValidationOutcome 单条记录的校验结论
// 校验规则的任何求值异常都收敛为一条rejected结论，绝不跨记录中断
type ValidationOutcome struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// ObjectEvent 对象上传事件，对应一次原始文件落盘通知
type ObjectEvent struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// IsValid 事件结构是否完整
func (e *ObjectEvent) IsValid() bool {
	return e.Bucket != "" && e.Key != ""
}

// RunStatusEvent 消费运行状态变化时推送给SSE订阅端的事件
type RunStatusEvent struct {
	ID        string                 `json:"id"`
	UserName  string                 `json:"user_name,omitempty"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
