/*
 * @module service/models/sse
 * @description SSE推送相关模型：事件记录与客户端连接登记
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/customer360_event_push.md
 * @stateFlow 作业状态变更 -> 事件落库 -> 推送到活跃连接
 * @rules 事件与连接均落库留痕，连接断开时标记为不活跃
 * @dependencies gorm.io/gorm
 * @refs service/event
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SSEEvent SSE推送事件
type SSEEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserName  string    `json:"user_name" gorm:"size:100;index" example:"admin"`
	EventType string    `json:"event_type" gorm:"size:50" example:"run_status_changed"`
	Payload   string    `json:"payload" gorm:"type:text"`
	Sent      bool      `json:"sent" gorm:"default:false"`
	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (SSEEvent) TableName() string {
	return "sse_events"
}

// BeforeCreate 创建前生成UUID
func (e *SSEEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// SSEConnection SSE客户端连接登记
type SSEConnection struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserName     string    `json:"user_name" gorm:"size:100;index" example:"admin"`
	ConnectionID string    `json:"connection_id" gorm:"size:36;index" example:"550e8400-e29b-41d4-a716-446655440000"`
	ClientIP     string    `json:"client_ip" gorm:"size:45" example:"10.0.0.1"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastPingAt   time.Time `json:"last_ping_at"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
}

// TableName 指定表名
func (SSEConnection) TableName() string {
	return "sse_connections"
}
