/*
 * @module service/models/run_record
 * @description 汇总批次运行记录模型，追踪一次客户360汇总任务的生命周期
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/customer360_batch_design.md
 * @stateFlow 任务创建(RUNNING) -> 终态更新(SUCCESS/FAILED)，无中间状态
 * @rules 记录只在启动时创建一次、结束时更新一次；核心流程永不删除运行记录
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/consolidation/run_tracker.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 运行状态常量
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// RunRecord 汇总批次运行记录
type RunRecord struct {
	JobID        string     `json:"job_id" gorm:"primaryKey;column:job_id;type:varchar(100)" example:"Customer-360_20240101120000"`
	StartTime    time.Time  `json:"start_time" gorm:"not null"`
	Status       string     `json:"status" gorm:"not null;size:20;index" example:"RUNNING"` // RUNNING, SUCCESS, FAILED
	EndTime      *time.Time `json:"end_time,omitempty"`
	RecordCount  *int64     `json:"record_count,omitempty"`
	DQScore      float64    `json:"dq_score" gorm:"column:dq_score"`
	ErrorCount   int64      `json:"error_count" gorm:"default:0"`
	ErrorMessage string     `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (RunRecord) TableName() string {
	return "run_records"
}

// BeforeCreate GORM钩子，创建前补全JobID
func (r *RunRecord) BeforeCreate(tx *gorm.DB) error {
	if r.JobID == "" {
		r.JobID = "Customer-360_" + uuid.New().String()
	}
	if r.Status == "" {
		r.Status = RunStatusRunning
	}
	return nil
}

// IsTerminal 判断是否已到终态
func (r *RunRecord) IsTerminal() bool {
	return r.Status == RunStatusSuccess || r.Status == RunStatusFailed
}

// Duration 获取运行耗时
func (r *RunRecord) Duration() *time.Duration {
	if r.EndTime == nil {
		return nil
	}
	d := r.EndTime.Sub(r.StartTime)
	return &d
}
