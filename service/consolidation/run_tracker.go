/*
 * @module service/consolidation/run_tracker
 * @description 作业运行追踪器：在run_records表登记整合作业的生命周期状态
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow RUNNING登记 -> 作业执行 -> SUCCESS/FAILED收尾
 * @rules 状态迁移单向，终态记录不再更新；收尾时补记录数、质量得分与错误信息
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service.go, service/models/run_record.go
 */

package consolidation

import (
	"fmt"
	"time"

	"customer360-service/service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunTracker 作业运行追踪器
type RunTracker struct {
	db *gorm.DB
}

// NewRunTracker 创建作业运行追踪器
func NewRunTracker(db *gorm.DB) *RunTracker {
	return &RunTracker{db: db}
}

// Start 登记一次新的作业运行，状态为RUNNING
func (t *RunTracker) Start(dqScore float64, errorCount int64) (*models.RunRecord, error) {
	record := &models.RunRecord{
		JobID:      uuid.New().String(),
		StartTime:  time.Now(),
		Status:     models.RunStatusRunning,
		DQScore:    dqScore,
		ErrorCount: errorCount,
	}
	if err := t.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("登记作业运行记录失败: %w", err)
	}
	return record, nil
}

// Succeed 将作业标记为SUCCESS并补写产出记录数
func (t *RunTracker) Succeed(jobID string, recordCount int64) error {
	now := time.Now()
	err := t.db.Model(&models.RunRecord{}).
		Where("job_id = ? AND status = ?", jobID, models.RunStatusRunning).
		Updates(map[string]interface{}{
			"status":       models.RunStatusSuccess,
			"end_time":     now,
			"record_count": recordCount,
			"updated_at":   now,
		}).Error
	if err != nil {
		return fmt.Errorf("更新作业运行记录失败: %w", err)
	}
	return nil
}

// Fail 将作业标记为FAILED并记录失败原因
func (t *RunTracker) Fail(jobID string, cause error) error {
	now := time.Now()
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	err := t.db.Model(&models.RunRecord{}).
		Where("job_id = ? AND status = ?", jobID, models.RunStatusRunning).
		Updates(map[string]interface{}{
			"status":        models.RunStatusFailed,
			"end_time":      now,
			"error_message": message,
			"updated_at":    now,
		}).Error
	if err != nil {
		return fmt.Errorf("更新作业运行记录失败: %w", err)
	}
	return nil
}

// Get 按作业ID查询运行记录
func (t *RunTracker) Get(jobID string) (*models.RunRecord, error) {
	var record models.RunRecord
	if err := t.db.Where("job_id = ?", jobID).First(&record).Error; err != nil {
		return nil, fmt.Errorf("查询作业运行记录失败: %w", err)
	}
	return &record, nil
}

// List 按开始时间倒序分页列举运行记录
func (t *RunTracker) List(limit, offset int) ([]models.RunRecord, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var total int64
	if err := t.db.Model(&models.RunRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计作业运行记录失败: %w", err)
	}
	var records []models.RunRecord
	err := t.db.Order("start_time DESC").Limit(limit).Offset(offset).Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询作业运行记录失败: %w", err)
	}
	return records, total, nil
}
