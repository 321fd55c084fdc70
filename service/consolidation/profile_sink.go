/*
 * @module service/consolidation/profile_sink
 * @description 画像落库器：以整表覆盖语义将画像集合写入customer360_golden
 * @architecture 分层架构 - 数据访问层
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow 开启事务 -> 清空旧画像 -> 批量写入新画像 -> 提交
 * @rules 覆盖在单事务内完成，失败整体回滚，消费方不会读到半新半旧的画像
 * @dependencies gorm.io/gorm
 * @refs service.go, api/controllers/profile_controller.go
 */

package consolidation

import (
	"fmt"

	"customer360-service/service/models"

	"gorm.io/gorm"
)

// ProfileSink 画像落库器
type ProfileSink struct {
	db *gorm.DB
}

// NewProfileSink 创建画像落库器
func NewProfileSink(db *gorm.DB) *ProfileSink {
	return &ProfileSink{db: db}
}

// Overwrite 整表覆盖写入画像集合
func (s *ProfileSink) Overwrite(profiles []models.CustomerProfile) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.CustomerProfile{}).Error; err != nil {
			return fmt.Errorf("清空旧画像失败: %w", err)
		}
		if len(profiles) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(profiles, 200).Error; err != nil {
			return fmt.Errorf("写入新画像失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("覆盖画像表失败: %w", err)
	}
	return nil
}

// Get 按客户ID查询画像
func (s *ProfileSink) Get(customerID string) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	if err := s.db.Where("customer_id = ?", customerID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("查询画像失败: %w", err)
	}
	return &profile, nil
}

// List 分页列举画像，按CustomerID升序
func (s *ProfileSink) List(limit, offset int) ([]models.CustomerProfile, int64, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var total int64
	if err := s.db.Model(&models.CustomerProfile{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计画像失败: %w", err)
	}
	var profiles []models.CustomerProfile
	err := s.db.Order("customer_id ASC").Limit(limit).Offset(offset).Find(&profiles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询画像失败: %w", err)
	}
	return profiles, total, nil
}
