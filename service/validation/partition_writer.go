/*
 * @module service/validation/partition_writer
 * @description 分区落盘器：将通过/拒收记录集按键名映射写回对象存储
 * @architecture 分层架构 - 数据校验层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 分流结果 -> raw/前缀映射为validated/与error/ -> 编码 -> 覆盖写入
 * @rules 空记录集不产生对象；同键重复写入为幂等覆盖
 * @dependencies service/format, service/objectstore
 * @refs ingest_service.go
 */

package validation

import (
	"context"
	"fmt"
	"strings"

	"customer360-service/service/format"
	"customer360-service/service/models"
	"customer360-service/service/objectstore"
)

const (
	// RawPrefix 原始上传区前缀
	RawPrefix = "raw/"
	// ValidatedPrefix 通过区前缀
	ValidatedPrefix = "validated/"
	// ErrorPrefix 拒收区前缀
	ErrorPrefix = "error/"
)

// PartitionWriter 分区落盘器
type PartitionWriter struct {
	store objectstore.ObjectStore
}

// NewPartitionWriter 创建分区落盘器
func NewPartitionWriter(store objectstore.ObjectStore) *PartitionWriter {
	return &PartitionWriter{store: store}
}

// ValidatedKey 将raw/键映射到validated/区
func ValidatedKey(rawKey string) string {
	return ValidatedPrefix + strings.TrimPrefix(rawKey, RawPrefix)
}

// ErrorKey 将raw/键映射到error/区
func ErrorKey(rawKey string) string {
	return ErrorPrefix + strings.TrimPrefix(rawKey, RawPrefix)
}

// WriteCustomers 写出客户档案分流结果
func (w *PartitionWriter) WriteCustomers(ctx context.Context, rawKey string, accepted, rejected []models.CustomerRecord) error {
	if len(accepted) > 0 {
		data, err := format.EncodeCustomers(accepted)
		if err != nil {
			return fmt.Errorf("编码通过区客户记录失败: %w", err)
		}
		if err := w.store.Put(ctx, ValidatedKey(rawKey), data); err != nil {
			return fmt.Errorf("写入通过区对象失败: %w", err)
		}
	}
	if len(rejected) > 0 {
		data, err := format.EncodeCustomers(rejected)
		if err != nil {
			return fmt.Errorf("编码拒收区客户记录失败: %w", err)
		}
		if err := w.store.Put(ctx, ErrorKey(rawKey), data); err != nil {
			return fmt.Errorf("写入拒收区对象失败: %w", err)
		}
	}
	return nil
}

// WritePurchases 写出购买流水分流结果
func (w *PartitionWriter) WritePurchases(ctx context.Context, rawKey string, accepted, rejected []models.PurchaseRecord) error {
	if len(accepted) > 0 {
		data, err := format.EncodePurchases(accepted)
		if err != nil {
			return fmt.Errorf("编码通过区购买记录失败: %w", err)
		}
		if err := w.store.Put(ctx, ValidatedKey(rawKey), data); err != nil {
			return fmt.Errorf("写入通过区对象失败: %w", err)
		}
	}
	if len(rejected) > 0 {
		data, err := format.EncodePurchases(rejected)
		if err != nil {
			return fmt.Errorf("编码拒收区购买记录失败: %w", err)
		}
		if err := w.store.Put(ctx, ErrorKey(rawKey), data); err != nil {
			return fmt.Errorf("写入拒收区对象失败: %w", err)
		}
	}
	return nil
}

// WriteFeedback 写出客户反馈分流结果
func (w *PartitionWriter) WriteFeedback(ctx context.Context, rawKey string, accepted, rejected []models.FeedbackRecord) error {
	if len(accepted) > 0 {
		data, err := format.EncodeFeedback(accepted)
		if err != nil {
			return fmt.Errorf("编码通过区反馈记录失败: %w", err)
		}
		if err := w.store.Put(ctx, ValidatedKey(rawKey), data); err != nil {
			return fmt.Errorf("写入通过区对象失败: %w", err)
		}
	}
	if len(rejected) > 0 {
		data, err := format.EncodeFeedback(rejected)
		if err != nil {
			return fmt.Errorf("编码拒收区反馈记录失败: %w", err)
		}
		if err := w.store.Put(ctx, ErrorKey(rawKey), data); err != nil {
			return fmt.Errorf("写入拒收区对象失败: %w", err)
		}
	}
	return nil
}
