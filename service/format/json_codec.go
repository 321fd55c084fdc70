/*
 * @module service/format/json_codec
 * @description 购买流水JSON编解码器：宽松解码顶层数组，字段级类型收敛交由校验层完成
 * @architecture 策略模式 - JSON格式实现
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 字节流 -> 顶层数组解析 -> 字段提取 -> 购买记录序列
 * @rules 顶层数组损坏整体失败；单条记录的字段缺失或类型异常不在此处拒绝
 * @dependencies encoding/json, github.com/spf13/cast
 * @refs codec.go, service/models/record.go
 */

package format

import (
	"encoding/json"
	"fmt"

	"customer360-service/service/models"

	"github.com/spf13/cast"
)

// DecodePurchases 解码购买流水JSON数组
// 单条记录内的字段问题不在此处失败，保留原值交给校验层逐条裁决
func DecodePurchases(content []byte) ([]models.PurchaseRecord, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(NormalizeUTF8(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	records := make([]models.PurchaseRecord, 0, len(raw))
	for _, item := range raw {
		records = append(records, models.PurchaseRecord{
			CustomerID: cast.ToString(item["CustomerID"]),
			Product:    cast.ToString(item["Product"]),
			Amount:     item["Amount"],
			Date:       cast.ToString(item["Date"]),
		})
	}
	return records, nil
}

// EncodePurchases 将购买记录集重编码为JSON数组
func EncodePurchases(records []models.PurchaseRecord) ([]byte, error) {
	content, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("编码购买流水JSON失败: %w", err)
	}
	return content, nil
}
