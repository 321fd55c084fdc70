/*
 * @module service/format/csv_codec
 * @description 客户反馈CSV编解码器：按表头取列，行级结构问题降级为空记录由校验层拒收
 * @architecture 策略模式 - CSV格式实现
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 字节流 -> 表头解析 -> 逐行取列 -> 反馈记录序列
 * @rules 表头不可读视为文件级损坏；数据行的解析错误只影响该行
 * @dependencies encoding/csv
 * @refs codec.go, service/models/record.go
 */

package format

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"customer360-service/service/models"
)

// DecodeFeedback 解码客户反馈CSV
// 数据行读取失败时产出一条空记录占位，保证行级问题被逐条拒收而不是中断文件
func DecodeFeedback(content []byte) ([]models.FeedbackRecord, error) {
	reader := csv.NewReader(bytes.NewReader(NormalizeUTF8(content)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var records []models.FeedbackRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 行级结构损坏：占位空记录，由校验层给出拒收原因
			records = append(records, models.FeedbackRecord{})
			continue
		}
		records = append(records, models.FeedbackRecord{
			CustomerID: field(row, "CustomerID"),
			Rating:     field(row, "Rating"),
			Feedback:   field(row, "Feedback"),
		})
	}
	return records, nil
}

// EncodeFeedback 将反馈记录集重编码为CSV，表头与源格式保持一致
func EncodeFeedback(records []models.FeedbackRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"CustomerID", "Rating", "Feedback"}); err != nil {
		return nil, fmt.Errorf("编码反馈CSV表头失败: %w", err)
	}
	for _, record := range records {
		if err := writer.Write([]string{record.CustomerID, record.Rating, record.Feedback}); err != nil {
			return nil, fmt.Errorf("编码反馈CSV失败: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("编码反馈CSV失败: %w", err)
	}
	return buf.Bytes(), nil
}
