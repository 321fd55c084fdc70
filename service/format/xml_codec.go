/*
 * @module service/format/xml_codec
 * @description 客户档案XML编解码器：解码Customers文档为客户记录序列，并将记录集重编码为同构XML
 * @architecture 策略模式 - XML格式实现
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 字节流 -> XML解析 -> 客户记录序列
 * @rules 结构损坏的XML文档整体失败，不产出部分记录
 * @dependencies encoding/xml
 * @refs codec.go, service/models/record.go
 */

package format

import (
	"encoding/xml"
	"fmt"

	"customer360-service/service/models"
)

// DecodeCustomers 解码客户档案XML文档
// 文档级解析失败返回ErrMalformedFile，调用方据此中止整个文件
func DecodeCustomers(content []byte) ([]models.CustomerRecord, error) {
	var doc models.CustomerDocument
	if err := xml.Unmarshal(NormalizeUTF8(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return doc.Customers, nil
}

// EncodeCustomers 将客户记录集重编码为Customers文档
func EncodeCustomers(records []models.CustomerRecord) ([]byte, error) {
	doc := models.CustomerDocument{Customers: records}
	content, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("编码客户档案XML失败: %w", err)
	}
	return append([]byte(xml.Header), content...), nil
}
