/*
 * @module service/format/codec
 * @description 格式编解码入口：按对象键后缀识别XML/JSON/CSV格式，并提供统一的字符集归一化
 * @architecture 策略模式 - 每种源格式一个编解码器
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 对象键 -> 格式识别 -> 字符集归一化 -> 解码
 * @rules XML文档级损坏使整个文件失败；JSON/CSV的字段级问题降级为单条记录拒收
 * @dependencies golang.org/x/text
 * @refs xml_codec.go, json_codec.go, csv_codec.go
 */

package format

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Format 源文件格式
type Format string

const (
	FormatXML  Format = "xml"  // 客户档案
	FormatJSON Format = "json" // 购买流水
	FormatCSV  Format = "csv"  // 客户反馈
)

// ErrMalformedFile 文件级损坏，整个文件处理失败
var ErrMalformedFile = errors.New("文件格式损坏")

// ErrUnsupportedFormat 不支持的文件格式
var ErrUnsupportedFormat = errors.New("不支持的文件格式")

// ForKey 按对象键后缀识别格式
func ForKey(key string) (Format, error) {
	switch {
	case strings.HasSuffix(key, ".xml"):
		return FormatXML, nil
	case strings.HasSuffix(key, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(key, ".csv"):
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, key)
	}
}

// NormalizeUTF8 字符集归一化
// 历史系统导出的CSV可能是GBK编码，非法UTF-8内容先尝试按GBK转码，转码失败时原样返回
func NormalizeUTF8(content []byte) []byte {
	if utf8.Valid(content) {
		return content
	}

	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), content)
	if err != nil {
		return content
	}
	return decoded
}
