/*
 * @module service/format/codec_test
 * @description 格式编解码器单元测试
 * @architecture 测试层
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 构造原始字节 -> 解码 -> 记录验证
 * @rules 覆盖文件级损坏与行级降级两种失败模式
 * @dependencies testing, stretchr/testify
 */

package format

import (
	"testing"

	"customer360-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// TestForKey 测试按键后缀识别格式
func TestForKey(t *testing.T) {
	f, err := ForKey("raw/customers/2024-01.xml")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, f)

	f, err = ForKey("raw/purchases/2024-01.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ForKey("raw/feedback/2024-01.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ForKey("raw/feedback/2024-01.parquet")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// TestDecodeCustomers 测试客户档案XML解码
func TestDecodeCustomers(t *testing.T) {
	content := []byte(`<?xml version="1.0"?>
<Customers>
  <Customer><CustomerID>101</CustomerID><Name>张三</Name><City>上海</City></Customer>
  <Customer><CustomerID>102</CustomerID><Name>李四</Name><City>北京</City></Customer>
</Customers>`)

	records, err := DecodeCustomers(content)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "101", records[0].CustomerID)
	assert.Equal(t, "张三", records[0].Name)
	assert.Equal(t, "北京", records[1].City)
}

// TestDecodeCustomersMalformed 测试文档级损坏的XML整体失败
func TestDecodeCustomersMalformed(t *testing.T) {
	_, err := DecodeCustomers([]byte(`<Customers><Customer><CustomerID>101`))
	assert.ErrorIs(t, err, ErrMalformedFile)
}

// TestEncodeCustomersRoundTrip 测试客户档案重编码可再次解码
func TestEncodeCustomersRoundTrip(t *testing.T) {
	records := []models.CustomerRecord{
		{CustomerID: "101", Name: "张三", City: "上海"},
	}
	content, err := EncodeCustomers(records)
	require.NoError(t, err)

	decoded, err := DecodeCustomers(content)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "101", decoded[0].CustomerID)
}

// TestDecodePurchases 测试购买流水JSON解码
func TestDecodePurchases(t *testing.T) {
	content := []byte(`[
		{"CustomerID": "101", "Product": "Laptop", "Amount": 1200.5, "Date": "2024-01-15"},
		{"CustomerID": 102, "Product": "Mouse", "Amount": "25.9", "Date": "2024-01-16"},
		{"Product": "Keyboard"}
	]`)

	records, err := DecodePurchases(content)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "101", records[0].CustomerID)
	assert.Equal(t, "Laptop", records[0].Product)
	// 数字型CustomerID被转为字符串
	assert.Equal(t, "102", records[1].CustomerID)
	// Amount保留原值交给校验层收敛
	assert.Equal(t, "25.9", records[1].Amount)
	// 字段缺失不在解码层失败
	assert.Equal(t, "", records[2].CustomerID)
}

// TestDecodePurchasesMalformed 测试顶层数组损坏整体失败
func TestDecodePurchasesMalformed(t *testing.T) {
	_, err := DecodePurchases([]byte(`{"not": "an array"}`))
	assert.ErrorIs(t, err, ErrMalformedFile)

	_, err = DecodePurchases([]byte(`[{"CustomerID": `))
	assert.ErrorIs(t, err, ErrMalformedFile)
}

// TestDecodeFeedback 测试客户反馈CSV解码
func TestDecodeFeedback(t *testing.T) {
	content := []byte("CustomerID,Rating,Feedback\n101,5,很好用\n102,3,一般般\n")

	records, err := DecodeFeedback(content)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "101", records[0].CustomerID)
	assert.Equal(t, "5", records[0].Rating)
	assert.Equal(t, "很好用", records[0].Feedback)
}

// TestDecodeFeedbackShortRow 测试列数不齐的行按缺失字段处理
func TestDecodeFeedbackShortRow(t *testing.T) {
	content := []byte("CustomerID,Rating,Feedback\n101,5\n102,4,不错\n")

	records, err := DecodeFeedback(content)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// 短行的缺失列取空值，由校验层拒收
	assert.Equal(t, "101", records[0].CustomerID)
	assert.Equal(t, "", records[0].Feedback)
	assert.Equal(t, "102", records[1].CustomerID)
}

// TestDecodeFeedbackEmptyFile 测试表头不可读视为文件级损坏
func TestDecodeFeedbackEmptyFile(t *testing.T) {
	_, err := DecodeFeedback([]byte(""))
	assert.ErrorIs(t, err, ErrMalformedFile)
}

// TestEncodeFeedbackRoundTrip 测试反馈重编码保持表头
func TestEncodeFeedbackRoundTrip(t *testing.T) {
	records := []models.FeedbackRecord{
		{CustomerID: "101", Rating: "5", Feedback: "很好用"},
	}
	content, err := EncodeFeedback(records)
	require.NoError(t, err)

	decoded, err := DecodeFeedback(content)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "很好用", decoded[0].Feedback)
}

// TestNormalizeUTF8 测试GBK内容归一化为UTF-8
func TestNormalizeUTF8(t *testing.T) {
	original := "CustomerID,Rating,Feedback\n101,5,质量很好\n"
	gbk, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(original))
	require.NoError(t, err)

	normalized := NormalizeUTF8(gbk)
	assert.Equal(t, original, string(normalized))

	// 合法UTF-8原样返回
	assert.Equal(t, []byte(original), NormalizeUTF8([]byte(original)))
}
