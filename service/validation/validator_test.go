/*
 * @module service/validation/validator_test
 * @description 记录校验器单元测试
 * @architecture 测试层
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 构造记录 -> 规则求值 -> 结论验证
 * @rules 覆盖三类记录的全部内置规则与分流顺序保持
 * @dependencies testing, stretchr/testify
 */

package validation

import (
	"os"
	"path/filepath"
	"testing"

	"customer360-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateCustomer 测试客户档案校验规则
func TestValidateCustomer(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		record   models.CustomerRecord
		accepted bool
	}{
		{"合法记录", models.CustomerRecord{CustomerID: "101", Name: "张三", City: "上海"}, true},
		{"CustomerID缺失", models.CustomerRecord{Name: "张三", City: "上海"}, false},
		{"CustomerID非数字", models.CustomerRecord{CustomerID: "abc", Name: "张三", City: "上海"}, false},
		{"CustomerID带符号", models.CustomerRecord{CustomerID: "-101", Name: "张三", City: "上海"}, false},
		{"Name为空白", models.CustomerRecord{CustomerID: "101", Name: "   ", City: "上海"}, false},
		{"City缺失", models.CustomerRecord{CustomerID: "101", Name: "张三"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := v.ValidateCustomer(tt.record)
			assert.Equal(t, tt.accepted, outcome.Accepted)
			if !tt.accepted {
				assert.NotEmpty(t, outcome.Reason)
			}
		})
	}
}

// TestValidatePurchase 测试购买流水校验规则
func TestValidatePurchase(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		record   models.PurchaseRecord
		accepted bool
	}{
		{"合法记录", models.PurchaseRecord{CustomerID: "101", Product: "Laptop", Amount: 1200.5, Date: "2024-01-15"}, true},
		{"字符串金额", models.PurchaseRecord{CustomerID: "101", Product: "Mouse", Amount: "25.9", Date: "2024-01-16"}, true},
		{"金额为零", models.PurchaseRecord{CustomerID: "101", Product: "Mouse", Amount: 0, Date: "2024-01-16"}, false},
		{"金额为负", models.PurchaseRecord{CustomerID: "101", Product: "Mouse", Amount: -5, Date: "2024-01-16"}, false},
		{"金额不可解析", models.PurchaseRecord{CustomerID: "101", Product: "Mouse", Amount: "abc", Date: "2024-01-16"}, false},
		{"Product缺失", models.PurchaseRecord{CustomerID: "101", Amount: 10, Date: "2024-01-16"}, false},
		{"日期格式错误", models.PurchaseRecord{CustomerID: "101", Product: "Mouse", Amount: 10, Date: "16/01/2024"}, false},
		{"日期不存在", models.PurchaseRecord{CustomerID: "101", Product: "Mouse", Amount: 10, Date: "2024-02-30"}, false},
		{"CustomerID非数字", models.PurchaseRecord{CustomerID: "x1", Product: "Mouse", Amount: 10, Date: "2024-01-16"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := v.ValidatePurchase(tt.record)
			assert.Equal(t, tt.accepted, outcome.Accepted)
		})
	}
}

// TestValidateFeedback 测试客户反馈校验规则
func TestValidateFeedback(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		record   models.FeedbackRecord
		accepted bool
	}{
		{"合法记录", models.FeedbackRecord{CustomerID: "101", Rating: "5", Feedback: "很好用"}, true},
		{"评分下界", models.FeedbackRecord{CustomerID: "101", Rating: "1", Feedback: "不满意"}, true},
		{"评分越界", models.FeedbackRecord{CustomerID: "101", Rating: "6", Feedback: "好"}, false},
		{"评分为零", models.FeedbackRecord{CustomerID: "101", Rating: "0", Feedback: "好"}, false},
		{"评分非整数", models.FeedbackRecord{CustomerID: "101", Rating: "4.5", Feedback: "好"}, false},
		{"反馈为空白", models.FeedbackRecord{CustomerID: "101", Rating: "5", Feedback: "  "}, false},
		{"空占位记录", models.FeedbackRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := v.ValidateFeedback(tt.record)
			assert.Equal(t, tt.accepted, outcome.Accepted)
		})
	}
}

// TestPartitionPreservesOrder 测试分流两侧都保持原始顺序
func TestPartitionPreservesOrder(t *testing.T) {
	v := NewValidator()

	records := []models.CustomerRecord{
		{CustomerID: "1", Name: "A", City: "上海"},
		{CustomerID: "bad", Name: "B", City: "北京"},
		{CustomerID: "3", Name: "C", City: "广州"},
		{CustomerID: "4", Name: "", City: "深圳"},
		{CustomerID: "5", Name: "E", City: "成都"},
	}

	accepted, rejected := v.PartitionCustomers(records)
	require.Len(t, accepted, 3)
	require.Len(t, rejected, 2)
	assert.Equal(t, []string{"1", "3", "5"}, []string{accepted[0].CustomerID, accepted[1].CustomerID, accepted[2].CustomerID})
	assert.Equal(t, "bad", rejected[0].CustomerID)
	assert.Equal(t, "4", rejected[1].CustomerID)
}

// TestScriptRule 测试脚本规则在内置规则之后生效
func TestScriptRule(t *testing.T) {
	v := NewValidator()
	v.SetScriptRule(models.KindCustomer, `
func Validate(record map[string]interface{}) (bool, string) {
	city, _ := record["City"].(string)
	if city == "禁用城市" {
		return false, "城市在黑名单中"
	}
	return true, ""
}
`)

	ok := v.ValidateCustomer(models.CustomerRecord{CustomerID: "1", Name: "A", City: "上海"})
	assert.True(t, ok.Accepted)

	blocked := v.ValidateCustomer(models.CustomerRecord{CustomerID: "2", Name: "B", City: "禁用城市"})
	assert.False(t, blocked.Accepted)
	assert.Equal(t, "城市在黑名单中", blocked.Reason)
}

// TestLoadScriptRulesFromEnv 测试从环境变量装载脚本规则文件
func TestLoadScriptRulesFromEnv(t *testing.T) {
	script := filepath.Join(t.TempDir(), "customer_rule.go")
	require.NoError(t, os.WriteFile(script, []byte(`func Validate(record map[string]interface{}) (bool, string) {
	if record["City"].(string) == "北京" {
		return false, "城市暂停接入"
	}
	return true, ""
}
`), 0o644))
	t.Setenv("VALIDATION_SCRIPT_CUSTOMER", script)

	v := NewValidator()
	require.NoError(t, v.LoadScriptRulesFromEnv())

	blocked := v.ValidateCustomer(models.CustomerRecord{CustomerID: "1", Name: "张三", City: "北京"})
	assert.False(t, blocked.Accepted)
	assert.Equal(t, "城市暂停接入", blocked.Reason)

	ok := v.ValidateCustomer(models.CustomerRecord{CustomerID: "2", Name: "李四", City: "上海"})
	assert.True(t, ok.Accepted)
}

// TestLoadScriptRulesFromEnvMissingFile 测试脚本文件不存在时返回错误
func TestLoadScriptRulesFromEnvMissingFile(t *testing.T) {
	t.Setenv("VALIDATION_SCRIPT_PURCHASE", filepath.Join(t.TempDir(), "absent.go"))

	v := NewValidator()
	err := v.LoadScriptRulesFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "读取校验脚本")
}

// TestScriptRuleCompileError 测试脚本编译失败只拒收当前记录
func TestScriptRuleCompileError(t *testing.T) {
	v := NewValidator()
	v.SetScriptRule(models.KindCustomer, `this is not go`)

	outcome := v.ValidateCustomer(models.CustomerRecord{CustomerID: "1", Name: "A", City: "上海"})
	assert.False(t, outcome.Accepted)
	assert.Contains(t, outcome.Reason, "脚本规则执行失败")
}
