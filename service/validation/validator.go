/*
 * @module service/validation/validator
 * @description 记录校验器：三类记录的格式规则校验与通过/拒收分流，保持输入顺序
 * @architecture 分层架构 - 数据校验层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 类型化记录 -> 规则求值 -> 校验结论 -> 顺序保持的分流
 * @rules 单条记录的规则求值永不抛出到记录边界之外；任何求值异常都收敛为该条拒收
 * @dependencies github.com/spf13/cast, service/models
 * @refs rule_script.go, partition_writer.go
 */

package validation

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"customer360-service/service/models"

	"github.com/spf13/cast"
)

// Validator 记录校验器
// 内置规则之外可按记录种类挂载脚本规则，脚本失败只拒收当前记录
type Validator struct {
	scripts *ScriptRuleEngine
}

// NewValidator 创建记录校验器
func NewValidator() *Validator {
	return &Validator{
		scripts: NewScriptRuleEngine(),
	}
}

// SetScriptRule 为指定记录种类挂载脚本规则
func (v *Validator) SetScriptRule(kind models.RecordKind, script string) {
	v.scripts.SetRule(kind, script)
}

// scriptRuleEnvKeys 各记录种类的脚本规则环境变量，值为脚本文件路径
var scriptRuleEnvKeys = map[models.RecordKind]string{
	models.KindCustomer: "VALIDATION_SCRIPT_CUSTOMER",
	models.KindPurchase: "VALIDATION_SCRIPT_PURCHASE",
	models.KindFeedback: "VALIDATION_SCRIPT_FEEDBACK",
}

// LoadScriptRulesFromEnv 从环境变量装载各记录种类的脚本规则
// 未设置的种类跳过；文件不可读视为配置错误
func (v *Validator) LoadScriptRulesFromEnv() error {
	for kind, envKey := range scriptRuleEnvKeys {
		path := os.Getenv(envKey)
		if path == "" {
			continue
		}
		script, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取校验脚本%s失败: %w", path, err)
		}
		v.SetScriptRule(kind, string(script))
		slog.Info("已装载校验脚本规则", "kind", kind, "path", path)
	}
	return nil
}

// ValidateCustomer 校验客户档案记录
// CustomerID、Name、City均非空，且CustomerID为纯数字串
func (v *Validator) ValidateCustomer(record models.CustomerRecord) models.ValidationOutcome {
	if !isNumeric(record.CustomerID) {
		return rejected("CustomerID缺失或非数字")
	}
	if strings.TrimSpace(record.Name) == "" {
		return rejected("Name缺失")
	}
	if strings.TrimSpace(record.City) == "" {
		return rejected("City缺失")
	}
	return v.applyScript(models.KindCustomer, map[string]interface{}{
		"CustomerID": record.CustomerID,
		"Name":       record.Name,
		"City":       record.City,
	})
}

// ValidatePurchase 校验购买流水记录
// CustomerID为数字，Amount为正数，Product非空，Date符合YYYY-MM-DD
func (v *Validator) ValidatePurchase(record models.PurchaseRecord) models.ValidationOutcome {
	if !isNumeric(record.CustomerID) {
		return rejected("CustomerID缺失或非数字")
	}
	amount, err := cast.ToFloat64E(record.Amount)
	if err != nil {
		return rejected("Amount无法解析为数字")
	}
	if amount <= 0 {
		return rejected("Amount必须为正数")
	}
	if strings.TrimSpace(record.Product) == "" {
		return rejected("Product缺失")
	}
	if !isValidDate(record.Date) {
		return rejected("Date不符合YYYY-MM-DD格式")
	}
	return v.applyScript(models.KindPurchase, map[string]interface{}{
		"CustomerID": record.CustomerID,
		"Product":    record.Product,
		"Amount":     amount,
		"Date":       record.Date,
	})
}

// ValidateFeedback 校验客户反馈记录
// CustomerID为数字，Rating为[1,5]内整数，Feedback非空
func (v *Validator) ValidateFeedback(record models.FeedbackRecord) models.ValidationOutcome {
	if !isNumeric(record.CustomerID) {
		return rejected("CustomerID缺失或非数字")
	}
	rating, err := cast.ToIntE(strings.TrimSpace(record.Rating))
	if err != nil {
		return rejected("Rating无法解析为整数")
	}
	if rating < 1 || rating > 5 {
		return rejected("Rating超出[1,5]范围")
	}
	if strings.TrimSpace(record.Feedback) == "" {
		return rejected("Feedback缺失")
	}
	return v.applyScript(models.KindFeedback, map[string]interface{}{
		"CustomerID": record.CustomerID,
		"Rating":     rating,
		"Feedback":   record.Feedback,
	})
}

// PartitionCustomers 客户档案分流，两侧都保持原始顺序
func (v *Validator) PartitionCustomers(records []models.CustomerRecord) (accepted, rejectedRecords []models.CustomerRecord) {
	for _, record := range records {
		if v.ValidateCustomer(record).Accepted {
			accepted = append(accepted, record)
		} else {
			rejectedRecords = append(rejectedRecords, record)
		}
	}
	return accepted, rejectedRecords
}

// PartitionPurchases 购买流水分流
func (v *Validator) PartitionPurchases(records []models.PurchaseRecord) (accepted, rejectedRecords []models.PurchaseRecord) {
	for _, record := range records {
		if v.ValidatePurchase(record).Accepted {
			accepted = append(accepted, record)
		} else {
			rejectedRecords = append(rejectedRecords, record)
		}
	}
	return accepted, rejectedRecords
}

// PartitionFeedback 客户反馈分流
func (v *Validator) PartitionFeedback(records []models.FeedbackRecord) (accepted, rejectedRecords []models.FeedbackRecord) {
	for _, record := range records {
		if v.ValidateFeedback(record).Accepted {
			accepted = append(accepted, record)
		} else {
			rejectedRecords = append(rejectedRecords, record)
		}
	}
	return accepted, rejectedRecords
}

// applyScript 内置规则通过后执行脚本规则
// 脚本执行异常按拒收处理，不中断文件
func (v *Validator) applyScript(kind models.RecordKind, record map[string]interface{}) models.ValidationOutcome {
	ok, reason, err := v.scripts.Evaluate(kind, record)
	if err != nil {
		return rejected("脚本规则执行失败: " + err.Error())
	}
	if !ok {
		return rejected(reason)
	}
	return models.ValidationOutcome{Accepted: true}
}

// rejected 构造拒收结论
func rejected(reason string) models.ValidationOutcome {
	return models.ValidationOutcome{Accepted: false, Reason: reason}
}

// isNumeric 判断是否为非空纯数字串
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isValidDate 判断是否为YYYY-MM-DD格式的有效日期
func isValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
