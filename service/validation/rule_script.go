/*
 * @module service/validation/rule_script
 * @description 脚本规则引擎：基于Yaegi解释器的可插拔校验规则，带编译缓存
 * @architecture 分层架构 - 数据校验层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow 脚本注册 -> sha1缓存查找 -> 编译 -> 逐条记录求值
 * @rules 脚本必须提供 Validate(record map[string]interface{}) (bool, string) 入口函数
 * @dependencies github.com/traefik/yaegi
 * @refs validator.go
 */

package validation

import (
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"customer360-service/service/models"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptRuleEngine 脚本规则引擎，按记录种类挂载规则脚本
type ScriptRuleEngine struct {
	mu    sync.RWMutex
	rules map[models.RecordKind]string
	cache map[string]*compiledRule
}

// compiledRule 编译后的规则脚本
type compiledRule struct {
	fn       func(map[string]interface{}) (bool, string)
	compiled time.Time
	hash     string
}

// NewScriptRuleEngine 创建脚本规则引擎
func NewScriptRuleEngine() *ScriptRuleEngine {
	return &ScriptRuleEngine{
		rules: make(map[models.RecordKind]string),
		cache: make(map[string]*compiledRule),
	}
}

// SetRule 注册指定记录种类的规则脚本，空脚本表示移除
func (e *ScriptRuleEngine) SetRule(kind models.RecordKind, script string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if script == "" {
		delete(e.rules, kind)
		return
	}
	e.rules[kind] = script
}

// Evaluate 对一条记录执行挂载的脚本规则
// 未挂载脚本时直接通过
func (e *ScriptRuleEngine) Evaluate(kind models.RecordKind, record map[string]interface{}) (bool, string, error) {
	e.mu.RLock()
	script, ok := e.rules[kind]
	e.mu.RUnlock()
	if !ok {
		return true, "", nil
	}

	// 使用脚本内容的哈希作为缓存key
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	e.mu.RLock()
	compiled, ok := e.cache[hash]
	e.mu.RUnlock()

	if !ok {
		var err error
		compiled, err = e.compile(script, hash)
		if err != nil {
			return false, "", err
		}
		e.mu.Lock()
		e.cache[hash] = compiled
		e.mu.Unlock()
	}

	ok2, reason := compiled.fn(record)
	return ok2, reason, nil
}

// compile 编译规则脚本为可执行函数
func (e *ScriptRuleEngine) compile(script, hash string) (*compiledRule, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	// 包装脚本：要求脚本必须实现一个 Validate 函数
	wrapped := fmt.Sprintf(`
package rule

import (
	"fmt"
	"strings"
	"strconv"
	"time"
)

var _ = fmt.Sprintf
var _ = strings.TrimSpace
var _ = strconv.Atoi
var _ = time.Now

%s
`, script)

	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("规则脚本编译失败: %w", err)
	}

	v, err := i.Eval("rule.Validate")
	if err != nil {
		return nil, fmt.Errorf("规则脚本缺少 Validate 函数: %w", err)
	}

	fn, ok := v.Interface().(func(map[string]interface{}) (bool, string))
	if !ok {
		return nil, fmt.Errorf("Validate 函数签名必须为 func(map[string]interface{}) (bool, string)")
	}

	return &compiledRule{
		fn:       fn,
		compiled: time.Now(),
		hash:     hash,
	}, nil
}

// CacheStats 返回编译缓存统计信息
func (e *ScriptRuleEngine) CacheStats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return map[string]interface{}{
		"cache_size": len(e.cache),
		"rule_count": len(e.rules),
	}
}
