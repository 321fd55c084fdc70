/*
 * @module service/validation/ingest_service_test
 * @description 摄入服务端到端单元测试：事件消费、分流落盘、质量计数与下游触发
 * @architecture 测试层
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 准备raw/对象 -> 事件处理 -> 分区与计数验证
 * @rules 覆盖幂等重放、文件级损坏降级、触发条件三类关键路径
 * @dependencies testing, stretchr/testify, testutil
 */

package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"customer360-service/service/format"
	"customer360-service/service/models"
	"customer360-service/service/objectstore"
	"customer360-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrigger 记录触发调用的桩实现
type fakeTrigger struct {
	calls []TriggerParams
}

func (f *fakeTrigger) TriggerRun(ctx context.Context, params TriggerParams) error {
	f.calls = append(f.calls, params)
	return nil
}

// newTestIngest 组装基于临时目录与内存库的摄入服务
func newTestIngest(t *testing.T) (*IngestService, objectstore.ObjectStore, *QualityAggregator, *fakeTrigger) {
	t.Helper()

	store, err := objectstore.NewFSStore(t.TempDir())
	require.NoError(t, err)

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	validator := NewValidator()
	require.NoError(t, validator.LoadScriptRulesFromEnv())
	writer := NewPartitionWriter(store)
	aggregator := NewQualityAggregator(tdb.DB, store)
	svc := NewIngestService(store, validator, writer, aggregator)

	trigger := &fakeTrigger{}
	svc.RegisterTrigger(trigger)
	return svc, store, aggregator, trigger
}

const customersXML = `<?xml version="1.0"?>
<Customers>
  <Customer><CustomerID>101</CustomerID><Name>张三</Name><City>上海</City></Customer>
  <Customer><CustomerID>abc</CustomerID><Name>坏记录</Name><City>北京</City></Customer>
  <Customer><CustomerID>103</CustomerID><Name>王五</Name><City>广州</City></Customer>
</Customers>`

// TestProcessEventPartitions 测试客户文件分流与质量计数
func TestProcessEventPartitions(t *testing.T) {
	svc, store, _, trigger := newTestIngest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw/customers/2024-01.xml", []byte(customersXML)))

	result, err := svc.ProcessEvent(ctx, models.ObjectEvent{Bucket: "customer-data", Key: "raw/customers/2024-01.xml"})
	require.NoError(t, err)

	assert.Equal(t, models.KindCustomer, result.Kind)
	assert.Equal(t, int64(2), result.Accepted)
	assert.Equal(t, int64(1), result.Rejected)
	assert.InDelta(t, 100.0*2/3, result.Score.Score, 0.01)

	// 通过区只含合法记录
	validated, err := store.Get(ctx, "validated/customers/2024-01.xml")
	require.NoError(t, err)
	records, err := format.DecodeCustomers(validated)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "101", records[0].CustomerID)
	assert.Equal(t, "103", records[1].CustomerID)

	// 拒收区只含非法记录
	errored, err := store.Get(ctx, "error/customers/2024-01.xml")
	require.NoError(t, err)
	records, err = format.DecodeCustomers(errored)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc", records[0].CustomerID)

	// 存在通过记录，触发下游整合
	require.Len(t, trigger.calls, 1)
	assert.InDelta(t, 100.0*2/3, trigger.calls[0].DQScore, 0.01)
	assert.Equal(t, int64(1), trigger.calls[0].ErrorCount)
}

// TestProcessEventReplayDoesNotDoubleCount 测试同一事件至少一次重投递不改变计数与分区
func TestProcessEventReplayDoesNotDoubleCount(t *testing.T) {
	svc, store, aggregator, _ := newTestIngest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw/customers/2024-01.xml", []byte(customersXML)))
	event := models.ObjectEvent{Bucket: "customer-data", Key: "raw/customers/2024-01.xml"}

	_, err := svc.ProcessEvent(ctx, event)
	require.NoError(t, err)
	first, err := store.Get(ctx, "validated/customers/2024-01.xml")
	require.NoError(t, err)

	result, err := svc.ProcessEvent(ctx, event)
	require.NoError(t, err)
	second, err := store.Get(ctx, "validated/customers/2024-01.xml")
	require.NoError(t, err)

	// 分区内容逐字节一致
	assert.Equal(t, first, second)

	// 计数器按对象键覆盖，重放后不出现重复累计
	assert.Equal(t, int64(2), result.Score.Accepted)
	assert.Equal(t, int64(1), result.Score.Rejected)
	score, err := aggregator.Score("customers")
	require.NoError(t, err)
	assert.Equal(t, int64(2), score.Accepted)
	assert.Equal(t, int64(1), score.Rejected)

	// 对账重扫与增量计数一致
	rebuilt, err := aggregator.Rescan(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, score, rebuilt)
}

// TestProcessEventMalformedFile 测试文件级损坏原样落入拒收区
func TestProcessEventMalformedFile(t *testing.T) {
	svc, store, _, trigger := newTestIngest(t)
	ctx := context.Background()

	broken := []byte(`{"not": "an array"}`)
	require.NoError(t, store.Put(ctx, "raw/purchases/broken.json", broken))

	result, err := svc.ProcessEvent(ctx, models.ObjectEvent{Bucket: "customer-data", Key: "raw/purchases/broken.json"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Accepted)
	assert.Equal(t, int64(1), result.Rejected)

	// 原始字节原样进入拒收区
	copied, err := store.Get(ctx, "error/purchases/broken.json")
	require.NoError(t, err)
	assert.Equal(t, broken, copied)

	// 没有通过记录，不触发整合
	assert.Empty(t, trigger.calls)
}

// TestProcessEventAllRejectedDoesNotTrigger 测试全部拒收时不触发整合
func TestProcessEventAllRejectedDoesNotTrigger(t *testing.T) {
	svc, store, _, trigger := newTestIngest(t)
	ctx := context.Background()

	csv := "CustomerID,Rating,Feedback\nabc,9,\n"
	require.NoError(t, store.Put(ctx, "raw/feedback/bad.csv", []byte(csv)))

	result, err := svc.ProcessEvent(ctx, models.ObjectEvent{Bucket: "customer-data", Key: "raw/feedback/bad.csv"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Accepted)
	assert.Equal(t, int64(1), result.Rejected)
	assert.Empty(t, trigger.calls)

	// 通过区不产生对象
	_, err = store.Get(ctx, "validated/feedback/bad.csv")
	assert.ErrorIs(t, err, objectstore.ErrObjectNotFound)
}

// TestProcessEventsShapeFailure 测试形状非法事件跳过且不中断批次
func TestProcessEventsShapeFailure(t *testing.T) {
	svc, store, _, _ := newTestIngest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw/feedback/ok.csv", []byte("CustomerID,Rating,Feedback\n101,5,很好\n")))

	results := svc.ProcessEvents(ctx, []models.ObjectEvent{
		{Bucket: "", Key: "raw/feedback/ok.csv"},
		{Bucket: "customer-data", Key: "raw/feedback/ok.csv"},
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, int64(1), results[1].Accepted)
}

// TestProcessEventsFanoutFirst 测试first扇出策略只处理批次首个合法事件
func TestProcessEventsFanoutFirst(t *testing.T) {
	t.Setenv("INGEST_FANOUT", "first")
	svc, store, _, _ := newTestIngest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw/feedback/one.csv", []byte("CustomerID,Rating,Feedback\n101,5,很好\n")))
	require.NoError(t, store.Put(ctx, "raw/feedback/two.csv", []byte("CustomerID,Rating,Feedback\n102,4,不错\n")))

	results := svc.ProcessEvents(ctx, []models.ObjectEvent{
		{Bucket: "customer-data", Key: "raw/feedback/one.csv"},
		{Bucket: "customer-data", Key: "raw/feedback/two.csv"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].Accepted)
	assert.True(t, results[1].Skipped)

	// 第二个事件未被处理，分区中不产生对应对象
	_, err := store.Get(ctx, "validated/feedback/one.csv")
	require.NoError(t, err)
	_, err = store.Get(ctx, "validated/feedback/two.csv")
	assert.ErrorIs(t, err, objectstore.ErrObjectNotFound)
}

// TestProcessEventsFanoutFirstSkipsInvalidShape 测试first策略下形状非法事件不占用处理名额
func TestProcessEventsFanoutFirstSkipsInvalidShape(t *testing.T) {
	t.Setenv("INGEST_FANOUT", "first")
	svc, store, _, _ := newTestIngest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw/feedback/ok.csv", []byte("CustomerID,Rating,Feedback\n101,5,很好\n")))

	results := svc.ProcessEvents(ctx, []models.ObjectEvent{
		{Bucket: "", Key: "raw/feedback/ok.csv"},
		{Bucket: "customer-data", Key: "raw/feedback/ok.csv"},
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, int64(1), results[1].Accepted)
}

// TestProcessEventWithEnvScriptRule 测试从环境变量装载的脚本规则参与分流
func TestProcessEventWithEnvScriptRule(t *testing.T) {
	scriptPath := filepath.Join(t.TempDir(), "customer_rule.go")
	script := `
func Validate(record map[string]interface{}) (bool, string) {
	city, _ := record["City"].(string)
	if city == "广州" {
		return false, "城市在黑名单中"
	}
	return true, ""
}
`
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o644))
	t.Setenv("VALIDATION_SCRIPT_CUSTOMER", scriptPath)

	svc, store, _, _ := newTestIngest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw/customers/2024-01.xml", []byte(customersXML)))

	result, err := svc.ProcessEvent(ctx, models.ObjectEvent{Bucket: "customer-data", Key: "raw/customers/2024-01.xml"})
	require.NoError(t, err)

	// 内置规则拒收abc，脚本规则再拒收广州的103
	assert.Equal(t, int64(1), result.Accepted)
	assert.Equal(t, int64(2), result.Rejected)

	errored, err := store.Get(ctx, "error/customers/2024-01.xml")
	require.NoError(t, err)
	records, err := format.DecodeCustomers(errored)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "abc", records[0].CustomerID)
	assert.Equal(t, "103", records[1].CustomerID)
}

// TestProcessEventOutsideRawSkipped 测试raw/前缀之外的键被跳过
func TestProcessEventOutsideRawSkipped(t *testing.T) {
	svc, _, _, trigger := newTestIngest(t)

	result, err := svc.ProcessEvent(context.Background(), models.ObjectEvent{Bucket: "b", Key: "validated/customers/x.xml"})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, trigger.calls)
}
