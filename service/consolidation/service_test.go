/*
 * @module service/consolidation/service_test
 * @description 整合作业编排测试：成功链路全流程与失败链路的状态回写
 * @architecture 测试层
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 预置通过区 -> Run -> 断言运行记录与画像表
 * @rules 失败作业必须置FAILED并保留错误信息，画像表不被破坏
 * @dependencies testing, stretchr/testify, testutil
 */

package consolidation

import (
	"context"
	"testing"

	"customer360-service/service/models"
	"customer360-service/service/objectstore"
	"customer360-service/service/validation"
	"customer360-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedValidated(t *testing.T, store objectstore.ObjectStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "validated/customers/a.xml",
		[]byte(`<Customers><Customer><CustomerID>101</CustomerID><Name>张三</Name><City>上海</City></Customer></Customers>`)))
	require.NoError(t, store.Put(ctx, "validated/purchases/a.json",
		[]byte(`[{"CustomerID":"101","Product":"茶叶","Amount":30,"Date":"2024-03-01"}]`)))
	require.NoError(t, store.Put(ctx, "validated/feedback/a.csv",
		[]byte("CustomerID,Rating,Feedback\n101,5,非常满意\n")))
}

func triggerParams() validation.TriggerParams {
	return validation.TriggerParams{
		ValidatedCustomersPrefix: "validated/customers/",
		ValidatedPurchasesPrefix: "validated/purchases/",
		ValidatedFeedbackPrefix:  "validated/feedback/",
		DQScore:                  100,
	}
}

// TestRunSuccess 测试完整作业链路：整合、情感标注、覆盖落库与SUCCESS回写
func TestRunSuccess(t *testing.T) {
	store, err := objectstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedValidated(t, store)

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	tracker := NewRunTracker(tdb.DB)
	sink := NewProfileSink(tdb.DB)
	tagger := NewSentimentTagger(&stubClassifier{completion: "[101] Positive"})
	svc := NewService(tracker, NewConsolidator(store), tagger, sink, nil)

	record, err := svc.Run(context.Background(), triggerParams())
	require.NoError(t, err)

	got, err := tracker.Get(record.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, got.Status)
	require.NotNil(t, got.RecordCount)
	assert.Equal(t, int64(1), *got.RecordCount)

	profile, err := sink.Get("101")
	require.NoError(t, err)
	assert.Equal(t, "张三", profile.Name)
	assert.InDelta(t, 30.0, profile.TotalSpend, 0.001)
	assert.Equal(t, models.SentimentPositive, profile.Sentiment)
}

// TestRunWithoutTagger 测试未启用情感标注时画像保持Unknown
func TestRunWithoutTagger(t *testing.T) {
	store, err := objectstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedValidated(t, store)

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	tracker := NewRunTracker(tdb.DB)
	sink := NewProfileSink(tdb.DB)
	svc := NewService(tracker, NewConsolidator(store), nil, sink, nil)

	_, err = svc.Run(context.Background(), triggerParams())
	require.NoError(t, err)

	profile, err := sink.Get("101")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentUnknown, profile.Sentiment)
}

// TestRunFailureMarksFailed 测试装载失败时作业置FAILED且画像表不被破坏
func TestRunFailureMarksFailed(t *testing.T) {
	store, err := objectstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// 通过区出现不可解析对象将导致装载失败
	require.NoError(t, store.Put(ctx, "validated/customers/broken.xml", []byte("<Customers><Cust")))

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	tracker := NewRunTracker(tdb.DB)
	sink := NewProfileSink(tdb.DB)
	require.NoError(t, sink.Overwrite([]models.CustomerProfile{{CustomerID: "900", Name: "旧画像"}}))

	svc := NewService(tracker, NewConsolidator(store), nil, sink, nil)

	record, err := svc.Run(ctx, triggerParams())
	require.Error(t, err)
	require.NotNil(t, record)

	got, err := tracker.Get(record.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)

	// 旧画像仍然完好
	old, err := sink.Get("900")
	require.NoError(t, err)
	assert.Equal(t, "旧画像", old.Name)
}

// TestTriggerRunWithoutLease 测试未启用运行租约时直接执行
func TestTriggerRunWithoutLease(t *testing.T) {
	store, err := objectstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	seedValidated(t, store)

	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	tracker := NewRunTracker(tdb.DB)
	svc := NewService(tracker, NewConsolidator(store), nil, NewProfileSink(tdb.DB), nil)

	require.NoError(t, svc.TriggerRun(context.Background(), triggerParams()))

	_, total, err := tracker.List(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
