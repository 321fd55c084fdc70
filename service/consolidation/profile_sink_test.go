/*
 * @module service/consolidation/profile_sink_test
 * @description 画像落库单元测试：事务性整表覆盖与分页查询
 * @architecture 测试层
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 预置旧画像 -> 覆盖写入 -> 断言只保留新集合
 * @rules 覆盖写入必须原子替换，空集合覆盖后表为空
 * @dependencies testing, stretchr/testify, testutil
 */

package consolidation

import (
	"testing"

	"customer360-service/service/models"
	"customer360-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T) (*ProfileSink, *testutil.TestDataFactory) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewProfileSink(tdb.DB), testutil.NewTestDataFactory(tdb.DB)
}

// TestOverwriteReplacesExisting 测试覆盖写入完全替换旧画像
func TestOverwriteReplacesExisting(t *testing.T) {
	sink, factory := newTestSink(t)

	factory.CreateCustomerProfile()
	factory.CreateCustomerProfile()

	fresh := []models.CustomerProfile{
		{CustomerID: "201", Name: "新客户", City: "上海", Sentiment: models.SentimentPositive},
	}
	require.NoError(t, sink.Overwrite(fresh))

	profiles, total, err := sink.List(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, profiles, 1)
	assert.Equal(t, "201", profiles[0].CustomerID)
}

// TestOverwriteEmptyClearsTable 测试空集合覆盖后表为空
func TestOverwriteEmptyClearsTable(t *testing.T) {
	sink, factory := newTestSink(t)

	factory.CreateCustomerProfile()
	require.NoError(t, sink.Overwrite(nil))

	_, total, err := sink.List(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

// TestGetByCustomerID 测试按客户ID查询画像
func TestGetByCustomerID(t *testing.T) {
	sink, _ := newTestSink(t)

	require.NoError(t, sink.Overwrite([]models.CustomerProfile{
		{CustomerID: "101", Name: "张三", Sentiment: models.SentimentNeutral},
		{CustomerID: "102", Name: "李四", Sentiment: models.SentimentPositive},
	}))

	got, err := sink.Get("102")
	require.NoError(t, err)
	assert.Equal(t, "李四", got.Name)

	_, err = sink.Get("999")
	assert.Error(t, err)
}

// TestListPagination 测试分页与按客户ID升序
func TestListPagination(t *testing.T) {
	sink, _ := newTestSink(t)

	require.NoError(t, sink.Overwrite([]models.CustomerProfile{
		{CustomerID: "103", Sentiment: models.SentimentUnknown},
		{CustomerID: "101", Sentiment: models.SentimentUnknown},
		{CustomerID: "102", Sentiment: models.SentimentUnknown},
	}))

	page, total, err := sink.List(2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "101", page[0].CustomerID)
	assert.Equal(t, "102", page[1].CustomerID)

	rest, _, err := sink.List(2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "103", rest[0].CustomerID)
}
