/*
 * @module service/consolidation/run_tracker_test
 * @description 作业运行追踪器单元测试：状态单向迁移与分页列举
 * @architecture 测试层
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 登记RUNNING -> 终态更新 -> 查询断言
 * @rules 终态不可被二次覆盖；使用内存sqlite
 * @dependencies testing, stretchr/testify, testutil
 */

package consolidation

import (
	"errors"
	"testing"

	"customer360-service/service/models"
	"customer360-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *RunTracker {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewRunTracker(tdb.DB)
}

// TestStartCreatesRunningRecord 测试登记后状态为RUNNING
func TestStartCreatesRunningRecord(t *testing.T) {
	tracker := newTestTracker(t)

	record, err := tracker.Start(92.5, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, record.JobID)
	assert.Equal(t, models.RunStatusRunning, record.Status)
	assert.InDelta(t, 92.5, record.DQScore, 0.001)
	assert.Equal(t, int64(3), record.ErrorCount)
	assert.False(t, record.IsTerminal())
}

// TestSucceedMarksTerminal 测试成功终态写入产出记录数
func TestSucceedMarksTerminal(t *testing.T) {
	tracker := newTestTracker(t)

	record, err := tracker.Start(100, 0)
	require.NoError(t, err)
	require.NoError(t, tracker.Succeed(record.JobID, 42))

	got, err := tracker.Get(record.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, got.Status)
	require.NotNil(t, got.RecordCount)
	assert.Equal(t, int64(42), *got.RecordCount)
	require.NotNil(t, got.EndTime)
	assert.True(t, got.IsTerminal())
}

// TestFailMarksTerminalWithMessage 测试失败终态保留错误信息
func TestFailMarksTerminalWithMessage(t *testing.T) {
	tracker := newTestTracker(t)

	record, err := tracker.Start(80, 5)
	require.NoError(t, err)
	require.NoError(t, tracker.Fail(record.JobID, errors.New("装载通过区数据失败")))

	got, err := tracker.Get(record.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "装载通过区数据失败", got.ErrorMessage)
	assert.True(t, got.IsTerminal())
}

// TestTerminalStateIsOneWay 测试终态不可被二次覆盖
func TestTerminalStateIsOneWay(t *testing.T) {
	tracker := newTestTracker(t)

	record, err := tracker.Start(100, 0)
	require.NoError(t, err)
	require.NoError(t, tracker.Succeed(record.JobID, 10))

	// SUCCESS之后的失败回写不生效
	require.NoError(t, tracker.Fail(record.JobID, errors.New("迟到的失败")))

	got, err := tracker.Get(record.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

// TestListOrdersByStartTimeDesc 测试按开始时间倒序分页
func TestListOrdersByStartTimeDesc(t *testing.T) {
	tracker := newTestTracker(t)

	var jobIDs []string
	for i := 0; i < 3; i++ {
		record, err := tracker.Start(float64(90+i), 0)
		require.NoError(t, err)
		jobIDs = append(jobIDs, record.JobID)
	}

	records, total, err := tracker.List(2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 2)
	assert.Equal(t, jobIDs[2], records[0].JobID)
	assert.Equal(t, jobIDs[1], records[1].JobID)
}

// TestGetUnknownJob 测试未知作业返回错误
func TestGetUnknownJob(t *testing.T) {
	tracker := newTestTracker(t)

	_, err := tracker.Get("no-such-job")
	assert.Error(t, err)
}
