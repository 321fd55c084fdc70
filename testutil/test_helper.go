/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"customer360-service/service/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.RunRecord{},
		&models.SourceQuality{},
		&models.CustomerProfile{},
		&models.SSEEvent{},
		&models.SSEConnection{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"run_records",
		"source_quality_counters",
		"customer360_golden",
		"sse_events",
		"sse_connections",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// RunRecordOption 运行记录选项函数类型
type RunRecordOption func(*models.RunRecord)

// CreateRunRecord 创建测试运行记录
func (f *TestDataFactory) CreateRunRecord(opts ...RunRecordOption) *models.RunRecord {
	record := &models.RunRecord{
		JobID:      generateID("run"),
		StartTime:  time.Now(),
		Status:     models.RunStatusRunning,
		DQScore:    100,
		ErrorCount: 0,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(record)
	}

	if err := f.DB.Create(record).Error; err != nil {
		panic(fmt.Sprintf("failed to create test run record: %v", err))
	}

	return record
}

// CustomerProfileOption 客户画像选项函数类型
type CustomerProfileOption func(*models.CustomerProfile)

// CreateCustomerProfile 创建测试客户画像
func (f *TestDataFactory) CreateCustomerProfile(opts ...CustomerProfileOption) *models.CustomerProfile {
	lastPurchase := time.Now().AddDate(0, -1, 0)
	profile := &models.CustomerProfile{
		CustomerID:       generateSuffix(),
		Name:             "测试客户",
		City:             "上海",
		TotalSpend:       199.5,
		PurchaseCount:    3,
		LastPurchaseDate: &lastPurchase,
		AvgRating:        4.5,
		FeedbackCount:    2,
		Sentiment:        models.SentimentPositive,
		UpdatedAt:        time.Now(),
	}

	for _, opt := range opts {
		opt(profile)
	}

	if err := f.DB.Create(profile).Error; err != nil {
		panic(fmt.Sprintf("failed to create test customer profile: %v", err))
	}

	return profile
}

// SourceQualityOption 质量计数器选项函数类型
type SourceQualityOption func(*models.SourceQuality)

// CreateSourceQuality 创建测试质量计数器，segment由raw/对象键推导
func (f *TestDataFactory) CreateSourceQuality(sourceKey string, opts ...SourceQualityOption) *models.SourceQuality {
	segment := strings.TrimPrefix(sourceKey, "raw/")
	if idx := strings.Index(segment, "/"); idx > 0 {
		segment = segment[:idx]
	}
	counter := &models.SourceQuality{
		SourceKey:     sourceKey,
		Segment:       segment,
		AcceptedCount: 10,
		RejectedCount: 2,
		UpdatedAt:     time.Now(),
	}

	for _, opt := range opts {
		opt(counter)
	}

	if err := f.DB.Create(counter).Error; err != nil {
		panic(fmt.Sprintf("failed to create test source quality counter: %v", err))
	}

	return counter
}

// 辅助函数
func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), generateSuffix())
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
