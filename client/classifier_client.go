/*
 * @module client/classifier_client
 * @description 情感分类服务客户端，提交批量文本提示并返回逐行分类结果
 * @architecture 客户端架构 - REST API客户端
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow 构建请求 -> API调用 -> 响应文本提取
 * @rules 分类服务不可用时返回错误，由调用方决定降级策略
 * @dependencies net/http, encoding/json, github.com/spf13/cast
 * @refs service/consolidation/sentiment.go
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	classifierURL = getEnv("CLASSIFIER_URL", "http://localhost:8088/v1/classify")

	classifierHTTPClient = &http.Client{Timeout: 60 * time.Second}
)

// ClassifierClient 情感分类服务客户端
type ClassifierClient struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxTokens  int
}

// NewClassifierClient 创建情感分类客户端，地址取自CLASSIFIER_URL
func NewClassifierClient() *ClassifierClient {
	return &ClassifierClient{
		BaseURL:    strings.TrimSuffix(classifierURL, "/"),
		HTTPClient: classifierHTTPClient,
		MaxTokens:  cast.ToInt(getEnv("CLASSIFIER_MAX_TOKENS", "2048")),
	}
}

// classifyRequest 分类请求体
type classifyRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// classifyResponse 分类响应体
type classifyResponse struct {
	Completion string `json:"completion"`
	Error      string `json:"error,omitempty"`
}

// Classify 提交提示文本，返回分类服务的完整回答文本
func (c *ClassifierClient) Classify(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(classifyRequest{Prompt: prompt, MaxTokens: c.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("序列化分类请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("构建分类请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用分类服务失败: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取分类响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("分类服务返回状态%d: %s", resp.StatusCode, string(data))
	}

	var parsed classifyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("解析分类响应失败: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("分类服务错误: %s", parsed.Error)
	}
	return parsed.Completion, nil
}

// getEnv 获取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
