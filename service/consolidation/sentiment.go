/*
 * @module service/consolidation/sentiment
 * @description 情感标注器：按批次构建带关联标签的提示，解析分类结果并回填画像
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow 画像分批 -> [客户ID]标签提示 -> 分类服务调用 -> 标签匹配回填 -> 未命中置Unknown
 * @rules 结果行优先按[客户ID]标签关联；整批标签全部缺失且行数与输入一致时退回按位关联；
 *        无法关联或批次调用失败的客户显式标注Unknown，不沿用任何旧值
 * @dependencies client, log/slog, github.com/spf13/cast
 * @refs consolidator.go, service.go
 */

package consolidation

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"customer360-service/service/models"

	"github.com/spf13/cast"
)

// TextClassifier 批量文本分类端
type TextClassifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// SentimentTagger 情感标注器
type SentimentTagger struct {
	classifier TextClassifier
	batchSize  int
}

// NewSentimentTagger 创建情感标注器
// SENTIMENT_BATCH_SIZE控制每批提交的客户数，默认25
func NewSentimentTagger(classifier TextClassifier) *SentimentTagger {
	batchSize := cast.ToInt(getEnvWithDefault("SENTIMENT_BATCH_SIZE", "25"))
	if batchSize <= 0 {
		batchSize = 25
	}
	return &SentimentTagger{classifier: classifier, batchSize: batchSize}
}

// taggedLine 匹配形如 [123] Positive 的结果行
var taggedLine = regexp.MustCompile(`^\s*\[([0-9]+)\]\s*(.+)$`)

// Apply 为画像集合回填情感标签
// feedbackTexts为每个客户的反馈原文集合，顺序与profiles无关
func (t *SentimentTagger) Apply(ctx context.Context, profiles []models.CustomerProfile, feedbackTexts map[string][]string) {
	for start := 0; start < len(profiles); start += t.batchSize {
		end := start + t.batchSize
		if end > len(profiles) {
			end = len(profiles)
		}
		t.applyBatch(ctx, profiles[start:end], feedbackTexts)
	}
}

// applyBatch 处理一个批次
func (t *SentimentTagger) applyBatch(ctx context.Context, batch []models.CustomerProfile, feedbackTexts map[string][]string) {
	prompt := buildPrompt(batch, feedbackTexts)
	completion, err := t.classifier.Classify(ctx, prompt)
	if err != nil {
		slog.Error("情感分类批次调用失败，整批标注Unknown", "batch_size", len(batch), "error", err)
		for i := range batch {
			batch[i].Sentiment = models.SentimentUnknown
		}
		return
	}

	byID, untagged := parseCompletion(completion)

	// 标签全部缺失且行数恰好一致时，退回按位关联
	positional := len(byID) == 0 && len(untagged) == len(batch)

	matched := 0
	for i := range batch {
		sentiment := models.SentimentUnknown
		if positional {
			sentiment = normalizeSentiment(untagged[i])
		} else if s, ok := byID[batch[i].CustomerID]; ok {
			sentiment = normalizeSentiment(s)
		}
		if sentiment != models.SentimentUnknown {
			matched++
		}
		batch[i].Sentiment = sentiment
	}
	if matched < len(batch) {
		slog.Warn("情感分类结果部分缺失", "batch_size", len(batch), "matched", matched)
	}
}

// buildPrompt 构建带客户ID关联标签的批量提示
func buildPrompt(batch []models.CustomerProfile, feedbackTexts map[string][]string) string {
	var b strings.Builder
	b.WriteString("请判断以下每条客户反馈的情感倾向，逐行回答，每行格式为 [客户ID] Positive/Negative/Neutral：\n")
	for _, p := range batch {
		text := strings.Join(feedbackTexts[p.CustomerID], " ")
		text = strings.ReplaceAll(text, "\n", " ")
		fmt.Fprintf(&b, "[%s] %s\n", p.CustomerID, text)
	}
	return b.String()
}

// parseCompletion 解析分类结果文本
// 返回按客户ID标签索引的结果与无标签行的顺序列表
func parseCompletion(completion string) (map[string]string, []string) {
	byID := make(map[string]string)
	var untagged []string
	for _, line := range strings.Split(completion, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := taggedLine.FindStringSubmatch(line); m != nil {
			byID[m[1]] = m[2]
			continue
		}
		untagged = append(untagged, line)
	}
	return byID, untagged
}

// normalizeSentiment 将自由文本结果归一到受控词表
func normalizeSentiment(raw string) string {
	switch {
	case strings.Contains(strings.ToLower(raw), "positive"), strings.Contains(raw, "正面"), strings.Contains(raw, "积极"):
		return models.SentimentPositive
	case strings.Contains(strings.ToLower(raw), "negative"), strings.Contains(raw, "负面"), strings.Contains(raw, "消极"):
		return models.SentimentNegative
	case strings.Contains(strings.ToLower(raw), "neutral"), strings.Contains(raw, "中性"):
		return models.SentimentNeutral
	}
	return models.SentimentUnknown
}
