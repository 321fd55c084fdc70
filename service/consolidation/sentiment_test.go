/*
 * @module service/consolidation/sentiment_test
 * @description 情感标注器单元测试：标签关联、按位回退、缺失与失败路径
 * @architecture 测试层
 * @documentReference ai_docs/customer360_test_plan.md
 * @stateFlow 桩分类端返回预设结果 -> 标注 -> 断言画像情感字段
 * @rules 覆盖乱序标签、部分缺失、按位回退的严格前提与整批失败降级
 * @dependencies testing, stretchr/testify
 */

package consolidation

import (
	"context"
	"errors"
	"testing"

	"customer360-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClassifier 返回固定结果或错误的分类端桩
type stubClassifier struct {
	completion string
	err        error
	prompts    []string
}

func (s *stubClassifier) Classify(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.completion, nil
}

func profilesFor(ids ...string) []models.CustomerProfile {
	out := make([]models.CustomerProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.CustomerProfile{CustomerID: id, Sentiment: models.SentimentUnknown})
	}
	return out
}

// TestApplyMatchesByTag 测试按[客户ID]标签关联，允许乱序
func TestApplyMatchesByTag(t *testing.T) {
	classifier := &stubClassifier{completion: "[102] Negative\n[101] Positive\n[103] Neutral"}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("101", "102", "103")
	texts := map[string][]string{"101": {"很好"}, "102": {"太差"}, "103": {"一般"}}

	tagger.Apply(context.Background(), profiles, texts)

	assert.Equal(t, models.SentimentPositive, profiles[0].Sentiment)
	assert.Equal(t, models.SentimentNegative, profiles[1].Sentiment)
	assert.Equal(t, models.SentimentNeutral, profiles[2].Sentiment)
}

// TestApplyChineseLabels 测试中文结果归一到受控词表
func TestApplyChineseLabels(t *testing.T) {
	classifier := &stubClassifier{completion: "[101] 正面\n[102] 负面\n[103] 中性"}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("101", "102", "103")
	tagger.Apply(context.Background(), profiles, map[string][]string{})

	assert.Equal(t, models.SentimentPositive, profiles[0].Sentiment)
	assert.Equal(t, models.SentimentNegative, profiles[1].Sentiment)
	assert.Equal(t, models.SentimentNeutral, profiles[2].Sentiment)
}

// TestApplyMissingTagGetsUnknown 测试缺失客户标签时显式Unknown
func TestApplyMissingTagGetsUnknown(t *testing.T) {
	classifier := &stubClassifier{completion: "[101] Positive"}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("101", "102")
	profiles[1].Sentiment = models.SentimentPositive // 旧值不得沿用

	tagger.Apply(context.Background(), profiles, map[string][]string{})

	assert.Equal(t, models.SentimentPositive, profiles[0].Sentiment)
	assert.Equal(t, models.SentimentUnknown, profiles[1].Sentiment)
}

// TestApplyPositionalFallback 测试全无标签且行数一致时按位关联
func TestApplyPositionalFallback(t *testing.T) {
	classifier := &stubClassifier{completion: "Positive\nNegative\nNeutral"}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("101", "102", "103")
	tagger.Apply(context.Background(), profiles, map[string][]string{})

	assert.Equal(t, models.SentimentPositive, profiles[0].Sentiment)
	assert.Equal(t, models.SentimentNegative, profiles[1].Sentiment)
	assert.Equal(t, models.SentimentNeutral, profiles[2].Sentiment)
}

// TestApplyNoFallbackOnLineCountMismatch 测试行数不一致时不按位关联
func TestApplyNoFallbackOnLineCountMismatch(t *testing.T) {
	classifier := &stubClassifier{completion: "Positive\nNegative"}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("101", "102", "103")
	tagger.Apply(context.Background(), profiles, map[string][]string{})

	for _, p := range profiles {
		assert.Equal(t, models.SentimentUnknown, p.Sentiment)
	}
}

// TestApplyNoFallbackWhenAnyTagPresent 测试存在任一标签时禁用按位回退
func TestApplyNoFallbackWhenAnyTagPresent(t *testing.T) {
	classifier := &stubClassifier{completion: "[102] Negative\nPositive\nNeutral"}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("101", "102", "103")
	tagger.Apply(context.Background(), profiles, map[string][]string{})

	assert.Equal(t, models.SentimentUnknown, profiles[0].Sentiment)
	assert.Equal(t, models.SentimentNegative, profiles[1].Sentiment)
	assert.Equal(t, models.SentimentUnknown, profiles[2].Sentiment)
}

// TestApplyClassifierErrorMarksBatchUnknown 测试批次调用失败整批降级Unknown
func TestApplyClassifierErrorMarksBatchUnknown(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("连接超时")}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("101", "102")
	profiles[0].Sentiment = models.SentimentPositive

	tagger.Apply(context.Background(), profiles, map[string][]string{})

	assert.Equal(t, models.SentimentUnknown, profiles[0].Sentiment)
	assert.Equal(t, models.SentimentUnknown, profiles[1].Sentiment)
}

// TestApplyBatching 测试超过批大小时拆分为多次分类调用
func TestApplyBatching(t *testing.T) {
	t.Setenv("SENTIMENT_BATCH_SIZE", "2")
	classifier := &stubClassifier{completion: "[0] Positive"}
	tagger := NewSentimentTagger(classifier)

	profiles := profilesFor("1", "2", "3", "4", "5")
	tagger.Apply(context.Background(), profiles, map[string][]string{})

	assert.Len(t, classifier.prompts, 3)
}

// TestBuildPromptStripsNewlines 测试反馈原文中的换行被压平
func TestBuildPromptStripsNewlines(t *testing.T) {
	batch := profilesFor("101")
	prompt := buildPrompt(batch, map[string][]string{"101": {"第一行\n第二行", "另一条"}})

	require.Contains(t, prompt, "[101] 第一行 第二行 另一条")
	assert.NotContains(t, prompt, "行\n第")
}

// TestNormalizeSentiment 测试自由文本结果归一
func TestNormalizeSentiment(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Positive", models.SentimentPositive},
		{"positive sentiment", models.SentimentPositive},
		{"积极", models.SentimentPositive},
		{"NEGATIVE", models.SentimentNegative},
		{"消极", models.SentimentNegative},
		{"Neutral", models.SentimentNeutral},
		{"中性", models.SentimentNeutral},
		{"无法判断", models.SentimentUnknown},
		{"", models.SentimentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeSentiment(tt.raw))
		})
	}
}
