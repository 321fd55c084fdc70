/*
 * @module service/metrics/metrics
 * @description Prometheus指标定义：校验失败计数、记录分流计数、事件处理与汇总运行观测
 * @architecture 工具层 - 进程级指标注册
 * @documentReference ai_docs/customer360_monitoring.md
 * @stateFlow 指标注册 -> 各处理环节打点 -> /metrics暴露
 * @rules 指标名注册前经过合法性检查；打点不允许影响主流程
 * @dependencies github.com/prometheus/client_golang, github.com/prometheus/common
 * @refs main.go, service/validation, service/consolidation
 */

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/model"
)

const namespace = "customer360"

var (
	// ValidationFailures 校验失败次数（事件结构异常、文件损坏、存在拒收记录时打点）
	ValidationFailures = newCounter("validation_failures_total", "校验失败次数")

	// RecordsAccepted 按记录种类统计的通过记录数
	RecordsAccepted = newCounterVec("records_accepted_total", "通过校验的记录数", "kind")

	// RecordsRejected 按记录种类统计的拒收记录数
	RecordsRejected = newCounterVec("records_rejected_total", "拒收的记录数", "kind")

	// EventsProcessed 按结果统计的对象事件处理次数
	EventsProcessed = newCounterVec("events_processed_total", "对象事件处理次数", "result")

	// RunsTotal 按终态统计的汇总运行次数
	RunsTotal = newCounterVec("consolidation_runs_total", "汇总批次运行次数", "status")

	// RunDuration 汇总运行耗时分布
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "consolidation_run_duration_seconds",
		Help:      "汇总批次运行耗时",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// QualityScore 各数据源当前质量得分
	QualityScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "data_quality_score",
		Help:      "数据源当前质量得分（0-100）",
	}, []string{"source"})
)

// newCounter 注册计数器，注册前校验指标名合法性
func newCounter(name, help string) prometheus.Counter {
	mustValidName(name)
	return promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// newCounterVec 注册带标签的计数器
func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	mustValidName(name)
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

// mustValidName 指标名合法性检查
func mustValidName(name string) {
	full := namespace + "_" + name
	if !model.IsValidMetricName(model.LabelValue(full)) {
		panic(fmt.Sprintf("非法的指标名: %s", full))
	}
}
