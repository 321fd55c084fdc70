/*
 * @module api/controllers/run_controller
 * @description 作业运行控制器，提供整合作业的查询与人工触发入口
 * @architecture RESTful API架构 - 控制器层
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow HTTP请求 -> 运行记录查询/作业触发 -> 响应返回
 * @rules 人工触发与事件触发走同一作业编排，遵守相同的租约防重语义
 * @dependencies customer360-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/consolidation/service.go
 */

package controllers

import (
	"net/http"
	"strconv"

	"customer360-service/service"
	"customer360-service/service/consolidation"
	"customer360-service/service/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// RunController 作业运行控制器
type RunController struct {
	tracker              *consolidation.RunTracker
	consolidationService *consolidation.Service
	aggregator           *validation.QualityAggregator
}

// NewRunController 创建作业运行控制器实例
func NewRunController() *RunController {
	return &RunController{
		tracker:              service.GlobalRunTracker,
		consolidationService: service.GlobalConsolidationService,
		aggregator:           service.GlobalQualityAggregator,
	}
}

// ListRuns 分页查询作业运行记录
// @Summary 查询作业运行记录
// @Description 按开始时间倒序分页返回整合作业的运行记录
// @Tags 作业运行
// @Produce json
// @Param limit query int false "每页数量"
// @Param offset query int false "偏移量"
// @Success 200 {object} PaginatedResponse
// @Router /runs [get]
func (c *RunController) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, total, err := c.tracker.List(limit, offset)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取作业运行记录失败", err))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "获取作业运行记录成功",
		Data:   records,
		Total:  total,
	})
}

// GetRun 查询单个作业运行记录
// @Summary 查询作业详情
// @Description 按作业ID返回运行记录
// @Tags 作业运行
// @Produce json
// @Param job_id path string true "作业ID"
// @Success 200 {object} APIResponse
// @Router /runs/{job_id} [get]
func (c *RunController) GetRun(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "作业ID不能为空", nil))
		return
	}

	record, err := c.tracker.Get(jobID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("作业运行记录不存在", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取作业运行记录成功", record))
}

// TriggerRun 人工触发一次整合作业
// @Summary 触发整合作业
// @Description 以当前质量得分为输入，人工触发一次从通过区到画像表的整合作业
// @Tags 作业运行
// @Produce json
// @Success 200 {object} APIResponse
// @Router /runs/trigger [post]
func (c *RunController) TriggerRun(w http.ResponseWriter, r *http.Request) {
	params := validation.TriggerParams{
		ValidatedCustomersPrefix: validation.ValidatedPrefix + "customers/",
		ValidatedPurchasesPrefix: validation.ValidatedPrefix + "purchases/",
		ValidatedFeedbackPrefix:  validation.ValidatedPrefix + "feedback/",
	}

	// 带上当前各源合并后的质量概况
	if scores, err := c.aggregator.Scores(); err == nil {
		var accepted, rejected int64
		for _, s := range scores {
			accepted += s.Accepted
			rejected += s.Rejected
		}
		if accepted+rejected > 0 {
			params.DQScore = 100 * float64(accepted) / float64(accepted+rejected)
		}
		params.ErrorCount = rejected
	}

	record, err := c.consolidationService.Run(r.Context(), params)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("整合作业执行失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("整合作业执行完成", record))
}
