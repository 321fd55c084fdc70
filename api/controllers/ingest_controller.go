/*
 * @module api/controllers/ingest_controller
 * @description 摄入控制器，接收对象存储上传通知事件并驱动校验分流流程
 * @architecture RESTful API架构 - 控制器层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow HTTP请求 -> 事件批量处理 -> 处理结果返回
 * @rules 形状非法的事件不使整个批次失败，逐事件返回处理结果
 * @dependencies customer360-service/service, github.com/go-chi/render
 * @refs service/validation/ingest_service.go
 */

package controllers

import (
	"net/http"

	"customer360-service/service"
	"customer360-service/service/models"
	"customer360-service/service/validation"

	"github.com/go-chi/render"
)

// IngestController 摄入控制器
type IngestController struct {
	ingestService *validation.IngestService
}

// NewIngestController 创建摄入控制器实例
func NewIngestController() *IngestController {
	return &IngestController{
		ingestService: service.GlobalIngestService,
	}
}

// IngestEventsRequest 上传事件批量提交请求
type IngestEventsRequest struct {
	Events []models.ObjectEvent `json:"events"`
}

// ProcessEvents 处理上传通知事件
// @Summary 提交上传通知事件
// @Description 接收对象存储上传通知事件批次，对每个raw/对象执行校验分流
// @Tags 摄入
// @Accept json
// @Produce json
// @Param request body IngestEventsRequest true "上传事件批次"
// @Success 200 {object} APIResponse
// @Router /ingest/events [post]
func (c *IngestController) ProcessEvents(w http.ResponseWriter, r *http.Request) {
	var req IngestEventsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "请求参数解析失败", err))
		return
	}
	if len(req.Events) == 0 {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "事件列表不能为空", nil))
		return
	}

	results := c.ingestService.ProcessEvents(r.Context(), req.Events)
	render.JSON(w, r, SuccessResponse("上传事件处理完成", results))
}
