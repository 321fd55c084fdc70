/*
 * @module api/controllers/event_controller
 * @description 事件管理控制器，提供SSE连接与作业状态事件推送管理API
 * @architecture RESTful API架构 - 控制器层
 * @documentReference ai_docs/customer360_event_push.md
 * @stateFlow HTTP请求 -> 业务逻辑处理 -> 响应返回
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies customer360-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/event/event_service.go
 */

package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"customer360-service/service"
	"customer360-service/service/event"
	"customer360-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// EventController 事件管理控制器
type EventController struct {
	eventService *event.EventService
}

// NewEventController 创建事件控制器实例
func NewEventController() *EventController {
	return &EventController{
		eventService: service.GlobalEventService,
	}
}

// === SSE连接处理 ===

// HandleSSE 处理SSE连接
// @Summary 建立SSE连接
// @Description 前端页面通过此接口建立SSE连接，接收作业状态实时推送
// @Tags 事件管理
// @Param user_name path string true "用户名"
// @Success 200 {string} string "SSE事件流"
// @Router /sse/{user_name} [get]
func (c *EventController) HandleSSE(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "user_name")
	if userName == "" {
		http.Error(w, "用户名不能为空", http.StatusBadRequest)
		return
	}

	// 设置SSE响应头
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	// 生成连接ID
	connectionID := uuid.New().String()
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP = forwarded
	}

	// 添加SSE连接
	client := c.eventService.AddSSEConnection(userName, connectionID, clientIP)
	defer c.eventService.RemoveSSEConnection(userName, connectionID)

	// 发送连接成功事件
	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"connection_id\":\"%s\",\"timestamp\":\"%s\"}\n\n",
		connectionID, time.Now().Format(time.RFC3339))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	// 处理事件推送
	for {
		select {
		case evt := <-client.Channel:
			fmt.Fprintf(w, "data: %s\n\n", toJSON(evt))

			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-client.Done:
			return

		case <-r.Context().Done():
			return
		}
	}
}

// SendEventRequest 发送事件请求
type SendEventRequest struct {
	UserName  string `json:"user_name" example:"admin"`
	EventType string `json:"event_type" example:"run_status_changed"`
	Payload   string `json:"payload"`
}

// SendEvent 发送事件给指定用户
// @Summary 发送事件
// @Description 向指定用户发送SSE事件
// @Tags 事件管理
// @Accept json
// @Produce json
// @Param request body SendEventRequest true "发送事件请求"
// @Success 200 {object} APIResponse
// @Router /events/send [post]
func (c *EventController) SendEvent(w http.ResponseWriter, r *http.Request) {
	var req SendEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "请求参数解析失败", err))
		return
	}

	if req.UserName == "" {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "用户名不能为空", nil))
		return
	}
	if req.EventType == "" {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "事件类型不能为空", nil))
		return
	}

	evt := &models.SSEEvent{
		UserName:  req.UserName,
		EventType: req.EventType,
		Payload:   req.Payload,
		Sent:      true,
	}
	if err := c.eventService.SendEventToUser(req.UserName, evt); err != nil {
		render.JSON(w, r, InternalErrorResponse("发送事件失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("发送事件成功", nil))
}

// BroadcastEventRequest 广播事件请求
type BroadcastEventRequest struct {
	EventType string `json:"event_type" example:"run_status_changed"`
	Payload   string `json:"payload"`
}

// BroadcastEvent 广播事件给所有用户
// @Summary 广播事件
// @Description 向所有活跃连接广播SSE事件
// @Tags 事件管理
// @Accept json
// @Produce json
// @Param request body BroadcastEventRequest true "广播事件请求"
// @Success 200 {object} APIResponse
// @Router /events/broadcast [post]
func (c *EventController) BroadcastEvent(w http.ResponseWriter, r *http.Request) {
	var req BroadcastEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "请求参数解析失败", err))
		return
	}

	if req.EventType == "" {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "事件类型不能为空", nil))
		return
	}

	evt := &models.SSEEvent{
		EventType: req.EventType,
		Payload:   req.Payload,
		Sent:      true,
	}
	if err := c.eventService.BroadcastEvent(evt); err != nil {
		render.JSON(w, r, InternalErrorResponse("广播事件失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("广播事件成功", nil))
}

// GetConnections 查询SSE连接列表
// @Summary 查询SSE连接
// @Description 分页返回SSE连接登记，支持按用户名与活跃状态过滤
// @Tags 事件管理
// @Produce json
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Param user_name query string false "用户名"
// @Success 200 {object} PaginatedResponse
// @Router /events/connections [get]
func (c *EventController) GetConnections(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 || size > 200 {
		size = 20
	}
	userName := r.URL.Query().Get("user_name")

	var isActive *bool
	if v := r.URL.Query().Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			isActive = &b
		}
	}

	connections, total, err := c.eventService.GetSSEConnectionList(page, size, userName, "", isActive)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取SSE连接列表失败", err))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "获取SSE连接列表成功",
		Data:   connections,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetEventHistory 查询事件历史
// @Summary 查询事件历史
// @Description 分页返回已推送的SSE事件记录
// @Tags 事件管理
// @Produce json
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Param user_name query string false "用户名"
// @Param event_type query string false "事件类型"
// @Success 200 {object} PaginatedResponse
// @Router /events/history [get]
func (c *EventController) GetEventHistory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 || size > 200 {
		size = 20
	}

	events, total, err := c.eventService.GetEventHistoryList(
		page, size, r.URL.Query().Get("user_name"), r.URL.Query().Get("event_type"), nil, nil)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取事件历史失败", err))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "获取事件历史成功",
		Data:   events,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}
