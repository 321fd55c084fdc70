/*
 * @module api/controllers/profile_controller
 * @description 客户画像控制器，提供customer360_golden画像的查询接口
 * @architecture RESTful API架构 - 控制器层
 * @documentReference ai_docs/customer360_consolidation_design.md
 * @stateFlow HTTP请求 -> 画像查询 -> 响应返回
 * @rules 画像为只读查询接口，写入仅由整合作业完成
 * @dependencies customer360-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/consolidation/profile_sink.go
 */

package controllers

import (
	"net/http"
	"strconv"

	"customer360-service/service"
	"customer360-service/service/consolidation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ProfileController 客户画像控制器
type ProfileController struct {
	sink *consolidation.ProfileSink
}

// NewProfileController 创建客户画像控制器实例
func NewProfileController() *ProfileController {
	return &ProfileController{
		sink: service.GlobalProfileSink,
	}
}

// ListProfiles 分页查询客户画像
// @Summary 查询客户画像列表
// @Description 按CustomerID升序分页返回客户360画像
// @Tags 客户画像
// @Produce json
// @Param limit query int false "每页数量"
// @Param offset query int false "偏移量"
// @Success 200 {object} PaginatedResponse
// @Router /profiles [get]
func (c *ProfileController) ListProfiles(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	profiles, total, err := c.sink.List(limit, offset)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取客户画像失败", err))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "获取客户画像成功",
		Data:   profiles,
		Total:  total,
	})
}

// GetProfile 查询单个客户画像
// @Summary 查询客户画像
// @Description 按客户ID返回客户360画像
// @Tags 客户画像
// @Produce json
// @Param customer_id path string true "客户ID"
// @Success 200 {object} APIResponse
// @Router /profiles/{customer_id} [get]
func (c *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	if customerID == "" {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "客户ID不能为空", nil))
		return
	}

	profile, err := c.sink.Get(customerID)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("客户画像不存在", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取客户画像成功", profile))
}
