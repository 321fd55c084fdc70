/*
 * @module api/controllers/quality_controller
 * @description 数据质量控制器，提供质量得分查询与人工对账入口
 * @architecture RESTful API架构 - 控制器层
 * @documentReference ai_docs/customer360_ingest_design.md
 * @stateFlow HTTP请求 -> 计数器查询/分区重扫 -> 响应返回
 * @rules 对账接口为同步操作，按数据源逐个重建计数器
 * @dependencies customer360-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/validation/quality_aggregator.go
 */

package controllers

import (
	"net/http"

	"customer360-service/service"
	"customer360-service/service/models"
	"customer360-service/service/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// QualityController 数据质量控制器
type QualityController struct {
	aggregator *validation.QualityAggregator
}

// NewQualityController 创建数据质量控制器实例
func NewQualityController() *QualityController {
	return &QualityController{
		aggregator: service.GlobalQualityAggregator,
	}
}

// GetScores 查询所有数据源的质量得分
// @Summary 查询质量得分
// @Description 返回所有数据源的累计通过/拒收计数与质量得分
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse
// @Router /quality/scores [get]
func (c *QualityController) GetScores(w http.ResponseWriter, r *http.Request) {
	scores, err := c.aggregator.Scores()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取质量得分失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取质量得分成功", scores))
}

// GetCorpusScore 查询全语料合并质量得分
// @Summary 查询全语料质量得分
// @Description 合并所有数据源的计数后返回整体质量得分
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse
// @Router /quality/score [get]
func (c *QualityController) GetCorpusScore(w http.ResponseWriter, r *http.Request) {
	scores, err := c.aggregator.Scores()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取质量得分失败", err))
		return
	}

	var accepted, rejected int64
	for _, s := range scores {
		accepted += s.Accepted
		rejected += s.Rejected
	}
	render.JSON(w, r, SuccessResponse("获取质量得分成功", models.ComputeQualityScore(accepted, rejected)))
}

// RescanAll 人工触发所有数据源的全量对账
// @Summary 触发全量质量对账
// @Description 逐个重扫计数器中登记过的每个数据源
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse
// @Router /quality/rescan [post]
func (c *QualityController) RescanAll(w http.ResponseWriter, r *http.Request) {
	scores, err := c.aggregator.Scores()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取数据源清单失败", err))
		return
	}

	rebuilt := make(map[string]models.QualityScore, len(scores))
	for sourceKey := range scores {
		score, err := c.aggregator.Rescan(r.Context(), sourceKey)
		if err != nil {
			render.JSON(w, r, InternalErrorResponse("质量对账失败", err))
			return
		}
		rebuilt[sourceKey] = score
	}
	render.JSON(w, r, SuccessResponse("质量对账完成", rebuilt))
}

// GetScore 查询指定数据源的质量得分
// @Summary 查询单源质量得分
// @Description 返回指定数据源的累计计数与质量得分
// @Tags 数据质量
// @Produce json
// @Param source path string true "数据源标识"
// @Success 200 {object} APIResponse
// @Router /quality/scores/{source} [get]
func (c *QualityController) GetScore(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source")
	if sourceKey == "" {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "数据源标识不能为空", nil))
		return
	}

	score, err := c.aggregator.Score(sourceKey)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取质量得分失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取质量得分成功", score))
}

// Rescan 人工触发指定数据源的全量对账
// @Summary 触发质量对账
// @Description 全量重扫指定数据源的分区前缀，以实际记录数重建计数器
// @Tags 数据质量
// @Produce json
// @Param source path string true "数据源标识"
// @Success 200 {object} APIResponse
// @Router /quality/rescan/{source} [post]
func (c *QualityController) Rescan(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source")
	if sourceKey == "" {
		render.Render(w, r, ErrorResponse(http.StatusBadRequest, "数据源标识不能为空", nil))
		return
	}

	score, err := c.aggregator.Rescan(r.Context(), sourceKey)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("质量对账失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("质量对账完成", score))
}
