package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 构造成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
	}
}

// InternalErrorResponse 构造内部错误响应
func InternalErrorResponse(msg string, err error) *APIResponse {
	detail := msg
	if err != nil {
		detail = msg + ": " + err.Error()
	}
	return &APIResponse{
		Status: http.StatusInternalServerError,
		Msg:    detail,
	}
}

// errorRenderer 带HTTP状态码的错误响应
type errorRenderer struct {
	HTTPStatusCode int    `json:"-"`
	Status         int    `json:"status"`
	Msg            string `json:"msg"`
}

// Render 实现render.Renderer接口
func (e *errorRenderer) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrorResponse 构造带状态码的错误响应
func ErrorResponse(statusCode int, msg string, err error) render.Renderer {
	detail := msg
	if err != nil {
		detail = msg + ": " + err.Error()
	}
	return &errorRenderer{
		HTTPStatusCode: statusCode,
		Status:         statusCode,
		Msg:            detail,
	}
}

// toJSON 将任意值序列化为JSON字符串，用于SSE推送
func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
