// Package response 提供统一的 API 响应格式
//
// 所有接口返回 {code, message, data, request_id}；code 为 0 表示成功，
// 其余为业务错误码或 HTTP 状态码。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeOK 成功响应的业务码
const CodeOK = 0

// requestIDKey 与 RequestID 中间件写入的上下文键一致
const requestIDKey = "request_id"

// Response API 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// PageData 分页数据结构
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: c.GetString(requestIDKey),
	})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

// SuccessWithMessage 成功响应（带消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, CodeOK, message, data)
}

// Created 资源创建成功，如新预订
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, CodeOK, "created", data)
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	write(c, http.StatusOK, CodeOK, "success", PageData{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Error 业务错误响应，HTTP 状态码由调用方决定
func Error(c *gin.Context, status, code int, message string) {
	write(c, status, code, message, nil)
}

// 以下快捷方法的业务码与 HTTP 状态码相同，message 为空时使用默认文案
var defaultMessages = map[int]string{
	http.StatusUnauthorized:        "请先登录",
	http.StatusForbidden:           "权限不足",
	http.StatusNotFound:            "资源不存在",
	http.StatusTooManyRequests:     "请求过于频繁",
	http.StatusInternalServerError: "服务器内部错误",
}

func abortWith(c *gin.Context, status int, message string) {
	if message == "" {
		message = defaultMessages[status]
	}
	write(c, status, status, message, nil)
}

// BadRequest 请求参数错误
func BadRequest(c *gin.Context, message string) {
	abortWith(c, http.StatusBadRequest, message)
}

// Unauthorized 未登录或令牌无效
func Unauthorized(c *gin.Context, message string) {
	abortWith(c, http.StatusUnauthorized, message)
}

// Forbidden 无权访问
func Forbidden(c *gin.Context, message string) {
	abortWith(c, http.StatusForbidden, message)
}

// NotFound 资源不存在
func NotFound(c *gin.Context, message string) {
	abortWith(c, http.StatusNotFound, message)
}

// InternalError 服务器内部错误
func InternalError(c *gin.Context, message string) {
	abortWith(c, http.StatusInternalServerError, message)
}

// TooManyRequests 触发限流
func TooManyRequests(c *gin.Context, message string) {
	abortWith(c, http.StatusTooManyRequests, message)
}
