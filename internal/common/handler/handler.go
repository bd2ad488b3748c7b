// Package handler 提供 API Handler 的通用辅助函数
// 统一错误响应、身份检查、参数解析与分页
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// HandleError 处理错误并发送响应
// err 为 nil 时返回 false；否则按错误类别写入对应 HTTP 状态码并返回 true，调用方应直接 return
//
// 使用示例:
//
//	result, err := service.DoSomething()
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	appErr := errors.GetAppError(err)
	if appErr.Kind == errors.KindInternal {
		logger.Error("request failed",
			logger.RequestID(middleware.GetRequestID(c)),
			logger.Path(c.Request.URL.Path),
			logger.Err(err),
		)
	}
	_ = c.Error(err)
	response.Error(c, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message)
	return true
}

// MustSucceed 有错误时返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustCreate 有错误时返回错误响应，否则返回 201
func MustCreate(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Created(c, data)
}

// MustSucceedWithMessage 带自定义成功消息
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage 分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ============================================================================
// 身份检查
// ============================================================================

// RequireUserID 获取当前登录身份的 ID，未登录时返回 401
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// RequireAdminID 获取当前操作员 ID，非操作员返回 401
func RequireAdminID(c *gin.Context) (int64, bool) {
	adminID := middleware.GetAdminID(c)
	if adminID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return adminID, true
}

// ============================================================================
// 参数解析
// ============================================================================

// ParseID 解析路径参数 "id"，失败时返回 400
//
// 使用示例:
//
//	id, ok := handler.ParseID(c, "预订")
//	if !ok {
//	    return
//	}
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为正整数 ID
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析可选的查询参数 ID，为空时返回 (0, true)
func ParseQueryID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseDate 解析 YYYY-MM-DD 日期，格式错误按日期区间错误 (8003) 响应
func ParseDate(c *gin.Context, raw, errorMsg string) (time.Time, bool) {
	t, err := utils.ParseDate(raw)
	if err != nil {
		HandleError(c, errors.ErrInvalidDateRange.WithMessage(errorMsg))
		return time.Time{}, false
	}
	return t, true
}

// ParseQueryDate 从查询参数解析日期 (YYYY-MM-DD)，为空时返回 (nil, true)
func ParseQueryDate(c *gin.Context, paramName, errorMsg string) (*time.Time, bool) {
	dateStr := c.Query(paramName)
	if dateStr == "" {
		return nil, true
	}
	t, ok := ParseDate(c, dateStr, errorMsg)
	if !ok {
		return nil, false
	}
	return &t, true
}

// ParseRequiredStayDates 解析必填的 check_in / check_out 查询参数
// 只校验格式，区间合法性由业务层判断
func ParseRequiredStayDates(c *gin.Context) (checkIn, checkOut time.Time, ok bool) {
	inStr, outStr := c.Query("check_in"), c.Query("check_out")
	if inStr == "" || outStr == "" {
		response.BadRequest(c, "请指定入住和离店日期")
		return time.Time{}, time.Time{}, false
	}

	if checkIn, ok = ParseDate(c, inStr, "无效的入住日期格式"); !ok {
		return time.Time{}, time.Time{}, false
	}
	if checkOut, ok = ParseDate(c, outStr, "无效的离店日期格式"); !ok {
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

// ParseRoomFilter 解析房间列表过滤参数 room_type / status / min_price / max_price
func ParseRoomFilter(c *gin.Context) (repository.RoomFilter, bool) {
	filter := repository.RoomFilter{
		RoomType: c.Query("room_type"),
		Status:   c.Query("status"),
	}
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			response.BadRequest(c, "无效的价格参数")
			return filter, false
		}
		*p.dst = v
	}
	return filter, true
}

// ============================================================================
// 分页处理
// ============================================================================

// BindPagination 读取 page 与 page_size 查询参数，非法值取默认
func BindPagination(c *gin.Context) utils.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return utils.NewPagination(page, pageSize)
}

// ============================================================================
// 组合辅助函数
// ============================================================================

// RequireUserAndParseID 检查登录并解析 ID 参数
func RequireUserAndParseID(c *gin.Context, resourceName string) (userID, resourceID int64, ok bool) {
	userID, ok = RequireUserID(c)
	if !ok {
		return 0, 0, false
	}
	resourceID, ok = ParseID(c, resourceName)
	if !ok {
		return 0, 0, false
	}
	return userID, resourceID, true
}

// RequireAdminAndParseID 检查操作员登录并解析 ID 参数
func RequireAdminAndParseID(c *gin.Context, resourceName string) (adminID, resourceID int64, ok bool) {
	adminID, ok = RequireAdminID(c)
	if !ok {
		return 0, 0, false
	}
	resourceID, ok = ParseID(c, resourceName)
	if !ok {
		return 0, 0, false
	}
	return adminID, resourceID, true
}
