// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，决定 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidParams
	KindInvalidRange
	KindInvalidStatus
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindAlreadyExists
	KindTooManyRequests
)

// String 返回类别名称
func (k Kind) String() string {
	switch k {
	case KindInvalidParams:
		return "InvalidParams"
	case KindInvalidRange:
		return "InvalidRange"
	case KindInvalidStatus:
		return "InvalidStatus"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindTooManyRequests:
		return "TooManyRequests"
	default:
		return "Internal"
	}
}

// HTTPStatus 返回类别对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidParams, KindInvalidRange, KindInvalidStatus:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindAlreadyExists:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 同错误码视为同一错误，使 errors.Is 可匹配 WithMessage/WithError 派生的副本
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewKind 创建指定类别的应用错误
func NewKind(kind Kind, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Kind:    e.Kind,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Kind:    e.Kind,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = NewKind(KindInternal, 1000, "未知错误")
	ErrInvalidParams   = NewKind(KindInvalidParams, 1001, "参数错误")
	ErrNotFound        = NewKind(KindNotFound, 1002, "资源不存在")
	ErrAlreadyExists   = NewKind(KindAlreadyExists, 1003, "资源已存在")
	ErrDatabaseError   = NewKind(KindInternal, 1004, "数据库错误")
	ErrCacheError      = NewKind(KindInternal, 1005, "缓存错误")
	ErrInternalError   = NewKind(KindInternal, 1006, "内部错误")
	ErrExternalService = NewKind(KindInternal, 1007, "外部服务错误")
	ErrRateLimitExceed = NewKind(KindTooManyRequests, 1008, "请求过于频繁")
	ErrLockTimeout     = NewKind(KindConflict, 1009, "资源繁忙，请稍后重试")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = NewKind(KindUnauthorized, 2000, "未登录")
	ErrTokenExpired     = NewKind(KindUnauthorized, 2001, "登录已过期")
	ErrTokenInvalid     = NewKind(KindUnauthorized, 2002, "无效的令牌")
	ErrTokenRefreshFail = NewKind(KindUnauthorized, 2003, "刷新令牌失败")
	ErrPermissionDenied = NewKind(KindForbidden, 2004, "权限不足")
	ErrAccountDisabled  = NewKind(KindForbidden, 2005, "账号已禁用")
	ErrPasswordError    = NewKind(KindUnauthorized, 2007, "账号或密码错误")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound  = NewKind(KindNotFound, 3000, "用户不存在")
	ErrEmailExists   = NewKind(KindAlreadyExists, 3001, "邮箱已被注册")
	ErrAdminNotFound = NewKind(KindNotFound, 3002, "管理员不存在")
	ErrUsernameTaken = NewKind(KindAlreadyExists, 3003, "用户名已存在")
)

// 房间错误码 (4000-4999)
var (
	ErrRoomNotFound          = NewKind(KindNotFound, 4000, "房间不存在")
	ErrRoomNumberExists      = NewKind(KindAlreadyExists, 4001, "房间号已存在")
	ErrRoomStatusInvalid     = NewKind(KindInvalidStatus, 4002, "无效的房间状态")
	ErrRoomHasActiveBookings = NewKind(KindConflict, 4003, "房间存在未完成的预订，无法删除")
	ErrStorageDisabled       = NewKind(KindInternal, 4004, "对象存储未启用")
)

// 预订错误码 (8000-8999)
var (
	ErrBookingNotFound     = NewKind(KindNotFound, 8000, "预订不存在")
	ErrInvalidStatus       = NewKind(KindInvalidStatus, 8001, "无效的预订状态")
	ErrBookingConflict     = NewKind(KindConflict, 8002, "该时段房间已被预订")
	ErrInvalidDateRange    = NewKind(KindInvalidRange, 8003, "入住日期必须早于离店日期")
	ErrRoomNotAvailable    = NewKind(KindConflict, 8004, "房间当前不可预订")
	ErrInvalidTransition   = NewKind(KindInvalidStatus, 8005, "不允许的状态变更")
	ErrArrivalNotAllowed   = NewKind(KindInvalidStatus, 8006, "预订未确认，无法登记到店")
	ErrInvalidArrival      = NewKind(KindInvalidStatus, 8007, "无效的到店状态")
	ErrBookingNotConfirmed = NewKind(KindForbidden, 8008, "仅已确认入住的用户可以评价")
)

// 评价错误码 (9000-9999)
var (
	ErrReviewExists        = NewKind(KindAlreadyExists, 9000, "您已评价过该房间")
	ErrReviewRatingInvalid = NewKind(KindInvalidParams, 9001, "评分必须在 1-5 之间")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// KindOf 返回错误类别，非应用错误视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
