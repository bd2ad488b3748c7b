// Package middleware 提供依赖公共组件的 HTTP 中间件
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/hotel-booking-backend/internal/common/logger"
)

// OperationLogger 操作员写操作审计日志
type OperationLogger struct {
	log       *zap.Logger
	apiPrefix string
}

// NewOperationLogger 创建审计日志中间件，apiPrefix 为路由组前缀（如 /api/v1）
func NewOperationLogger(log *zap.Logger, apiPrefix string) *OperationLogger {
	if log == nil {
		log = logger.GetLogger()
	}
	return &OperationLogger{
		log:       log.Named("audit"),
		apiPrefix: strings.TrimSuffix(apiPrefix, "/"),
	}
}

// OperationConfig 操作配置
type OperationConfig struct {
	Module     string
	Action     string
	TargetType string
}

var moduleActionMap = map[string]OperationConfig{
	"POST /admin/auth/login":           {Module: "auth", Action: "login"},
	"PUT /admin/auth/password":         {Module: "auth", Action: "change_password"},
	"POST /admin/admins":               {Module: "admin", Action: "create", TargetType: "admin"},
	"PUT /admin/admins/:id/status":     {Module: "admin", Action: "update_status", TargetType: "admin"},
	"PUT /admin/users/:id/status":      {Module: "user", Action: "update_status", TargetType: "user"},
	"POST /admin/rooms":                {Module: "room", Action: "create", TargetType: "room"},
	"PUT /admin/rooms/:id":             {Module: "room", Action: "update", TargetType: "room"},
	"DELETE /admin/rooms/:id":          {Module: "room", Action: "delete", TargetType: "room"},
	"PUT /admin/rooms/:id/status":      {Module: "room", Action: "update_status", TargetType: "room"},
	"POST /admin/rooms/:id/photo":      {Module: "room", Action: "upload_photo", TargetType: "room"},
	"PUT /admin/bookings/:id/status":   {Module: "booking", Action: "update_status", TargetType: "booking"},
	"PUT /admin/bookings/:id/arrival":  {Module: "booking", Action: "update_arrival", TargetType: "booking"},
	"POST /admin/bookings/:id/cancel":  {Module: "booking", Action: "cancel", TargetType: "booking"},
	"POST /admin/bookings/check-in":    {Module: "booking", Action: "check_in"},
}

// Log 记录写操作，只处理 POST/PUT/PATCH/DELETE
func (l *OperationLogger) Log() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWriteMethod(c.Request.Method) {
			c.Next()
			return
		}

		requestBody := readBody(c)
		c.Next()
		l.logOperation(c, requestBody, l.resolve(c))
	}
}

// LogWithConfig 使用指定的模块与操作记录
func (l *OperationLogger) LogWithConfig(config OperationConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestBody := readBody(c)
		c.Next()
		l.logOperation(c, requestBody, config)
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func readBody(c *gin.Context) []byte {
	if c.Request.Body == nil {
		return nil
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	return body
}

func (l *OperationLogger) resolve(c *gin.Context) OperationConfig {
	path := strings.TrimPrefix(c.FullPath(), l.apiPrefix)
	if config, ok := moduleActionMap[c.Request.Method+" "+path]; ok {
		return config
	}
	return defaultConfig(c.Request.Method, path)
}

// defaultConfig 从路径和方法推断模块与操作
func defaultConfig(method, path string) OperationConfig {
	module := "unknown"
	switch {
	case strings.Contains(path, "/bookings"):
		module = "booking"
	case strings.Contains(path, "/rooms"):
		module = "room"
	case strings.Contains(path, "/admins"):
		module = "admin"
	case strings.Contains(path, "/auth"):
		module = "auth"
	}

	action := "unknown"
	switch method {
	case http.MethodPost:
		action = "create"
	case http.MethodPut, http.MethodPatch:
		action = "update"
	case http.MethodDelete:
		action = "delete"
	}

	return OperationConfig{Module: module, Action: action}
}

func (l *OperationLogger) logOperation(c *gin.Context, requestBody []byte, config OperationConfig) {
	adminID, ok := getAdminID(c)
	if !ok && config.Module != "auth" {
		return
	}

	fields := []zap.Field{
		logger.AdminID(adminID),
		logger.Module(config.Module),
		logger.Action(config.Action),
		logger.Method(c.Request.Method),
		logger.Path(c.Request.URL.Path),
		logger.StatusCode(c.Writer.Status()),
		logger.IP(c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()),
	}

	if config.TargetType != "" {
		fields = append(fields, zap.String("target_type", config.TargetType))
		if targetID := getTargetID(c); targetID != nil {
			fields = append(fields, zap.Int64("target_id", *targetID))
		}
	}

	if len(requestBody) > 0 {
		var data interface{}
		if err := json.Unmarshal(requestBody, &data); err == nil {
			fields = append(fields, zap.Any("payload", filterSensitiveData(data)))
		}
	}

	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}

	if c.Writer.Status() >= http.StatusBadRequest {
		l.log.Warn("operation rejected", fields...)
		return
	}
	l.log.Info("operation", fields...)
}

// getAdminID 读取 AdminAuth 写入的身份
func getAdminID(c *gin.Context) (int64, bool) {
	if c.GetString("user_type") != "admin" {
		return 0, false
	}
	id := c.GetInt64("user_id")
	return id, id > 0
}

// getTargetID 从路径参数获取目标 ID
func getTargetID(c *gin.Context) *int64 {
	idStr := c.Param("id")
	if idStr == "" {
		return nil
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

var sensitiveFields = []string{
	"password", "token", "secret", "api_key",
}

// filterSensitiveData 屏蔽敏感字段
func filterSensitiveData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				result[key] = "***"
			} else {
				result[key] = filterSensitiveData(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = filterSensitiveData(item)
		}
		return result
	default:
		return data
	}
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, sf := range sensitiveFields {
		if strings.Contains(lower, sf) {
			return true
		}
	}
	return false
}
