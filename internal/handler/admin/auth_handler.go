// Package admin 提供后台操作员使用的 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	adminService "github.com/dumeirei/hotel-booking-backend/internal/service/admin"
)

// AuthHandler 管理员认证处理器
type AuthHandler struct {
	adminAuthService *adminService.AdminAuthService
}

// NewAuthHandler 创建管理员认证处理器
func NewAuthHandler(adminAuthSvc *adminService.AdminAuthService) *AuthHandler {
	return &AuthHandler{
		adminAuthService: adminAuthSvc,
	}
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags 管理员认证
// @Accept json
// @Produce json
// @Param request body adminService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=adminService.LoginResponse}
// @Router /api/admin/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req adminService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	req.IP = c.ClientIP()

	result, err := h.adminAuthService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新 Token
// @Summary 刷新管理员 Token
// @Tags 管理员认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response{data=jwt.TokenPair}
// @Router /api/admin/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tokenPair, err := h.adminAuthService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, tokenPair)
}

// GetCurrentAdmin 获取当前管理员信息
// @Summary 获取当前管理员信息
// @Tags 管理员认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.AdminInfo}
// @Router /api/admin/auth/me [get]
func (h *AuthHandler) GetCurrentAdmin(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	info, err := h.adminAuthService.GetProfile(c.Request.Context(), adminID)
	handler.MustSucceed(c, err, info)
}

// ChangePassword 修改密码
// @Summary 修改管理员密码
// @Tags 管理员认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.ChangePasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/admin/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req adminService.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.adminAuthService.ChangePassword(c.Request.Context(), adminID, &req)
	handler.MustSucceed(c, err, nil)
}

// Logout 退出登录
// @Summary 管理员退出登录
// @Tags 管理员认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/admin/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// 令牌随过期自然失效
	response.Success(c, nil)
}

// CreateAdmin 创建操作员
// @Summary 创建操作员
// @Description 仅超级管理员可用
// @Tags 管理-账号
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.CreateAdminRequest true "请求参数"
// @Success 201 {object} response.Response{data=adminService.AdminInfo}
// @Router /api/admin/admins [post]
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}

	var req adminService.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	info, err := h.adminAuthService.CreateAdmin(c.Request.Context(), middleware.GetRole(c), &req)
	handler.MustCreate(c, err, info)
}

// ListAdmins 操作员列表
// @Summary 操作员列表
// @Tags 管理-账号
// @Produce json
// @Security Bearer
// @Param role query string false "角色" Enums(admin, super_admin)
// @Param status query int false "状态" Enums(0, 1)
// @Param keyword query string false "用户名或显示名"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]adminService.AdminInfo}}
// @Router /api/admin/admins [get]
func (h *AuthHandler) ListAdmins(c *gin.Context) {
	var req adminService.ListAdminsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	p := handler.BindPagination(c)
	list, total, err := h.adminAuthService.ListAdmins(c.Request.Context(), &req, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// UpdateAdminStatus 启用或禁用操作员
// @Summary 启用或禁用操作员
// @Tags 管理-账号
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "操作员ID"
// @Param request body adminService.UpdateAdminStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=adminService.AdminInfo}
// @Router /api/admin/admins/{id}/status [put]
func (h *AuthHandler) UpdateAdminStatus(c *gin.Context) {
	operatorID, targetID, ok := handler.RequireAdminAndParseID(c, "操作员")
	if !ok {
		return
	}

	var req adminService.UpdateAdminStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	info, err := h.adminAuthService.UpdateAdminStatus(c.Request.Context(), operatorID, middleware.GetRole(c), targetID, *req.Status)
	handler.MustSucceed(c, err, info)
}

// RegisterRoutes 注册公开路由
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
	}
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *AuthHandler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/me", h.GetCurrentAdmin)
		auth.PUT("/password", h.ChangePassword)
		auth.POST("/logout", h.Logout)
	}

	admins := r.Group("/admins", middleware.RequireSuperAdmin())
	{
		admins.GET("", h.ListAdmins)
		admins.POST("", h.CreateAdmin)
		admins.PUT("/:id/status", h.UpdateAdminStatus)
	}
}
