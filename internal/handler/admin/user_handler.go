package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	adminService "github.com/dumeirei/hotel-booking-backend/internal/service/admin"
)

// UserHandler 住客账号管理
type UserHandler struct {
	userService *adminService.UserService
}

// NewUserHandler 创建住客管理处理器
func NewUserHandler(userSvc *adminService.UserService) *UserHandler {
	return &UserHandler{userService: userSvc}
}

// ListUsers 住客列表
// @Summary 住客列表
// @Tags 管理-住客
// @Produce json
// @Security Bearer
// @Param status query int false "状态" Enums(0, 1)
// @Param keyword query string false "姓名、邮箱或手机号"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]adminService.GuestInfo}}
// @Router /api/admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req adminService.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	p := handler.BindPagination(c)

	list, total, err := h.userService.ListUsers(c.Request.Context(), &req, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetUser 住客详情
// @Summary 住客详情
// @Tags 管理-住客
// @Produce json
// @Security Bearer
// @Param id path int true "住客ID"
// @Success 200 {object} response.Response{data=adminService.GuestInfo}
// @Router /api/admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := handler.ParseID(c, "住客")
	if !ok {
		return
	}

	info, err := h.userService.GetUser(c.Request.Context(), userID)
	handler.MustSucceed(c, err, info)
}

// UpdateUserStatus 启用或禁用住客
// @Summary 启用或禁用住客
// @Description 禁用后不能登录或刷新令牌
// @Tags 管理-住客
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "住客ID"
// @Param request body adminService.UpdateUserStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=adminService.GuestInfo}
// @Router /api/admin/users/{id}/status [put]
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	adminID, userID, ok := handler.RequireAdminAndParseID(c, "住客")
	if !ok {
		return
	}

	var req adminService.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	info, err := h.userService.UpdateUserStatus(c.Request.Context(), adminID, userID, *req.Status)
	handler.MustSucceed(c, err, info)
}

// RegisterRoutes 注册住客管理路由，需挂在操作员认证之后
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id/status", h.UpdateUserStatus)
	}
}
