package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	adminService "github.com/dumeirei/hotel-booking-backend/internal/service/admin"
)

// DashboardHandler 仪表盘处理器
type DashboardHandler struct {
	dashboardService *adminService.DashboardService
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(dashboardSvc *adminService.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardSvc,
	}
}

// GetStats 获取运营统计
// @Summary 获取运营统计
// @Description 用户/房间/预订总数、各状态预订数、到店数、营收、入住率与当日入住
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.Stats}
// @Router /api/admin/dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context())
	handler.MustSucceed(c, err, stats)
}

// GetAnalytics 获取近 30 天趋势
// @Summary 获取近 30 天预订趋势与热门房型
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.Analytics}
// @Router /api/admin/dashboard/analytics [get]
func (h *DashboardHandler) GetAnalytics(c *gin.Context) {
	analytics, err := h.dashboardService.GetAnalytics(c.Request.Context())
	handler.MustSucceed(c, err, analytics)
}

// GetReport 获取区间报表
// @Summary 获取区间报表
// @Description 按预订创建日期统计，start_date 与 end_date 均含；缺省为最近 30 天
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=adminService.Report}
// @Router /api/admin/dashboard/reports [get]
func (h *DashboardHandler) GetReport(c *gin.Context) {
	start, ok := handler.ParseQueryDate(c, "start_date", "无效的开始日期")
	if !ok {
		return
	}
	end, ok := handler.ParseQueryDate(c, "end_date", "无效的结束日期")
	if !ok {
		return
	}

	report, err := h.dashboardService.GetReport(c.Request.Context(), start, end)
	handler.MustSucceed(c, err, report)
}
