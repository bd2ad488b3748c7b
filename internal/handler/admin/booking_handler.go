package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	"github.com/dumeirei/hotel-booking-backend/internal/realtime"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
)

// BookingHandler 预订管理处理器
type BookingHandler struct {
	bookingService *hotelService.BookingService
	hub            *realtime.Hub
}

// NewBookingHandler 创建预订管理处理器，hub 为空时不提供实时推送
func NewBookingHandler(bookingSvc *hotelService.BookingService, hub *realtime.Hub) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingSvc,
		hub:            hub,
	}
}

// ListBookings 预订列表
// @Summary 预订列表（管理端）
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param booking_status query string false "预订状态" Enums(Pending, Confirmed, Cancelled)
// @Param arrival_status query string false "到店状态" Enums(Not Arrived, Arrived)
// @Param user_id query int false "用户ID"
// @Param room_id query int false "房间ID"
// @Param booking_no query string false "预订号"
// @Param check_in_from query string false "入住日期起 YYYY-MM-DD"
// @Param check_in_to query string false "入住日期止 YYYY-MM-DD"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]hotelService.BookingInfo}}
// @Router /api/admin/bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	filter := repository.BookingFilter{
		BookingStatus: c.Query("booking_status"),
		ArrivalStatus: c.Query("arrival_status"),
		BookingNo:     c.Query("booking_no"),
	}
	if filter.UserID, ok = handler.ParseQueryID(c, "user_id", "用户"); !ok {
		return
	}
	if filter.RoomID, ok = handler.ParseQueryID(c, "room_id", "房间"); !ok {
		return
	}
	if filter.CheckInFrom, ok = handler.ParseQueryDate(c, "check_in_from", "无效的开始日期"); !ok {
		return
	}
	if filter.CheckInTo, ok = handler.ParseQueryDate(c, "check_in_to", "无效的结束日期"); !ok {
		return
	}
	p := handler.BindPagination(c)

	list, total, err := h.bookingService.ListBookings(c.Request.Context(), hotelService.OperatorRequester(adminID), filter, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetBooking 预订详情
// @Summary 预订详情（管理端）
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=hotelService.BookingInfo}
// @Router /api/admin/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID, hotelService.OperatorRequester(adminID))
	handler.MustSucceed(c, err, booking)
}

// UpdateStatus 更新预订状态
// @Summary 更新预订状态
// @Description 重新激活已取消的预订时会再次检查日期冲突
// @Tags 管理-预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body hotelService.UpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/admin/bookings/{id}/status [put]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req hotelService.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.bookingService.UpdateStatus(c.Request.Context(), bookingID, req.Status, hotelService.OperatorRequester(adminID))
	handler.MustSucceedWithMessage(c, err, "预订状态已更新", nil)
}

// UpdateArrival 更新到店状态
// @Summary 更新到店状态
// @Tags 管理-预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body hotelService.UpdateArrivalRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/admin/bookings/{id}/arrival [put]
func (h *BookingHandler) UpdateArrival(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req hotelService.UpdateArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.bookingService.UpdateArrivalStatus(c.Request.Context(), bookingID, req.ArrivalStatus, hotelService.OperatorRequester(adminID))
	handler.MustSucceedWithMessage(c, err, "到店状态已更新", nil)
}

// CheckInByVoucher 扫描入住凭证登记到店
// @Summary 扫码登记到店
// @Tags 管理-预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body hotelService.CheckInRequest true "请求参数"
// @Success 200 {object} response.Response{data=hotelService.BookingInfo}
// @Router /api/admin/bookings/check-in [post]
func (h *BookingHandler) CheckInByVoucher(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req hotelService.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	info, err := h.bookingService.CheckInByVoucher(c.Request.Context(), req.Voucher, hotelService.OperatorRequester(adminID))
	handler.MustSucceed(c, err, info)
}

// CancelBooking 取消预订
// @Summary 取消预订（管理端）
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response
// @Router /api/admin/bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, hotelService.OperatorRequester(adminID))
	handler.MustSucceedWithMessage(c, err, "预订已取消", nil)
}

// Stream 预订事件实时推送
// @Summary 预订事件实时推送（WebSocket）
// @Tags 管理-预订
// @Security Bearer
// @Router /api/admin/bookings/stream [get]
func (h *BookingHandler) Stream(c *gin.Context) {
	if _, ok := handler.RequireAdminID(c); !ok {
		return
	}
	if h.hub == nil {
		response.Error(c, http.StatusServiceUnavailable, errors.ErrExternalService.Code, "实时推送未启用")
		return
	}
	// 升级失败时 upgrader 已写出响应
	_ = h.hub.ServeWS(c.Writer, c.Request)
}
