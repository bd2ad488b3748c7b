// Package hotel 提供住客侧房间、评价与预订的 HTTP Handler
package hotel

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
)

// BookingHandler 预订处理器
type BookingHandler struct {
	bookingService *hotelService.BookingService
}

// NewBookingHandler 创建预订处理器
func NewBookingHandler(bookingSvc *hotelService.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingSvc,
	}
}

// CreateBooking 创建预订
// @Summary 创建预订
// @Description 入住日期当晚计入，离店日期当晚不计入；同一房间的有效预订区间不可重叠
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body hotelService.CreateBookingRequest true "请求参数"
// @Success 201 {object} response.Response{data=hotelService.BookingInfo}
// @Failure 409 {object} response.Response "日期冲突或房间不可订"
// @Router /api/v1/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req hotelService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	checkIn, ok := handler.ParseDate(c, req.CheckIn, "无效的入住日期格式")
	if !ok {
		return
	}
	checkOut, ok := handler.ParseDate(c, req.CheckOut, "无效的离店日期格式")
	if !ok {
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), userID, req.RoomID, checkIn, checkOut)
	handler.MustCreate(c, err, booking)
}

// GetBooking 获取预订详情
// @Summary 获取预订详情
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=hotelService.BookingInfo}
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID, hotelService.UserRequester(userID))
	handler.MustSucceed(c, err, booking)
}

// ListMyBookings 获取我的预订列表
// @Summary 获取我的预订列表
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param status query string false "预订状态" Enums(Pending, Confirmed, Cancelled)
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]hotelService.BookingInfo}}
// @Router /api/v1/bookings [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	bookings, total, err := h.bookingService.ListUserBookings(c.Request.Context(), userID, c.Query("status"), p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, bookings, total, p.Page, p.PageSize)
}

// CancelBooking 取消预订
// @Summary 取消预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, hotelService.UserRequester(userID))
	handler.MustSucceedWithMessage(c, err, "预订已取消", nil)
}

// GetVoucherQRCode 获取预订凭证二维码
// @Summary 获取预订凭证二维码
// @Tags 预订
// @Produce png
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {file} binary
// @Router /api/v1/bookings/{id}/qrcode [get]
func (h *BookingHandler) GetVoucherQRCode(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	png, err := h.bookingService.VoucherQRCode(c.Request.Context(), bookingID, hotelService.UserRequester(userID))
	if handler.HandleError(c, err) {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
