package hotel

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
)

// RoomHandler 房间与评价处理器（住客侧）
type RoomHandler struct {
	roomService   *hotelService.RoomService
	reviewService *hotelService.ReviewService
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(roomSvc *hotelService.RoomService, reviewSvc *hotelService.ReviewService) *RoomHandler {
	return &RoomHandler{
		roomService:   roomSvc,
		reviewService: reviewSvc,
	}
}

// ListRooms 房间列表
// @Summary 房间列表
// @Tags 房间
// @Produce json
// @Param room_type query string false "房型"
// @Param status query string false "房间状态" Enums(Available, Occupied, Maintenance)
// @Param min_price query number false "最低价格"
// @Param max_price query number false "最高价格"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]hotelService.RoomInfo}}
// @Router /api/v1/rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	filter, ok := handler.ParseRoomFilter(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	rooms, total, err := h.roomService.ListRooms(c.Request.Context(), filter, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, rooms, total, p.Page, p.PageSize)
}

// GetRoom 房间详情
// @Summary 房间详情
// @Tags 房间
// @Produce json
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response{data=hotelService.RoomInfo}
// @Router /api/v1/rooms/{id} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	room, err := h.roomService.GetRoom(c.Request.Context(), roomID)
	handler.MustSucceed(c, err, room)
}

// SearchAvailable 查询指定日期可预订的房间
// @Summary 查询可预订房间
// @Tags 房间
// @Produce json
// @Param check_in query string true "入住日期 YYYY-MM-DD"
// @Param check_out query string true "离店日期 YYYY-MM-DD"
// @Param room_type query string false "房型"
// @Success 200 {object} response.Response{data=[]hotelService.RoomInfo}
// @Router /api/v1/rooms/available [get]
func (h *RoomHandler) SearchAvailable(c *gin.Context) {
	checkIn, checkOut, ok := handler.ParseRequiredStayDates(c)
	if !ok {
		return
	}

	rooms, err := h.roomService.SearchAvailable(c.Request.Context(), checkIn, checkOut, c.Query("room_type"))
	handler.MustSucceed(c, err, rooms)
}

// CheckAvailability 查询单个房间在指定日期是否可订
// @Summary 查询房间可用性
// @Tags 房间
// @Produce json
// @Param id path int true "房间ID"
// @Param check_in query string true "入住日期 YYYY-MM-DD"
// @Param check_out query string true "离店日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=hotelService.Availability}
// @Router /api/v1/rooms/{id}/availability [get]
func (h *RoomHandler) CheckAvailability(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}
	checkIn, checkOut, ok := handler.ParseRequiredStayDates(c)
	if !ok {
		return
	}

	availability, err := h.roomService.CheckAvailability(c.Request.Context(), roomID, checkIn, checkOut)
	handler.MustSucceed(c, err, availability)
}

// ListReviews 房间评价列表
// @Summary 房间评价列表
// @Tags 评价
// @Produce json
// @Param id path int true "房间ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=hotelService.ReviewList}
// @Router /api/v1/rooms/{id}/reviews [get]
func (h *RoomHandler) ListReviews(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	list, err := h.reviewService.ListReviews(c.Request.Context(), roomID, p.Page, p.PageSize)
	handler.MustSucceed(c, err, list)
}

// CreateReview 发表评价
// @Summary 发表房间评价
// @Description 仅限在该房间有已确认预订的住客，每位住客每个房间一条
// @Tags 评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param request body hotelService.CreateReviewRequest true "请求参数"
// @Success 201 {object} response.Response{data=hotelService.ReviewInfo}
// @Router /api/v1/rooms/{id}/reviews [post]
func (h *RoomHandler) CreateReview(c *gin.Context) {
	userID, roomID, ok := handler.RequireUserAndParseID(c, "房间")
	if !ok {
		return
	}

	var req hotelService.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, roomID, &req)
	handler.MustCreate(c, err, review)
}
