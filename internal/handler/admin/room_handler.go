package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-booking-backend/internal/common/handler"
	"github.com/dumeirei/hotel-booking-backend/internal/common/response"
	hotelService "github.com/dumeirei/hotel-booking-backend/internal/service/hotel"
)

// RoomHandler 房间管理处理器
type RoomHandler struct {
	roomService *hotelService.RoomService
}

// NewRoomHandler 创建房间管理处理器
func NewRoomHandler(roomSvc *hotelService.RoomService) *RoomHandler {
	return &RoomHandler{
		roomService: roomSvc,
	}
}

// ListRooms 房间列表
// @Summary 房间列表（管理端）
// @Tags 管理-房间
// @Produce json
// @Security Bearer
// @Param room_type query string false "房型"
// @Param status query string false "房间状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]hotelService.RoomInfo}}
// @Router /api/admin/rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	filter, ok := handler.ParseRoomFilter(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	rooms, total, err := h.roomService.ListRooms(c.Request.Context(), filter, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, rooms, total, p.Page, p.PageSize)
}

// CreateRoom 创建房间
// @Summary 创建房间
// @Tags 管理-房间
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body hotelService.CreateRoomRequest true "请求参数"
// @Success 201 {object} response.Response{data=hotelService.RoomInfo}
// @Router /api/admin/rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req hotelService.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), &req)
	handler.MustCreate(c, err, room)
}

// UpdateRoom 更新房间
// @Summary 更新房间
// @Tags 管理-房间
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param request body hotelService.UpdateRoomRequest true "请求参数"
// @Success 200 {object} response.Response{data=hotelService.RoomInfo}
// @Router /api/admin/rooms/{id} [put]
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	var req hotelService.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	room, err := h.roomService.UpdateRoom(c.Request.Context(), roomID, &req)
	handler.MustSucceed(c, err, room)
}

// UpdateRoomStatus 更新房间状态
// @Summary 更新房间状态
// @Tags 管理-房间
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param request body hotelService.UpdateRoomStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=hotelService.RoomInfo}
// @Router /api/admin/rooms/{id}/status [put]
func (h *RoomHandler) UpdateRoomStatus(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	var req hotelService.UpdateRoomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	room, err := h.roomService.UpdateRoomStatus(c.Request.Context(), roomID, req.Status)
	handler.MustSucceed(c, err, room)
}

// DeleteRoom 删除房间
// @Summary 删除房间
// @Description 存在未取消的预订时拒绝删除
// @Tags 管理-房间
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response "房间存在有效预订"
// @Router /api/admin/rooms/{id} [delete]
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	err := h.roomService.DeleteRoom(c.Request.Context(), roomID)
	handler.MustSucceedWithMessage(c, err, "房间已删除", nil)
}

// UploadPhoto 上传房间照片
// @Summary 上传房间照片
// @Tags 管理-房间
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param file formData file true "图片文件"
// @Success 200 {object} response.Response{data=hotelService.RoomInfo}
// @Router /api/admin/rooms/{id}/photo [post]
func (h *RoomHandler) UploadPhoto(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "请选择要上传的文件")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "无法读取上传文件")
		return
	}
	defer src.Close()

	room, err := h.roomService.UploadPhoto(c.Request.Context(), roomID, file.Filename, file.Size, src)
	handler.MustSucceed(c, err, room)
}
