package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/service"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/response"
)

// RoomHandler room endpoints, including the booking pre-check.
type RoomHandler struct {
	roomSvc    service.RoomService
	defenseSvc service.DefenseService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(roomSvc service.RoomService, defenseSvc service.DefenseService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc, defenseSvc: defenseSvc}
}

// ListRooms GET /api/v1/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var req dto.RoomListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	rooms, err := h.roomSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": rooms})
}

// GetRoom GET /api/v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// CreateRoom POST /api/v1/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.Created(c, room)
}

// UpdateRoom PUT /api/v1/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// DeleteRoom DELETE /api/v1/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.roomSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, nil)
}

// Availability GET /api/v1/rooms/:id/availability
// A busy room is a normal answer (200, available=false), not an error.
func (h *RoomHandler) Availability(c *gin.Context) {
	var req dto.RoomAvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.defenseSvc.CheckRoomAvailability(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 15001, "room not found")
	case errors.Is(err, service.ErrRoomNameExists):
		response.FieldError(c, http.StatusConflict, 15002, "name", err.Error())
	case errors.Is(err, service.ErrRoomInUse):
		response.Conflict(c, 15003, err.Error())
	case errors.Is(err, service.ErrRoomForbidden):
		response.Forbidden(c, 15004, err.Error())
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.FieldError(c, http.StatusBadRequest, 15005, "department_id", err.Error())
	default:
		response.InternalError(c)
	}
}
