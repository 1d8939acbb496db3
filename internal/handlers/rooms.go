package handlers

import (
	"github.com/gin-gonic/gin"

	"hospital-ops-server/internal/admissions"
	"hospital-ops-server/internal/models"
	"hospital-ops-server/internal/utils"
)

// RoomHandler exposes the room board and availability queries.
type RoomHandler struct {
	Rooms *admissions.RoomInventory
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(rooms *admissions.RoomInventory) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

// ListRooms returns every room with its live admission for the admin board.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.Rooms.List(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Rooms fetched successfully", rooms)
}

// ListAvailableRooms returns AVAILABLE rooms of the requested type.
func (h *RoomHandler) ListAvailableRooms(c *gin.Context) {
	roomType := models.RoomType(c.Query("type"))
	switch roomType {
	case models.RoomTypeGeneral, models.RoomTypeICU, models.RoomTypePrivate:
	default:
		utils.BadRequest(c, "Query parameter 'type' must be one of GENERAL, ICU, PRIVATE")
		return
	}

	rooms, err := h.Rooms.ListAvailableByType(c.Request.Context(), roomType)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Available rooms fetched successfully", rooms)
}

// SetRoomStatusRequest represents the request body for a manual status flip.
type SetRoomStatusRequest struct {
	Status models.RoomStatus `json:"status" binding:"required,oneof=AVAILABLE OCCUPIED"`
}

// SetRoomStatus flips a room's status unconditionally (maintenance override).
// Regular occupancy changes happen through admit/discharge, which keep the
// admission record and the room in step.
func (h *RoomHandler) SetRoomStatus(c *gin.Context) {
	var req SetRoomStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Rooms.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Room status updated successfully", nil)
}
