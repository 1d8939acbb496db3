package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"hospital-ops-server/internal/scheduling"
	"hospital-ops-server/internal/utils"
)

// dateLayout is the wire format for calendar dates; time-of-day is assigned
// by the slot allocator, never by the caller.
const dateLayout = "2006-01-02"

// AppointmentHandler handles booking, tracking and reschedule requests.
type AppointmentHandler struct {
	Scheduling *scheduling.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(svc *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{Scheduling: svc}
}

// BookAppointmentRequest represents the request body for booking an appointment.
type BookAppointmentRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	DoctorID string `json:"doctorId" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// BookAppointment handles a public booking submission. The patient picks a
// doctor and a day; the slot allocator assigns the earliest free time.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	result, err := h.Scheduling.Book(c.Request.Context(), scheduling.BookRequest{
		PatientName:  req.Name,
		PatientPhone: req.Phone,
		DoctorID:     req.DoctorID,
		Date:         date,
		Reason:       req.Reason,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Created(c, "Appointment booked successfully!", gin.H{
		"appointmentId": result.AppointmentID,
		"bookingToken":  result.Token,
		"date":          result.Time,
		"time":          result.DisplayTime,
	})
}

// TrackAppointment handles the unauthenticated token lookup.
func (h *AppointmentHandler) TrackAppointment(c *gin.Context) {
	tracked, err := h.Scheduling.Lookup(c.Request.Context(), c.Param("token"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", tracked)
}

// RescheduleAppointmentRequest represents the request body for moving an
// appointment to a new doctor and/or date.
type RescheduleAppointmentRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

// RescheduleAppointment re-runs slot allocation for the new doctor/date and
// moves the appointment in place; the booking token stays valid.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	slot, err := h.Scheduling.Reschedule(c.Request.Context(), c.Param("token"), req.DoctorID, date)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, "Updated! New time: "+slot.Format("15:04"), gin.H{
		"date": slot,
		"time": slot.Format("15:04"),
	})
}

// UpdateNotesRequest represents the request body for a notes update.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// UpdateAppointmentNotes handles a doctor's free-text notes update.
func (h *AppointmentHandler) UpdateAppointmentNotes(c *gin.Context) {
	var req UpdateNotesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Scheduling.UpdateNotes(c.Request.Context(), c.Param("id"), req.Notes); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Notes updated successfully", nil)
}
