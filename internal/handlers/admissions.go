package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-ops-server/internal/admissions"
	"hospital-ops-server/internal/middleware"
	"hospital-ops-server/internal/models"
	"hospital-ops-server/internal/utils"
)

// AdmissionHandler handles admit/discharge requests from the clinician portal.
type AdmissionHandler struct {
	DB         *gorm.DB
	Admissions *admissions.Service
}

// NewAdmissionHandler creates a new AdmissionHandler.
func NewAdmissionHandler(db *gorm.DB, svc *admissions.Service) *AdmissionHandler {
	return &AdmissionHandler{DB: db, Admissions: svc}
}

// AdmitPatientRequest represents the request body for admitting a patient.
type AdmitPatientRequest struct {
	PatientID  string `json:"patientId" binding:"required"`
	RoomNumber string `json:"roomNumber" binding:"required"`
	Floor      string `json:"floor"`
	Diagnosis  string `json:"diagnosis" binding:"required"`
	Notes      string `json:"notes"`
	DoctorID   string `json:"doctorId"`
}

// AdmitPatient handles admitting a patient into a room. The acting doctor is
// taken from the request body, falling back to the authenticated user's
// doctor profile.
func (h *AdmissionHandler) AdmitPatient(c *gin.Context) {
	var req AdmitPatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, ok := h.resolveDoctorID(c, req.DoctorID)
	if !ok {
		return
	}

	admission, err := h.Admissions.Admit(c.Request.Context(), admissions.AdmitRequest{
		PatientID:  req.PatientID,
		DoctorID:   doctorID,
		RoomNumber: req.RoomNumber,
		Floor:      req.Floor,
		Diagnosis:  req.Diagnosis,
		Notes:      req.Notes,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, "Patient admitted successfully", admission)
}

// DischargePatient handles closing an admission and releasing its room.
func (h *AdmissionHandler) DischargePatient(c *gin.Context) {
	if err := h.Admissions.Discharge(c.Request.Context(), c.Param("id")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Patient discharged successfully", nil)
}

// UpdateAdmissionNotes handles a free-text notes update on a stay.
func (h *AdmissionHandler) UpdateAdmissionNotes(c *gin.Context) {
	var req UpdateNotesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.Admissions.UpdateNotes(c.Request.Context(), c.Param("id"), req.Notes); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Notes updated successfully", nil)
}

// ListAdmitted returns the doctor's current inpatients, newest first.
func (h *AdmissionHandler) ListAdmitted(c *gin.Context) {
	doctorID, ok := h.resolveDoctorID(c, c.Query("doctorId"))
	if !ok {
		return
	}

	list, err := h.Admissions.ListAdmitted(c.Request.Context(), doctorID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Admitted patients fetched successfully", list)
}

// ListDischarged returns the doctor's past stays, newest discharge first.
func (h *AdmissionHandler) ListDischarged(c *gin.Context) {
	doctorID, ok := h.resolveDoctorID(c, c.Query("doctorId"))
	if !ok {
		return
	}

	list, err := h.Admissions.ListDischarged(c.Request.Context(), doctorID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, "Discharged patients fetched successfully", list)
}

// resolveDoctorID prefers the explicitly supplied doctor ID and otherwise
// resolves the authenticated user's doctor profile. Writes the error response
// itself when resolution fails.
func (h *AdmissionHandler) resolveDoctorID(c *gin.Context, explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Doctor ID required")
		return "", false
	}

	var doctor models.Doctor
	if err := h.DB.Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return "", false
	}
	return doctor.ID, true
}
