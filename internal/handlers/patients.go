package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-ops-server/internal/models"
	"hospital-ops-server/internal/utils"
)

// PatientHandler handles patient directory lookups for the clinician portal.
type PatientHandler struct {
	DB *gorm.DB
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{DB: db}
}

// SearchPatients finds patients by partial name or phone match, capped at a
// handful of results for the admit form's typeahead.
func (h *PatientHandler) SearchPatients(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.BadRequest(c, "Query parameter 'q' is required")
		return
	}

	var patients []models.Patient
	pattern := "%" + query + "%"
	if err := h.DB.
		Where("name LIKE ? OR phone LIKE ?", pattern, pattern).
		Limit(5).
		Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to search patients: "+err.Error())
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}
