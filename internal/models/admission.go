package models

import (
	"time"
)

// AdmissionStatus represents the state of an inpatient stay
type AdmissionStatus string

const (
	StatusAdmitted   AdmissionStatus = "ADMITTED"
	StatusDischarged AdmissionStatus = "DISCHARGED"
)

// Admission represents a patient's stay. RoomID is set when the stay is bound
// to a tracked Room row (the linked variant); RoomNumber and Floor are always
// stored as plain text so an admission can proceed even when no Room row
// matches (the unlinked variant). Occupancy accounting only applies to the
// linked variant.
type Admission struct {
	BaseModel
	PatientID     string          `gorm:"size:36;index" json:"patientId"`
	DoctorID      string          `gorm:"size:36;index" json:"doctorId"`
	RoomID        *string         `gorm:"size:36;index" json:"roomId,omitempty"`
	RoomNumber    string          `gorm:"size:10" json:"roomNumber"`
	Floor         string          `gorm:"size:10" json:"floor"`
	Diagnosis     string          `gorm:"size:255" json:"diagnosis"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Status        AdmissionStatus `gorm:"size:20;default:'ADMITTED'" json:"status"`
	AdmissionDate time.Time       `json:"admissionDate"`
	DischargeDate *time.Time      `json:"dischargeDate,omitempty"`

	// Relations
	Patient *Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  Doctor   `gorm:"foreignKey:DoctorID" json:"-"`
	Room    *Room    `gorm:"foreignKey:RoomID" json:"-"`
}
