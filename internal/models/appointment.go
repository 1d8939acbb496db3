package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// Appointment represents a scheduled visit on a doctor's calendar. The
// composite unique index on (doctor_id, date) is what keeps two concurrent
// bookings from claiming the same slot: the second insert fails with a
// duplicate-key error instead of silently double-booking.
type Appointment struct {
	BaseModel
	PatientID    string            `gorm:"size:36;index" json:"patientId"`
	DoctorID     string            `gorm:"size:36;uniqueIndex:idx_doctor_slot" json:"doctorId"`
	Date         time.Time         `gorm:"uniqueIndex:idx_doctor_slot" json:"date"`
	Status       AppointmentStatus `gorm:"size:20;default:'PENDING'" json:"status"`
	Reason       string            `gorm:"size:255" json:"reason"`
	Notes        string            `gorm:"type:text" json:"notes"`
	BookingToken string            `gorm:"uniqueIndex;size:20;not null" json:"bookingToken"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"-"`
}
