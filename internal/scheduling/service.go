package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hospital-ops-server/internal/apperr"
	"hospital-ops-server/internal/models"
)

// allocationAttempts bounds how often a booking re-runs slot allocation after
// losing a duplicate-key race before giving up with a conflict.
const allocationAttempts = 2

// Service is the only mutator of appointment state. It owns slot allocation,
// booking token issuance and the appointment status lifecycle.
type Service struct {
	db       *gorm.DB
	log      zerolog.Logger
	newToken func() string
}

// NewService creates a scheduling service on top of the given database.
func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		log:      log.With().Str("component", "scheduling").Logger(),
		newToken: NewBookingToken,
	}
}

// FindNextAvailableSlot picks the earliest unbooked half-hour slot for the
// doctor on the calendar day of date. ok is false when the day is fully
// booked. Read-only: claiming the slot is the caller's job, and the unique
// index on (doctor_id, date) arbitrates concurrent claims.
func (s *Service) FindNextAvailableSlot(ctx context.Context, doctorID string, date time.Time) (slot time.Time, ok bool, err error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var booked []time.Time
	if err := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND date >= ? AND date < ?", doctorID, dayStart, dayEnd).
		Pluck("date", &booked).Error; err != nil {
		return time.Time{}, false, apperr.Persistence(fmt.Errorf("load booked slots: %w", err))
	}

	slot, ok = nextFreeSlot(date, booked)
	return slot, ok, nil
}

// BookRequest carries the fields of a booking submission.
type BookRequest struct {
	PatientName  string
	PatientPhone string
	DoctorID     string
	Date         time.Time
	Reason       string
}

// BookResult reports the outcome of a successful booking.
type BookResult struct {
	AppointmentID string
	Token         string
	Time          time.Time
	DisplayTime   string
}

// Book validates the request, finds or creates the patient by phone, assigns
// the earliest free slot and creates a PENDING appointment with a fresh
// booking token. A losing writer in the slot race is detected through the
// duplicate-key error and re-runs allocation once before surfacing a
// conflict; a token collision takes the same path since every retry also
// regenerates the token.
func (s *Service) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	if req.PatientName == "" || req.PatientPhone == "" || req.DoctorID == "" || req.Date.IsZero() || req.Reason == "" {
		return nil, apperr.Validation("Missing required fields")
	}

	var doctor models.Doctor
	if err := s.db.WithContext(ctx).First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Doctor not found")
		}
		return nil, apperr.Persistence(fmt.Errorf("verify doctor: %w", err))
	}

	patient, err := s.findOrCreatePatient(ctx, req.PatientName, req.PatientPhone)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= allocationAttempts; attempt++ {
		slot, ok, err := s.FindNextAvailableSlot(ctx, req.DoctorID, req.Date)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NoCapacity("No available slots for this date. Please choose another date.")
		}

		appointment := models.Appointment{
			PatientID:    patient.ID,
			DoctorID:     req.DoctorID,
			Date:         slot,
			Status:       models.StatusPending,
			Reason:       req.Reason,
			BookingToken: s.newToken(),
		}

		err = s.db.WithContext(ctx).Create(&appointment).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.log.Warn().
				Str("doctorId", req.DoctorID).
				Time("slot", slot).
				Int("attempt", attempt).
				Msg("booking lost allocation race, retrying")
			continue
		}
		if err != nil {
			return nil, apperr.Persistence(fmt.Errorf("create appointment: %w", err))
		}

		s.log.Info().
			Str("appointmentId", appointment.ID).
			Str("doctorId", req.DoctorID).
			Time("slot", slot).
			Msg("appointment booked")

		return &BookResult{
			AppointmentID: appointment.ID,
			Token:         appointment.BookingToken,
			Time:          slot,
			DisplayTime:   slot.Format("15:04"),
		}, nil
	}

	return nil, apperr.Conflict("That slot was just taken. Please try again.")
}

// Reschedule moves the appointment identified by token to the earliest free
// slot of the new doctor and date. The token and the appointment's identity
// and status are preserved. Returns the newly assigned instant.
func (s *Service) Reschedule(ctx context.Context, token, newDoctorID string, newDate time.Time) (time.Time, error) {
	if token == "" || newDoctorID == "" || newDate.IsZero() {
		return time.Time{}, apperr.Validation("Missing required fields")
	}
	token = NormalizeToken(token)

	var appointment models.Appointment
	if err := s.db.WithContext(ctx).Where("booking_token = ?", token).First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, apperr.NotFound("No appointment found for this token")
		}
		return time.Time{}, apperr.Persistence(fmt.Errorf("load appointment: %w", err))
	}

	var doctor models.Doctor
	if err := s.db.WithContext(ctx).First(&doctor, "id = ?", newDoctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, apperr.NotFound("Doctor not found")
		}
		return time.Time{}, apperr.Persistence(fmt.Errorf("verify doctor: %w", err))
	}

	for attempt := 1; attempt <= allocationAttempts; attempt++ {
		slot, ok, err := s.FindNextAvailableSlot(ctx, newDoctorID, newDate)
		if err != nil {
			return time.Time{}, err
		}
		if !ok {
			return time.Time{}, apperr.NoCapacity("No slots available on this date.")
		}

		err = s.db.WithContext(ctx).
			Model(&models.Appointment{}).
			Where("id = ?", appointment.ID).
			Updates(map[string]interface{}{"doctor_id": newDoctorID, "date": slot}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.log.Warn().
				Str("appointmentId", appointment.ID).
				Str("doctorId", newDoctorID).
				Time("slot", slot).
				Int("attempt", attempt).
				Msg("reschedule lost allocation race, retrying")
			continue
		}
		if err != nil {
			return time.Time{}, apperr.Persistence(fmt.Errorf("update appointment: %w", err))
		}
		return slot, nil
	}

	return time.Time{}, apperr.Conflict("That slot was just taken. Please try again.")
}

// TrackedAppointment is the public view of an appointment returned for a
// booking token lookup.
type TrackedAppointment struct {
	Status         models.AppointmentStatus `json:"status"`
	Date           time.Time                `json:"date"`
	Doctor         string                   `json:"doctor"`
	Specialization string                   `json:"specialization"`
	PatientName    string                   `json:"patientName"`
}

// Lookup resolves a booking token to its appointment, enriched with the
// doctor's name and specialization and the patient's name. The token is
// normalized (trimmed, uppercased) before the lookup.
func (s *Service) Lookup(ctx context.Context, token string) (*TrackedAppointment, error) {
	token = NormalizeToken(token)
	if token == "" {
		return nil, apperr.Validation("Booking token is required")
	}

	var appointment models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Doctor").
		Preload("Patient").
		Where("booking_token = ?", token).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No appointment found for this token")
		}
		return nil, apperr.Persistence(fmt.Errorf("load appointment: %w", err))
	}

	return &TrackedAppointment{
		Status:         appointment.Status,
		Date:           appointment.Date,
		Doctor:         appointment.Doctor.Name,
		Specialization: appointment.Doctor.Specialization,
		PatientName:    appointment.Patient.Name,
	}, nil
}

// UpdateNotes replaces the free-text notes on an appointment.
func (s *Service) UpdateNotes(ctx context.Context, appointmentID, notes string) error {
	if appointmentID == "" {
		return apperr.Validation("Invalid ID")
	}

	var appointment models.Appointment
	if err := s.db.WithContext(ctx).First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Appointment not found")
		}
		return apperr.Persistence(fmt.Errorf("load appointment: %w", err))
	}

	if err := s.db.WithContext(ctx).
		Model(&appointment).
		Update("notes", notes).Error; err != nil {
		return apperr.Persistence(fmt.Errorf("update notes: %w", err))
	}
	return nil
}

// findOrCreatePatient looks a patient up by phone and creates one when no
// record matches, so repeat callers are not duplicated.
func (s *Service) findOrCreatePatient(ctx context.Context, name, phone string) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&patient).Error
	if err == nil {
		return &patient, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Persistence(fmt.Errorf("find patient: %w", err))
	}

	patient = models.Patient{Name: name, Phone: phone}
	if err := s.db.WithContext(ctx).Create(&patient).Error; err != nil {
		return nil, apperr.Persistence(fmt.Errorf("create patient: %w", err))
	}
	return &patient, nil
}
