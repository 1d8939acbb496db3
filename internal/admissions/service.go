package admissions

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

// Service is the state machine over a patient's stay: no admission →
// ADMITTED → DISCHARGED. It keeps room occupancy and admission status
// mutually consistent by doing the room flip and the admission write inside
// one transaction.
type Service struct {
	db    *gorm.DB
	rooms *RoomInventory
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates an admission service on top of the given database.
func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{
		db:    db,
		rooms: NewRoomInventory(db),
		log:   log.With().Str("component", "admissions").Logger(),
		now:   time.Now,
	}
}

// Rooms exposes the room inventory backing this service.
func (s *Service) Rooms() *RoomInventory {
	return s.rooms
}

// AdmitRequest carries the fields of an admission submission.
type AdmitRequest struct {
	PatientID  string
	DoctorID   string
	RoomNumber string
	Floor      string
	Diagnosis  string
	Notes      string
}

// Admit creates an ADMITTED admission for the patient. When the room number
// matches a tracked Room row, the room is claimed with a conditional update
// inside the same transaction as the admission insert; losing the claim once
// triggers a single re-check before the failure is surfaced. When no Room row
// matches, the admission proceeds with the caller-supplied number and floor
// and inventory is not touched.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*models.Admission, error) {
	if req.PatientID == "" || req.RoomNumber == "" || req.Diagnosis == "" || req.DoctorID == "" {
		return nil, apperr.Validation("Missing required fields")
	}

	if err := s.db.WithContext(ctx).First(&models.Doctor{}, "id = ?", req.DoctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Doctor not found")
		}
		return nil, apperr.Persistence(fmt.Errorf("verify doctor: %w", err))
	}
	if err := s.db.WithContext(ctx).First(&models.Patient{}, "id = ?", req.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Patient not found")
		}
		return nil, apperr.Persistence(fmt.Errorf("verify patient: %w", err))
	}

	admission := models.Admission{
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		RoomNumber:    req.RoomNumber,
		Floor:         req.Floor,
		Diagnosis:     req.Diagnosis,
		Notes:         req.Notes,
		Status:        models.StatusAdmitted,
		AdmissionDate: s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		err := tx.Where("number = ?", req.RoomNumber).First(&room).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Unlinked admission: no tracked room, inventory untouched.
			return tx.Create(&admission).Error
		case err != nil:
			return fmt.Errorf("find room: %w", err)
		}

		if room.Status == models.RoomOccupied {
			return apperr.NoCapacity(fmt.Sprintf("Room %s is already occupied.", req.RoomNumber))
		}

		claimed, err := claimRoom(tx, room.ID)
		if err != nil {
			return err
		}
		if !claimed {
			// Lost the race between the read and the claim. Re-check once:
			// if the room is now occupied this is a capacity problem the
			// caller can act on, otherwise give the claim one more shot.
			if err := tx.First(&room, "id = ?", room.ID).Error; err != nil {
				return fmt.Errorf("recheck room: %w", err)
			}
			if room.Status == models.RoomOccupied {
				return apperr.NoCapacity(fmt.Sprintf("Room %s is already occupied.", req.RoomNumber))
			}
			claimed, err = claimRoom(tx, room.ID)
			if err != nil {
				return err
			}
			if !claimed {
				return apperr.Conflict(fmt.Sprintf("Room %s was just taken. Please try again.", req.RoomNumber))
			}
		}

		admission.RoomID = &room.ID
		admission.Floor = room.Floor
		return tx.Create(&admission).Error
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Persistence(fmt.Errorf("admit patient: %w", err))
	}

	s.log.Info().
		Str("admissionId", admission.ID).
		Str("patientId", req.PatientID).
		Str("roomNumber", req.RoomNumber).
		Bool("linkedRoom", admission.RoomID != nil).
		Msg("patient admitted")

	return &admission, nil
}

// Discharge closes an ADMITTED admission: stamps the discharge time, moves
// the status to DISCHARGED and releases the linked room, all in one
// transaction. An admission is immutable once DISCHARGED.
func (s *Service) Discharge(ctx context.Context, admissionID string) error {
	if admissionID == "" {
		return apperr.Validation("Invalid ID")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admission models.Admission
		if err := tx.First(&admission, "id = ?", admissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Admission not found")
			}
			return fmt.Errorf("load admission: %w", err)
		}
		if admission.Status == models.StatusDischarged {
			return apperr.Validation("Patient has already been discharged")
		}

		res := tx.Model(&models.Admission{}).
			Where("id = ? AND status = ?", admissionID, models.StatusAdmitted).
			Updates(map[string]interface{}{
				"status":         models.StatusDischarged,
				"discharge_date": s.now(),
			})
		if res.Error != nil {
			return fmt.Errorf("discharge admission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Admission was discharged by a concurrent request")
		}

		if admission.RoomID != nil {
			if err := releaseRoom(tx, *admission.RoomID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperr.Persistence(fmt.Errorf("discharge patient: %w", err))
	}

	s.log.Info().Str("admissionId", admissionID).Msg("patient discharged")
	return nil
}

// UpdateNotes replaces the free-text notes on an admission without touching
// its status.
func (s *Service) UpdateNotes(ctx context.Context, admissionID, notes string) error {
	if admissionID == "" {
		return apperr.Validation("Invalid ID")
	}

	var admission models.Admission
	if err := s.db.WithContext(ctx).First(&admission, "id = ?", admissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Admission not found")
		}
		return apperr.Persistence(fmt.Errorf("load admission: %w", err))
	}

	if err := s.db.WithContext(ctx).Model(&admission).Update("notes", notes).Error; err != nil {
		return apperr.Persistence(fmt.Errorf("update notes: %w", err))
	}
	return nil
}

// ListAdmitted returns the doctor's current inpatients, most recent admission
// first, with patients preloaded.
func (s *Service) ListAdmitted(ctx context.Context, doctorID string) ([]models.Admission, error) {
	return s.listByStatus(ctx, doctorID, models.StatusAdmitted, "admission_date DESC")
}

// ListDischarged returns the doctor's past stays, most recent discharge
// first, with patients preloaded.
func (s *Service) ListDischarged(ctx context.Context, doctorID string) ([]models.Admission, error) {
	return s.listByStatus(ctx, doctorID, models.StatusDischarged, "discharge_date DESC")
}

func (s *Service) listByStatus(ctx context.Context, doctorID string, status models.AdmissionStatus, order string) ([]models.Admission, error) {
	if doctorID == "" {
		return nil, apperr.Validation("Doctor ID is required")
	}
	var admissions []models.Admission
	if err := s.db.WithContext(ctx).
		Preload("Patient").
		Where("doctor_id = ? AND status = ?", doctorID, status).
		Order(order).
		Find(&admissions).Error; err != nil {
		return nil, apperr.Persistence(fmt.Errorf("list admissions: %w", err))
	}
	return admissions, nil
}
