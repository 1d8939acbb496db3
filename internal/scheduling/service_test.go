package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hospital-ops-server/internal/apperr"
	"hospital-ops-server/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, zerolog.Nop())
}

func seedDoctor(t *testing.T, db *gorm.DB, name, specialization string) models.Doctor {
	t.Helper()
	doctor := models.Doctor{Name: name, Specialization: specialization}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return doctor
}

func testDate() time.Time {
	return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
}

func slotAt(hour, minute int) time.Time {
	return time.Date(2024, 6, 10, hour, minute, 0, 0, time.UTC)
}

func TestBook_AssignsFirstSlotOfEmptyDay(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Gregory House", "Diagnostics")

	result, err := svc.Book(context.Background(), BookRequest{
		PatientName:  "Jane",
		PatientPhone: "555-1234",
		DoctorID:     doctor.ID,
		Date:         testDate(),
		Reason:       "fever",
	})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if !tokenPattern.MatchString(result.Token) {
		t.Fatalf("token %q does not match expected format", result.Token)
	}
	if result.DisplayTime != "09:00" {
		t.Fatalf("expected display time 09:00, got %q", result.DisplayTime)
	}
	if !result.Time.Equal(slotAt(9, 0)) {
		t.Fatalf("expected slot %s, got %s", slotAt(9, 0), result.Time)
	}

	var appointment models.Appointment
	if err := svc.db.First(&appointment, "id = ?", result.AppointmentID).Error; err != nil {
		t.Fatalf("load created appointment: %v", err)
	}
	if appointment.Status != models.StatusPending {
		t.Fatalf("expected status PENDING, got %s", appointment.Status)
	}
}

func TestBook_SkipsOccupiedSlots(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Meredith Grey", "Surgery")

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Book(ctx, BookRequest{
			PatientName:  "Patient",
			PatientPhone: "555-000" + string(rune('1'+i)),
			DoctorID:     doctor.ID,
			Date:         testDate(),
			Reason:       "checkup",
		}); err != nil {
			t.Fatalf("seed booking %d: %v", i, err)
		}
	}

	result, err := svc.Book(ctx, BookRequest{
		PatientName:  "Third",
		PatientPhone: "555-0099",
		DoctorID:     doctor.ID,
		Date:         testDate(),
		Reason:       "follow-up",
	})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if !result.Time.Equal(slotAt(10, 0)) {
		t.Fatalf("expected third booking at 10:00, got %s", result.Time)
	}
}

func TestBook_FullDayIsRejectedWithoutCreating(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Busy", "Cardiology")
	patient := models.Patient{Name: "Filler", Phone: "555-7777"}
	if err := svc.db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	for _, slot := range daySlots(testDate()) {
		appointment := models.Appointment{
			PatientID:    patient.ID,
			DoctorID:     doctor.ID,
			Date:         slot,
			Status:       models.StatusPending,
			Reason:       "filler",
			BookingToken: NewBookingToken(),
		}
		if err := svc.db.Create(&appointment).Error; err != nil {
			t.Fatalf("seed slot %s: %v", slot, err)
		}
	}

	_, err := svc.Book(context.Background(), BookRequest{
		PatientName:  "Jane",
		PatientPhone: "555-1234",
		DoctorID:     doctor.ID,
		Date:         testDate(),
		Reason:       "fever",
	})
	if apperr.KindOf(err) != apperr.KindNoCapacity {
		t.Fatalf("expected no_capacity, got %v", err)
	}

	var count int64
	svc.db.Model(&models.Appointment{}).Where("doctor_id = ?", doctor.ID).Count(&count)
	if count != int64(SlotsPerDay) {
		t.Fatalf("expected no appointment created on full day, count=%d", count)
	}
}

func TestBook_MissingFieldsRejectedBeforeAllocation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Book(context.Background(), BookRequest{
		PatientName: "Jane",
		DoctorID:    "some-doctor",
		Date:        testDate(),
		Reason:      "fever",
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation_error, got %v", err)
	}

	var count int64
	svc.db.Model(&models.Patient{}).Count(&count)
	if count != 0 {
		t.Fatalf("validation failure must not create a patient, count=%d", count)
	}
}

func TestBook_UnknownDoctorRejected(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Book(context.Background(), BookRequest{
		PatientName:  "Jane",
		PatientPhone: "555-1234",
		DoctorID:     "no-such-doctor",
		Date:         testDate(),
		Reason:       "fever",
	})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestBook_ReusesPatientWithSamePhone(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Repeat", "General")

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Book(ctx, BookRequest{
			PatientName:  "Jane",
			PatientPhone: "555-1234",
			DoctorID:     doctor.ID,
			Date:         testDate().AddDate(0, 0, i),
			Reason:       "fever",
		}); err != nil {
			t.Fatalf("booking %d: %v", i, err)
		}
	}

	var count int64
	svc.db.Model(&models.Patient{}).Where("phone = ?", "555-1234").Count(&count)
	if count != 1 {
		t.Fatalf("expected one patient for repeated phone, got %d", count)
	}
}

func TestBook_RetriesOnTokenCollision(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Colliding", "General")
	other := seedDoctor(t, svc.db, "Dr. Other", "General")

	ctx := context.Background()
	taken := "APT-TAKEN001"
	patient := models.Patient{Name: "Holder", Phone: "555-1111"}
	if err := svc.db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	existing := models.Appointment{
		PatientID:    patient.ID,
		DoctorID:     other.ID,
		Date:         slotAt(9, 0),
		Status:       models.StatusPending,
		Reason:       "seed",
		BookingToken: taken,
	}
	if err := svc.db.Create(&existing).Error; err != nil {
		t.Fatalf("seed existing appointment: %v", err)
	}

	tokens := []string{taken, "APT-FRESH002"}
	svc.newToken = func() string {
		next := tokens[0]
		if len(tokens) > 1 {
			tokens = tokens[1:]
		}
		return next
	}

	result, err := svc.Book(ctx, BookRequest{
		PatientName:  "Jane",
		PatientPhone: "555-1234",
		DoctorID:     doctor.ID,
		Date:         testDate(),
		Reason:       "fever",
	})
	if err != nil {
		t.Fatalf("Book should recover from one token collision: %v", err)
	}
	if result.Token != "APT-FRESH002" {
		t.Fatalf("expected retry token, got %q", result.Token)
	}
}

func TestUniqueIndex_RejectsSecondInsertAtSameInstant(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Raced", "General")
	patient := models.Patient{Name: "Racer", Phone: "555-2222"}
	if err := svc.db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	first := models.Appointment{
		PatientID: patient.ID, DoctorID: doctor.ID,
		Date: slotAt(9, 0), Status: models.StatusPending,
		Reason: "a", BookingToken: NewBookingToken(),
	}
	if err := svc.db.Create(&first).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}

	second := models.Appointment{
		PatientID: patient.ID, DoctorID: doctor.ID,
		Date: slotAt(9, 0), Status: models.StatusPending,
		Reason: "b", BookingToken: NewBookingToken(),
	}
	err := svc.db.Create(&second).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey for same doctor and instant, got %v", err)
	}
}

func TestReschedule_PreservesTokenAndStatus(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. First", "General")
	newDoctor := seedDoctor(t, svc.db, "Dr. Second", "Cardiology")

	ctx := context.Background()
	booked, err := svc.Book(ctx, BookRequest{
		PatientName:  "Jane",
		PatientPhone: "555-1234",
		DoctorID:     doctor.ID,
		Date:         testDate(),
		Reason:       "fever",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	newDate := testDate().AddDate(0, 0, 2)
	slot, err := svc.Reschedule(ctx, booked.Token, newDoctor.ID, newDate)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	want := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	if !slot.Equal(want) {
		t.Fatalf("expected %s, got %s", want, slot)
	}

	var appointment models.Appointment
	if err := svc.db.Where("booking_token = ?", booked.Token).First(&appointment).Error; err != nil {
		t.Fatalf("appointment lost its token after reschedule: %v", err)
	}
	if appointment.ID != booked.AppointmentID {
		t.Fatalf("reschedule must update in place, got new id %s", appointment.ID)
	}
	if appointment.DoctorID != newDoctor.ID {
		t.Fatalf("expected doctor %s, got %s", newDoctor.ID, appointment.DoctorID)
	}
	if appointment.Status != models.StatusPending {
		t.Fatalf("status must be untouched by reschedule, got %s", appointment.Status)
	}
}

func TestReschedule_UnknownTokenRejected(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Exists", "General")

	_, err := svc.Reschedule(context.Background(), "APT-NOPE0000", doctor.ID, testDate())
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestLookup_RoundTripAfterBook(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Strange", "Neurosurgery")

	ctx := context.Background()
	booked, err := svc.Book(ctx, BookRequest{
		PatientName:  "Jane",
		PatientPhone: "555-1234",
		DoctorID:     doctor.ID,
		Date:         testDate(),
		Reason:       "fever",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Lookup tolerates sloppy token input.
	tracked, err := svc.Lookup(ctx, "  "+NormalizeToken(booked.Token)+" ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if tracked.Doctor != "Dr. Strange" || tracked.Specialization != "Neurosurgery" {
		t.Fatalf("unexpected doctor enrichment: %+v", tracked)
	}
	if tracked.PatientName != "Jane" {
		t.Fatalf("expected patient Jane, got %q", tracked.PatientName)
	}
	if !tracked.Date.Equal(booked.Time) {
		t.Fatalf("expected instant %s, got %s", booked.Time, tracked.Date)
	}
}

func TestLookup_UnknownTokenNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Lookup(context.Background(), "apt-missing1")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestUpdateNotes_Idempotent(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Notes", "General")

	ctx := context.Background()
	booked, err := svc.Book(ctx, BookRequest{
		PatientName:  "Jane",
		PatientPhone: "555-1234",
		DoctorID:     doctor.ID,
		Date:         testDate(),
		Reason:       "fever",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.UpdateNotes(ctx, booked.AppointmentID, "patient improving"); err != nil {
			t.Fatalf("UpdateNotes call %d: %v", i+1, err)
		}
	}

	var appointment models.Appointment
	if err := svc.db.First(&appointment, "id = ?", booked.AppointmentID).Error; err != nil {
		t.Fatalf("load appointment: %v", err)
	}
	if appointment.Notes != "patient improving" {
		t.Fatalf("unexpected notes %q", appointment.Notes)
	}
}

func TestUpdateNotes_UnknownAppointment(t *testing.T) {
	svc := newTestService(t)
	err := svc.UpdateNotes(context.Background(), "missing-id", "notes")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestFindNextAvailableSlot_ReadOnly(t *testing.T) {
	svc := newTestService(t)
	doctor := seedDoctor(t, svc.db, "Dr. Peek", "General")

	slot, ok, err := svc.FindNextAvailableSlot(context.Background(), doctor.ID, testDate())
	if err != nil || !ok {
		t.Fatalf("expected free slot, ok=%v err=%v", ok, err)
	}
	if !slot.Equal(slotAt(9, 0)) {
		t.Fatalf("expected 09:00, got %s", slot)
	}

	var count int64
	svc.db.Model(&models.Appointment{}).Count(&count)
	if count != 0 {
		t.Fatalf("allocator must not write, appointment count=%d", count)
	}
}
