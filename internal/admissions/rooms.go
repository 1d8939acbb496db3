package admissions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hospital-ops-server/internal/apperr"
	"hospital-ops-server/internal/models"
)

// RoomInventory is the source of truth for room occupancy.
type RoomInventory struct {
	db *gorm.DB
}

// NewRoomInventory creates a room inventory over the given database.
func NewRoomInventory(db *gorm.DB) *RoomInventory {
	return &RoomInventory{db: db}
}

// FindByNumber looks a room up by its exact room number.
func (r *RoomInventory) FindByNumber(ctx context.Context, number string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Room %s not found", number))
		}
		return nil, apperr.Persistence(fmt.Errorf("find room: %w", err))
	}
	return &room, nil
}

// ListAvailableByType returns all currently AVAILABLE rooms of the given type,
// ordered by room number.
func (r *RoomInventory) ListAvailableByType(ctx context.Context, roomType models.RoomType) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", roomType, models.RoomAvailable).
		Order("number asc").
		Find(&rooms).Error; err != nil {
		return nil, apperr.Persistence(fmt.Errorf("list available rooms: %w", err))
	}
	return rooms, nil
}

// List returns every room with its live admission (if any) preloaded, for
// the room board.
func (r *RoomInventory) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := r.db.WithContext(ctx).
		Preload("Admissions", "status = ?", models.StatusAdmitted).
		Order("number asc").
		Find(&rooms).Error; err != nil {
		return nil, apperr.Persistence(fmt.Errorf("list rooms: %w", err))
	}
	return rooms, nil
}

// SetStatus flips a room's status unconditionally. This is the maintenance
// override; admissions go through the conditional claim/release instead,
// which serializes transitions per room.
func (r *RoomInventory) SetStatus(ctx context.Context, roomID string, status models.RoomStatus) error {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Room not found")
		}
		return apperr.Persistence(fmt.Errorf("find room: %w", err))
	}
	if err := r.db.WithContext(ctx).Model(&room).Update("status", status).Error; err != nil {
		return apperr.Persistence(fmt.Errorf("set room status: %w", err))
	}
	return nil
}

// claimRoom marks a room OCCUPIED with a single conditional update. A false
// return means the room was not AVAILABLE at the instant of the update, i.e.
// another admit won the race.
func claimRoom(tx *gorm.DB, roomID string) (bool, error) {
	res := tx.Model(&models.Room{}).
		Where("id = ? AND status = ?", roomID, models.RoomAvailable).
		Update("status", models.RoomOccupied)
	if res.Error != nil {
		return false, fmt.Errorf("claim room: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// releaseRoom marks a room AVAILABLE again after a discharge.
func releaseRoom(tx *gorm.DB, roomID string) error {
	if err := tx.Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("status", models.RoomAvailable).Error; err != nil {
		return fmt.Errorf("release room: %w", err)
	}
	return nil
}
