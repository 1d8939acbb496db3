package models

// RoomType represents the category of a physical room
type RoomType string

const (
	RoomTypeGeneral RoomType = "GENERAL"
	RoomTypeICU     RoomType = "ICU"
	RoomTypePrivate RoomType = "PRIVATE"
)

// RoomStatus represents the occupancy state of a room
type RoomStatus string

const (
	RoomAvailable RoomStatus = "AVAILABLE"
	RoomOccupied  RoomStatus = "OCCUPIED"
)

// Room represents a physical room. Status is the source of truth for
// availability: OCCUPIED iff exactly one ADMITTED admission references the
// room. Transitions go through a conditional single-row update so concurrent
// admits serialize per room.
type Room struct {
	BaseModel
	Number string     `gorm:"uniqueIndex;size:10;not null" json:"number"`
	Floor  string     `gorm:"size:10" json:"floor"`
	Type   RoomType   `gorm:"size:20;default:'GENERAL'" json:"type"`
	Price  float64    `json:"price"`
	Status RoomStatus `gorm:"size:20;default:'AVAILABLE'" json:"status"`

	// Relations
	Admissions []Admission `gorm:"foreignKey:RoomID" json:"admissions,omitempty"`
}
