package models

// Doctor represents a clinician who owns a calendar of appointments and
// admits patients to rooms.
type Doctor struct {
	BaseModel
	UserID         string `gorm:"size:36;index" json:"userId"`
	Name           string `gorm:"size:100;not null" json:"name"`
	Specialization string `gorm:"size:100" json:"specialization"`

	// Relations
	User         *User         `gorm:"foreignKey:UserID" json:"-"`
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
	Admissions   []Admission   `gorm:"foreignKey:DoctorID" json:"-"`
}
