package models

// Patient represents a person receiving care. Patients are created on first
// booking and are looked up by phone before creating a duplicate.
type Patient struct {
	BaseModel
	Name    string `gorm:"size:100;not null" json:"name"`
	Phone   string `gorm:"size:30;index" json:"phone"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Address string `gorm:"size:255" json:"address,omitempty"`

	// Relations
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"-"`
	Admissions   []Admission   `gorm:"foreignKey:PatientID" json:"-"`
}
