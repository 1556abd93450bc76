package models

import (
	"time"
)

// Prescription represents medications issued to a patient by a doctor.
type Prescription struct {
	BaseModel
	PatientID  string    `gorm:"size:36;index" json:"patientId"`
	DoctorID   string    `gorm:"size:36;index" json:"doctorId"`
	IssuedDate time.Time `json:"date"`
	// Medications is a newline-separated list of "name dosage frequency" lines.
	Medications string `gorm:"type:text;not null" json:"medications"`
	Notes       string `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}
