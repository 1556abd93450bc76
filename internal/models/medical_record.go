package models

import (
	"time"
)

// MedicalRecordType represents the type of medical record
type MedicalRecordType string

const (
	RecordTypeConsultation     MedicalRecordType = "ConsultationNote"
	RecordTypeLabResult        MedicalRecordType = "LabResult"
	RecordTypeImagingReport    MedicalRecordType = "ImagingReport"
	RecordTypeVaccination      MedicalRecordType = "VaccinationRecord"
	RecordTypeAllergy          MedicalRecordType = "AllergyRecord"
	RecordTypeDischargeSummary MedicalRecordType = "DischargeSummary"
)

// MedicalRecord represents a patient's health record as written by a doctor,
// usually following a completed appointment.
type MedicalRecord struct {
	BaseModel
	PatientID  string            `gorm:"size:36;index" json:"patientId"`
	DoctorID   string            `gorm:"size:36;index" json:"doctorId"`
	RecordType MedicalRecordType `gorm:"size:50" json:"recordType"`
	RecordDate time.Time         `json:"date"`
	Diagnosis  string            `gorm:"size:255" json:"diagnosis"`
	Treatment  string            `gorm:"type:text" json:"treatment"`
	// Medications is a newline-separated list; the front-end splits it for display.
	Medications string `gorm:"type:text" json:"medications,omitempty"`
	Notes       string `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Patient     User                      `gorm:"foreignKey:PatientID" json:"-"`
	Doctor      User                      `gorm:"foreignKey:DoctorID" json:"-"`
	Attachments []MedicalRecordAttachment `gorm:"foreignKey:MedicalRecordID" json:"attachments,omitempty"`
}

// MedicalRecordAttachment represents a file attached to a medical record
type MedicalRecordAttachment struct {
	BaseModel
	MedicalRecordID string `json:"medicalRecordId" gorm:"not null;type:varchar(36)"`
	FileName        string `json:"fileName" gorm:"not null"` // Original name of the file
	FileType        string `json:"fileType" gorm:"not null"` // MIME type of the file
	FileData        []byte `json:"-" gorm:"type:longblob;not null"`
}
