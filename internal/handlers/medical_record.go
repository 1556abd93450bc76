package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"healsync-portal-server/internal/middleware"
	"healsync-portal-server/internal/models"
	"healsync-portal-server/internal/scheduling"
	"healsync-portal-server/internal/utils"
)

// MedicalRecordHandler handles medical record related requests.
type MedicalRecordHandler struct {
	DB       *gorm.DB
	Notifier scheduling.Notifier
}

// NewMedicalRecordHandler creates a new MedicalRecordHandler.
func NewMedicalRecordHandler(db *gorm.DB, notifier scheduling.Notifier) *MedicalRecordHandler {
	return &MedicalRecordHandler{DB: db, Notifier: notifier}
}

// CreateMedicalRecordRequest represents the request body for creating a medical record.
type CreateMedicalRecordRequest struct {
	PatientID   string                   `json:"patientId" binding:"required,uuid"`
	RecordType  models.MedicalRecordType `json:"recordType" binding:"required"`
	RecordDate  string                   `json:"recordDate"`
	Diagnosis   string                   `json:"diagnosis" binding:"required"`
	Treatment   string                   `json:"treatment" binding:"required"`
	Medications string                   `json:"medications"`
	Notes       string                   `json:"notes"`
}

// CreateMedicalRecord handles creating a new medical record.
// Only accessible by doctors.
func (h *MedicalRecordHandler) CreateMedicalRecord(c *gin.Context) {
	var req CreateMedicalRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Doctor ID not found in token")
		return
	}

	// Verify patient exists
	var patient models.User
	if err := h.DB.Where("id = ? AND role = ?", req.PatientID, models.RolePatient).First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	recordDate := time.Now()
	if req.RecordDate != "" {
		var err error
		recordDate, err = time.Parse(time.RFC3339, req.RecordDate)
		if err != nil {
			utils.BadRequest(c, "Invalid date format. Please use ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ)")
			return
		}
	}

	record := models.MedicalRecord{
		PatientID:   req.PatientID,
		DoctorID:    doctorID,
		RecordType:  req.RecordType,
		RecordDate:  recordDate,
		Diagnosis:   req.Diagnosis,
		Treatment:   req.Treatment,
		Medications: req.Medications,
		Notes:       req.Notes,
	}

	if err := h.DB.Create(&record).Error; err != nil {
		utils.InternalServerError(c, "Failed to create medical record: "+err.Error())
		return
	}

	h.Notifier.Notify(record.PatientID, models.NotificationMedicalRecord,
		"A new medical record was added to your file.", record.ID)

	utils.Created(c, "Medical record created successfully", record)
}

// GetMedicalRecordsForPatient handles fetching medical records for a specific patient.
// Accessible by the patient themselves or doctors.
func (h *MedicalRecordHandler) GetMedicalRecordsForPatient(c *gin.Context) {
	patientID := c.Param("patientId")

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isDoctor := requestingUserRole == models.RoleDoctor || requestingUserRole == models.RoleAdmin
	isSelf := requestingUserID == patientID
	if !isDoctor && !isSelf {
		utils.Forbidden(c, "You are not authorized to view these medical records")
		return
	}

	var records []models.MedicalRecord
	if err := h.DB.Preload("Attachments").Where("patient_id = ?", patientID).Order("record_date desc").Find(&records).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch medical records: "+err.Error())
		return
	}

	utils.Success(c, "Medical records fetched successfully", records)
}

// GetMedicalRecordByID handles fetching a single medical record by its ID.
// Accessible by the patient (if it's theirs) or doctors.
func (h *MedicalRecordHandler) GetMedicalRecordByID(c *gin.Context) {
	recordID := c.Param("id")

	var record models.MedicalRecord
	if err := h.DB.Preload("Attachments").First(&record, "id = ?", recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isDoctor := requestingUserRole == models.RoleDoctor || requestingUserRole == models.RoleAdmin
	isPatientOwner := requestingUserRole == models.RolePatient && requestingUserID == record.PatientID
	if !isDoctor && !isPatientOwner {
		utils.Forbidden(c, "You are not authorized to view this medical record")
		return
	}

	utils.Success(c, "Medical record fetched successfully", record)
}

// UpdateMedicalRecordRequest represents the request body for updating a medical record.
type UpdateMedicalRecordRequest struct {
	RecordType  models.MedicalRecordType `json:"recordType,omitempty"`
	RecordDate  string                   `json:"recordDate,omitempty"`
	Diagnosis   string                   `json:"diagnosis,omitempty"`
	Treatment   string                   `json:"treatment,omitempty"`
	Medications string                   `json:"medications,omitempty"`
	Notes       string                   `json:"notes,omitempty"`
}

// UpdateMedicalRecord handles updating an existing medical record.
// Only accessible by the doctor who created it or an admin.
func (h *MedicalRecordHandler) UpdateMedicalRecord(c *gin.Context) {
	recordID := c.Param("id")

	var req UpdateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isAdmin := requestingUserRole == models.RoleAdmin
	isCreatorDoctor := requestingUserRole == models.RoleDoctor && requestingUserID == record.DoctorID
	if !isAdmin && !isCreatorDoctor {
		utils.Forbidden(c, "You are not authorized to update this medical record")
		return
	}

	if req.RecordType != "" {
		record.RecordType = req.RecordType
	}
	if req.RecordDate != "" {
		parsedDate, err := time.Parse(time.RFC3339, req.RecordDate)
		if err != nil {
			utils.BadRequest(c, "Invalid date format for recordDate. Please use ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ)")
			return
		}
		record.RecordDate = parsedDate
	}
	if req.Diagnosis != "" {
		record.Diagnosis = req.Diagnosis
	}
	if req.Treatment != "" {
		record.Treatment = req.Treatment
	}
	if req.Medications != "" {
		record.Medications = req.Medications
	}
	if req.Notes != "" {
		record.Notes = req.Notes
	}

	if err := h.DB.Save(&record).Error; err != nil {
		utils.InternalServerError(c, "Failed to update medical record: "+err.Error())
		return
	}

	h.Notifier.Notify(record.PatientID, models.NotificationMedicalRecord,
		"One of your medical records was updated.", record.ID)

	utils.Success(c, "Medical record updated successfully", record)
}

// DeleteMedicalRecord handles deleting a medical record and its attachments.
// Only accessible by the doctor who created it or an admin.
func (h *MedicalRecordHandler) DeleteMedicalRecord(c *gin.Context) {
	recordID := c.Param("id")

	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isAdmin := requestingUserRole == models.RoleAdmin
	isCreatorDoctor := requestingUserRole == models.RoleDoctor && requestingUserID == record.DoctorID
	if !isAdmin && !isCreatorDoctor {
		utils.Forbidden(c, "You are not authorized to delete this medical record")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medical_record_id = ?", record.ID).Delete(&models.MedicalRecordAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete medical record: "+err.Error())
		return
	}

	utils.Success(c, "Medical record deleted successfully", nil)
}

// UploadMedicalRecordAttachment handles uploading attachment files for a specific medical record.
// Stores the file as binary data in the database. Only accessible by doctors.
func (h *MedicalRecordHandler) UploadMedicalRecordAttachment(c *gin.Context) {
	recordID := c.Param("id")
	if _, err := uuid.Parse(recordID); err != nil {
		utils.BadRequest(c, "Invalid Medical Record ID format: "+recordID)
		return
	}

	// Verify the medical record exists
	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error verifying medical record: "+err.Error())
		}
		return
	}

	file, header, err := c.Request.FormFile("file") // "file" is the name of the form field
	if err != nil {
		utils.BadRequest(c, "Error retrieving file from form: "+err.Error())
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		utils.InternalServerError(c, "Error reading file content: "+err.Error())
		return
	}

	attachment := models.MedicalRecordAttachment{
		MedicalRecordID: record.ID,
		FileName:        header.Filename,
		FileType:        header.Header.Get("Content-Type"),
		FileData:        fileData,
	}

	if err := h.DB.Create(&attachment).Error; err != nil {
		utils.InternalServerError(c, "Failed to create medical record attachment entry: "+err.Error())
		return
	}

	// Return a slimmed down version of the attachment, without the FileData
	responseAttachment := struct {
		ID              string    `json:"id"`
		MedicalRecordID string    `json:"medicalRecordId"`
		FileName        string    `json:"fileName"`
		FileType        string    `json:"fileType"`
		CreatedAt       time.Time `json:"createdAt"`
	}{
		ID:              attachment.ID,
		MedicalRecordID: attachment.MedicalRecordID,
		FileName:        attachment.FileName,
		FileType:        attachment.FileType,
		CreatedAt:       attachment.CreatedAt,
	}

	utils.Success(c, "File uploaded and linked to medical record successfully", responseAttachment)
}

// GetMedicalRecordAttachment handles retrieving a specific attachment by its ID and serving its file data.
// Authorization mirrors access to the parent medical record.
func (h *MedicalRecordHandler) GetMedicalRecordAttachment(c *gin.Context) {
	attachmentID := c.Param("attachmentId")

	var attachment models.MedicalRecordAttachment
	if err := h.DB.First(&attachment, "id = ?", attachmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Attachment not found")
		} else {
			utils.InternalServerError(c, "Database error fetching attachment: "+err.Error())
		}
		return
	}

	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", attachment.MedicalRecordID).Error; err != nil {
		utils.InternalServerError(c, "Could not fetch parent medical record for authorization check")
		return
	}

	requestingUserID, userIDExists := middleware.GetUserIDFromContext(c)
	requestingUserRole, userRoleExists := middleware.GetUserRoleFromContext(c)
	if !userIDExists || !userRoleExists {
		utils.Unauthorized(c, "User information not found in token for authorization")
		return
	}

	isDoctor := requestingUserRole == models.RoleDoctor || requestingUserRole == models.RoleAdmin
	isPatientOwner := requestingUserRole == models.RolePatient && requestingUserID == record.PatientID
	if !isDoctor && !isPatientOwner {
		utils.Forbidden(c, "You are not authorized to view this attachment")
		return
	}

	c.Writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	c.Data(http.StatusOK, attachment.FileType, attachment.FileData)
}
