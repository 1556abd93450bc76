package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healsync-portal-server/internal/middleware"
	"healsync-portal-server/internal/models"
	"healsync-portal-server/internal/scheduling"
	"healsync-portal-server/internal/utils"
)

// PrescriptionHandler handles prescription related requests.
type PrescriptionHandler struct {
	DB       *gorm.DB
	Notifier scheduling.Notifier
}

// NewPrescriptionHandler creates a new PrescriptionHandler.
func NewPrescriptionHandler(db *gorm.DB, notifier scheduling.Notifier) *PrescriptionHandler {
	return &PrescriptionHandler{DB: db, Notifier: notifier}
}

// CreatePrescriptionRequest represents the request body for issuing a prescription.
type CreatePrescriptionRequest struct {
	PatientID   string `json:"patientId" binding:"required,uuid"`
	Medications string `json:"medications" binding:"required"`
	Notes       string `json:"notes"`
}

// CreatePrescription handles a doctor issuing a prescription to a patient.
func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	var req CreatePrescriptionRequest
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

	prescription := models.Prescription{
		PatientID:   req.PatientID,
		DoctorID:    doctorID,
		IssuedDate:  time.Now(),
		Medications: req.Medications,
		Notes:       req.Notes,
	}

	if err := h.DB.Create(&prescription).Error; err != nil {
		utils.InternalServerError(c, "Failed to create prescription: "+err.Error())
		return
	}

	h.Notifier.Notify(prescription.PatientID, models.NotificationPrescription,
		"A new prescription was issued to you.", prescription.ID)

	utils.Created(c, "Prescription created successfully", prescription)
}

// GetPrescriptionsForPatient handles fetching a patient's prescriptions.
// Accessible by the patient themselves or doctors.
func (h *PrescriptionHandler) GetPrescriptionsForPatient(c *gin.Context) {
	patientID := c.Param("patientId")

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isDoctor := requestingUserRole == models.RoleDoctor || requestingUserRole == models.RoleAdmin
	isSelf := requestingUserID == patientID
	if !isDoctor && !isSelf {
		utils.Forbidden(c, "You are not authorized to view these prescriptions")
		return
	}

	var prescriptions []models.Prescription
	if err := h.DB.Where("patient_id = ?", patientID).Order("issued_date desc").Find(&prescriptions).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch prescriptions: "+err.Error())
		return
	}

	utils.Success(c, "Prescriptions fetched successfully", prescriptions)
}
