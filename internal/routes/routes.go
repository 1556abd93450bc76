package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healsync-portal-server/internal/config"
	"healsync-portal-server/internal/handlers"
	"healsync-portal-server/internal/middleware"
	"healsync-portal-server/internal/models"
	"healsync-portal-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// The scheduling service owns every slot and appointment mutation;
	// handlers go through it rather than the database.
	notifier := scheduling.NewGormNotifier(db)
	scheduler := scheduling.NewService(scheduling.NewGormStore(db), notifier, cfg.ClinicLocation)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(scheduler)
	availabilityHandler := handlers.NewAvailabilityHandler(scheduler)
	medicalRecordHandler := handlers.NewMedicalRecordHandler(db, notifier)
	prescriptionHandler := handlers.NewPrescriptionHandler(db, notifier)
	notificationHandler := handlers.NewNotificationHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes
		userRoutes := private.Group("/users")
		{
			// Doctor directory - accessible by all authenticated users,
			// filterable by ?specialty= for the booking screen
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			// Patients for a doctor - accessible by doctors and admins
			userRoutes.GET("/doctor-patients", userHandler.GetDoctorPatients)

			// Admin-only routes
			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Doctor availability routes
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("/:id/availability", availabilityHandler.GetDoctorAvailability)
			doctorRoutes.GET("/:id/appointments", appointmentHandler.GetDoctorAppointments)
			doctorRoutes.PUT("/availability", middleware.RoleAuthMiddleware(models.RoleDoctor), availabilityHandler.PublishAvailability)
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.BookAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/patient/:patientId", appointmentHandler.GetPatientAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Lifecycle transitions; party/role checks live in the scheduling service
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.POST("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/notes", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), appointmentHandler.AddNotes)
		}

		// Medical record routes
		medicalRecordRoutes := private.Group("/medical-records")
		{
			medicalRecordRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), medicalRecordHandler.CreateMedicalRecord)
			medicalRecordRoutes.GET("/patient/:patientId", medicalRecordHandler.GetMedicalRecordsForPatient)
			medicalRecordRoutes.GET("/:id", medicalRecordHandler.GetMedicalRecordByID)
			medicalRecordRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), medicalRecordHandler.UpdateMedicalRecord)
			medicalRecordRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), medicalRecordHandler.DeleteMedicalRecord)

			// Attachment routes for a specific medical record
			attachmentRoutes := medicalRecordRoutes.Group("/:id/attachments")
			attachmentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
			{
				attachmentRoutes.POST("", medicalRecordHandler.UploadMedicalRecordAttachment)
			}

			// Attachment fetch by its own globally unique ID; access mirrors
			// the parent record and is checked in the handler
			private.GET("/medical-records/attachments/:attachmentId", medicalRecordHandler.GetMedicalRecordAttachment)
		}

		// Prescription routes
		prescriptionRoutes := private.Group("/prescriptions")
		{
			prescriptionRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), prescriptionHandler.CreatePrescription)
			prescriptionRoutes.GET("/patient/:patientId", prescriptionHandler.GetPrescriptionsForPatient)
		}

		// Notification feed routes
		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetNotifications)
			notificationRoutes.PATCH("/:notificationId/read", notificationHandler.MarkNotificationAsRead)
			notificationRoutes.PATCH("/read-all", notificationHandler.MarkAllNotificationsAsRead)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
