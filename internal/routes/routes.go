package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hospital-ops-server/internal/admissions"
	"hospital-ops-server/internal/config"
	"hospital-ops-server/internal/handlers"
	"hospital-ops-server/internal/middleware"
	"hospital-ops-server/internal/models"
	"hospital-ops-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log zerolog.Logger) {
	// Core services
	schedulingSvc := scheduling.NewService(db, log)
	admissionSvc := admissions.NewService(db, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	appointmentHandler := handlers.NewAppointmentHandler(schedulingSvc)
	admissionHandler := handlers.NewAdmissionHandler(db, admissionSvc)
	roomHandler := handlers.NewRoomHandler(admissionSvc.Rooms())
	doctorHandler := handlers.NewDoctorHandler(db)
	patientHandler := handlers.NewPatientHandler(db)

	// Public routes: the booking UI works without an account, appointments
	// are tracked by booking token.
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		public.GET("/doctors", doctorHandler.GetDoctors)

		appointmentRoutes := public.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.BookAppointment)
			appointmentRoutes.GET("/track/:token", appointmentHandler.TrackAppointment)
			appointmentRoutes.PUT("/track/:token", appointmentHandler.RescheduleAppointment)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
		}

		// Clinician portal
		doctorOnly := private.Group("")
		doctorOnly.Use(middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin))
		{
			doctorOnly.PATCH("/appointments/:id/notes", appointmentHandler.UpdateAppointmentNotes)

			admissionRoutes := doctorOnly.Group("/admissions")
			{
				admissionRoutes.POST("", admissionHandler.AdmitPatient)
				admissionRoutes.GET("/admitted", admissionHandler.ListAdmitted)
				admissionRoutes.GET("/discharged", admissionHandler.ListDischarged)
				admissionRoutes.POST("/:id/discharge", admissionHandler.DischargePatient)
				admissionRoutes.PATCH("/:id/notes", admissionHandler.UpdateAdmissionNotes)
			}

			doctorOnly.GET("/patients/search", patientHandler.SearchPatients)
			doctorOnly.GET("/rooms/available", roomHandler.ListAvailableRooms)
		}

		// Admin portal
		adminOnly := private.Group("")
		adminOnly.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminOnly.GET("/rooms", roomHandler.ListRooms)
			adminOnly.PATCH("/rooms/:id/status", roomHandler.SetRoomStatus)
			adminOnly.POST("/doctors", doctorHandler.CreateDoctor)
		}
	}
}
