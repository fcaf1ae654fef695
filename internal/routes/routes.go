package routes

import (
	"telehealth-server/internal/config"
	"telehealth-server/internal/handlers"
	"telehealth-server/internal/middleware"
	"telehealth-server/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db)
	meetHandler := handlers.NewMeetHandler(db)
	reviewHandler := handlers.NewReviewHandler(db)

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
		// Auth related (profile, logout)
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes (typically admin-only)
		userRoutes := private.Group("/users")
		{
			// Doctor directory - accessible by all authenticated users
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			// Patients a doctor has seen - doctors and admins
			userRoutes.GET("/doctor-patients", middleware.IdentityMiddleware(db), userHandler.GetDoctorPatients)

			// Admin-only routes
			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin)) // Only Admins
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Appointment routes. Every handler works on the caller's resolved
		// identity, so the identity middleware runs for the whole group.
		appointmentRoutes := private.Group("/appointments")
		appointmentRoutes.Use(middleware.IdentityMiddleware(db))
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/upcoming", appointmentHandler.GetUpcomingAppointments)
			appointmentRoutes.GET("/past", appointmentHandler.GetPastAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Generic update is restricted to doctors and admins; the named
			// actions below enforce their own preconditions.
			appointmentRoutes.PATCH("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), appointmentHandler.UpdateAppointment)

			appointmentRoutes.POST("/:id/confirm", appointmentHandler.ConfirmAppointment)
			appointmentRoutes.POST("/:id/start", appointmentHandler.StartAppointment)
			appointmentRoutes.POST("/:id/complete", appointmentHandler.CompleteAppointment)
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.POST("/:id/report-issue", appointmentHandler.ReportTechnicalIssue)
		}

		// Meeting room lookup (members only, checked in handler)
		private.GET("/meets/:id", meetHandler.GetMeetByID)

		// Review routes
		reviewRoutes := private.Group("/reviews")
		{
			reviewRoutes.POST("/doctors/:doctorId", reviewHandler.CreateDoctorReview)
			reviewRoutes.GET("/doctors/:doctorId", reviewHandler.GetDoctorReviews)
			reviewRoutes.POST("/hospitals/:hospitalId", reviewHandler.CreateHospitalReview)
			reviewRoutes.GET("/hospitals/:hospitalId", reviewHandler.GetHospitalReviews)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
