package routes

import (
	"admissions-portal-api/controllers"
	"admissions-portal-api/middleware"
	"admissions-portal-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)
			public.POST("/register", controllers.Register)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Admissions Portal API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Student applications
			applications := protected.Group("/applications")
			{
				applications.POST("", middleware.RequireRole(models.RoleStudent), controllers.CreateApplication)
				applications.GET("", middleware.RequireRole(models.RoleStudent), controllers.GetMyApplications)
				applications.GET("/:id", middleware.RequireRole(models.RoleStudent), controllers.GetApplication)
				applications.PUT("/:id", middleware.RequireRole(models.RoleStudent), controllers.UpdateApplication)
				applications.DELETE("/:id", middleware.RequireRole(models.RoleStudent), controllers.DeleteApplication)

				applications.POST("/:id/documents", middleware.RequireRole(models.RoleStudent), controllers.UploadDocument)
				applications.GET("/:id/documents", controllers.GetDocuments)
			}

			// Documents
			documents := protected.Group("/documents")
			{
				documents.GET("/types", controllers.GetDocumentTypes)
				documents.GET("/download/:document_id", controllers.DownloadDocument)
				documents.DELETE("/:document_id", middleware.RequireRole(models.RoleStudent), controllers.DeleteDocument)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PUT("/read/:id", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Student dashboard
			protected.GET("/dashboard/summary", middleware.RequireRole(models.RoleStudent), controllers.GetStudentSummary)

			// Admin portal
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/applications", controllers.AdminListApplications)
				admin.GET("/applications/:id/details", controllers.AdminGetApplicationDetails)
				admin.GET("/applications/:id/history", controllers.AdminGetStatusHistory)
				admin.PUT("/applications/:id/status", controllers.AdminUpdateApplicationStatus)
				admin.POST("/applications/bulk-status", controllers.AdminBulkUpdateApplicationStatus)

				admin.GET("/students", controllers.AdminListStudents)
				admin.GET("/students/:id", controllers.AdminGetStudent)
				admin.DELETE("/students/:id", controllers.AdminDeactivateStudent)
				admin.POST("/students/:id/reactivate", controllers.AdminReactivateStudent)

				admin.POST("/notifications/broadcast", controllers.AdminBroadcastNotification)

				admin.GET("/dashboard/stats", controllers.GetDashboardStats)
			}
		}

	}

	// 404 catch-all
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Endpoint not found"})
	})
}
