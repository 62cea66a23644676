package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/controllers"
	"github.com/printworks-studio/printworks-api/middleware"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/printworks-studio/printworks-api/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Msg("Starting PrintWorks API server...")

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderNote{},
		&models.Proof{},
		&models.Annotation{},
		&models.Communication{},
		&models.AuditLog{},
		&models.OrderAck{},
	); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Msg("Database migration completed successfully")

	// Initialize backing services
	if _, err := services.InitS3Service(); err != nil {
		log.Warn().Err(err).Msg("S3 service unavailable, proof uploads will fail")
	}
	services.InitMailer()

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Info().Msgf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// setupRouter wires every route group. Admin routes require a valid
// Auth0 token; the proof-review group is reachable by access token only;
// the checkout and inbound-email endpoints are public.
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.PublicURL, "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		// Public endpoints. Checkout validates a bearer token when one is
		// sent so logged-in customers get linked to their order.
		v1.POST("/orders", middleware.OptionalToken(cfg), controllers.CreateOrder)
		v1.POST("/webhooks/email/inbound", controllers.ReceiveInboundEmail)

		// Token-addressed proof review (no login)
		public := v1.Group("/proof-review")
		{
			public.GET("/:token", controllers.GetProofByToken)
			public.POST("/:token/annotations", controllers.AnnotateProofByToken)
			public.POST("/:token/approve", controllers.ApproveProofByToken)
		}

		// Authenticated routes
		authed := v1.Group("")
		authed.Use(middleware.EnsureValidToken(cfg))
		{
			authed.POST("/users", controllers.CreateUser)
			authed.GET("/users/me", controllers.GetMyProfile)
			authed.PUT("/users/me", controllers.UpdateMyProfile)
		}

		// Admin-only routes
		admin := v1.Group("")
		admin.Use(middleware.EnsureValidToken(cfg), middleware.RequireAdmin())
		{
			admin.GET("/users/admins", controllers.ListAdmins)
			admin.DELETE("/users/:id", controllers.DeleteUser)

			admin.GET("/orders", controllers.ListOrders)
			admin.GET("/orders/:id", controllers.GetOrder)
			admin.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
			admin.PATCH("/orders/:id/assignment", controllers.UpdateOrderAssignment)
			admin.PUT("/orders/:id/shipping", controllers.UpdateOrderShipping)
			admin.PUT("/orders/:id/items", controllers.UpdateOrderItems)
			admin.PUT("/orders/:id/cc-emails", controllers.UpdateOrderCCEmails)
			admin.POST("/orders/:id/notes", controllers.AddOrderNote)
			admin.DELETE("/orders/:id/notes/:noteId", controllers.DeleteOrderNote)
			admin.DELETE("/orders/:id", controllers.ArchiveOrder)

			admin.GET("/orders/:id/proofs", controllers.ListProofs)
			admin.POST("/orders/:id/proofs", controllers.UploadProof)
			admin.DELETE("/orders/:id/proofs/:proofId", controllers.DeleteProof)
			admin.POST("/orders/:id/proofs/:proofId/annotations", controllers.AnnotateProof)
			admin.PATCH("/orders/:id/proofs/:proofId/annotations/:annotationId/resolve", controllers.ResolveAnnotation)

			admin.GET("/orders/:id/communications", controllers.ListCommunications)
			admin.POST("/orders/:id/communications", controllers.SendOrderEmail)

			admin.GET("/orders/:id/notifications", controllers.OrderUnread)
			admin.POST("/orders/:id/notifications/ack", controllers.AcknowledgeOrder)
			admin.GET("/notifications", controllers.NotificationSummary)

			admin.GET("/audit", controllers.QueryAuditLog)
			admin.GET("/audit/recent", controllers.RecentAuditEntries)
			admin.GET("/audit/filters", controllers.AuditFilterValues)

			admin.GET("/products", controllers.ListProducts)
			admin.GET("/products/:id", controllers.GetProduct)
			admin.POST("/products", controllers.CreateProduct)
			admin.PUT("/products/:id", controllers.UpdateProduct)
			admin.DELETE("/products/:id", controllers.DeleteProduct)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "PrintWorks API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
