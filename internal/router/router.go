// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/syndicator/backend/internal/config"
	"github.com/syndicator/backend/internal/handlers"
	"github.com/syndicator/backend/internal/middleware"
	"github.com/syndicator/backend/internal/services"
	"github.com/syndicator/backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	authService := services.NewAuthService(db, cfg)
	friendService := services.NewFriendService(db)
	transactionService := services.NewTransactionService(db, friendService)
	portfolioService := services.NewPortfolioService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	friendHandler := handlers.NewFriendHandler(friendService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Friend routes
		friends := v1.Group("/friends")
		friends.Use(middleware.AuthRequired())
		{
			friends.GET("", friendHandler.ListFriends)
			friends.POST("/requests", friendHandler.SendRequest)
			friends.GET("/requests", friendHandler.ListRequests)
			friends.PATCH("/requests/:id", friendHandler.UpdateRequest)
		}

		// Transaction routes
		transactions := v1.Group("/transactions")
		transactions.Use(middleware.AuthRequired())
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
			transactions.GET("/:id/allocations", transactionHandler.GetTransactionAllocations)
		}

		// Allocation routes
		allocations := v1.Group("/allocations")
		allocations.Use(middleware.AuthRequired())
		{
			allocations.GET("", transactionHandler.GetUserAllocations)
		}

		// Portfolio routes
		portfolio := v1.Group("/portfolio")
		portfolio.Use(middleware.AuthRequired())
		{
			portfolio.GET("", portfolioHandler.GetPortfolio)
		}
	}

	return r
}
