package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "fintrack/internal/docs" // Import swagger docs
	"fintrack/internal/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
)

// Router builds the HTTP router with every route registered.
func (a *App) Router() *gin.Engine {
	authHandler := handlers.NewAuthHandler(a.Users, a.Audit)
	userHandler := handlers.NewUserHandler(a.Users, a.Audit)
	transactionHandler := handlers.NewTransactionHandler(a.Transactions, a.Audit)
	budgetHandler := handlers.NewBudgetHandler(a.Budgets, a.Audit)
	savingsHandler := handlers.NewSavingsHandler(a.Savings, a.Audit)
	goalHandler := handlers.NewGoalHandler(a.Goals, a.Audit)
	reportHandler := handlers.NewReportHandler(a.Reports, a.Audit)
	currencyHandler := handlers.NewCurrencyHandler(a.Converter)
	adminHandler := handlers.NewAdminHandler(a.Advancer, a.Evaluator, a.Audit)
	jobsHandler := handlers.NewJobsHandler(a.Scheduler)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.HTTPMetrics())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/health", func(c *gin.Context) {
		if sqlDB, err := a.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// External triggers for the scheduled jobs
	jobs := router.Group("/internal/jobs")
	jobs.Use(middleware.JobsAuthMiddleware(a.Config.JobsAPIKey))
	jobs.GET("", jobsHandler.ListJobs)
	jobs.POST("/:name", jobsHandler.RunJob)

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	users := protected.Group("/users")
	users.GET("", middleware.RequireRole(models.RoleAdmin), userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)

	savings := protected.Group("/savings")
	savings.POST("", savingsHandler.CreateSavings)
	savings.GET("", savingsHandler.GetSavings)
	savings.PUT("/:id", savingsHandler.UpdateSavings)
	savings.DELETE("/:id", savingsHandler.DeleteSavings)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetGoals)
	goals.GET("/achieve-months", goalHandler.GetAchieveMonths)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.GET("/:id/progress", goalHandler.GetGoalProgress)

	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetSummary)
	reports.GET("/trends", reportHandler.GetSpendingTrends)
	reports.GET("/income-vs-expense", reportHandler.GetIncomeVsExpense)
	reports.GET("/transactions", reportHandler.GetTransactions)
	reports.GET("/export", reportHandler.ExportReport)

	protected.GET("/currency/convert", currencyHandler.Convert)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.POST("/recurrences/advance", adminHandler.AdvanceRecurrences)
	admin.POST("/budget-checks", adminHandler.RunBudgetChecks)

	return router
}
