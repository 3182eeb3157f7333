package router

import (
	"time"

	"centsible/api"
	"centsible/config"
	_ "centsible/docs"
	"centsible/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			// 登录接口限流：每 IP 每分钟最多 10 次
			auth.POST("/login", middleware.LoginRateLimit(10, time.Minute), authHandler.Login)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)
			authorized.PUT("/auth/settings", authHandler.UpdateSettings)

			// 消费类别相关
			categoryHandler := api.NewCategoryHandler()
			categories := authorized.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.POST("", categoryHandler.Create)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			// 消费记录相关
			expenseHandler := api.NewExpenseHandler(cfg)
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/payment-methods", expenseHandler.GetPaymentMethods)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 预算与预警相关
			budgetHandler := api.NewBudgetHandler(cfg)
			budgets := authorized.Group("/budgets")
			{
				budgets.GET("", budgetHandler.Index)
				budgets.PUT("/category/:id", budgetHandler.SaveCategoryBudget)
				budgets.GET("/category/:id/history", budgetHandler.History)
				budgets.GET("/alerts", budgetHandler.ListAlerts)
				budgets.POST("/alerts/mark-read", budgetHandler.MarkAlertsRead)
			}

			// 报表相关
			reportHandler := api.NewReportHandler()
			authorized.GET("/dashboard", reportHandler.Dashboard)
			reports := authorized.Group("/reports")
			{
				reports.GET("", reportHandler.Reports)
				reports.GET("/spending-history", reportHandler.SpendingHistory)
				reports.GET("/trends", reportHandler.CategoryTrends)
			}

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
				export.GET("/json", exportHandler.ExportJSON)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
