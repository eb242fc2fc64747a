package router

import (
	"time"

	"sooraneh/api"
	"sooraneh/config"
	_ "sooraneh/docs"
	"sooraneh/middleware"

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

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录），登录与注册带限流
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			loginLimit := middleware.LoginRateLimit(5, time.Minute)
			auth.POST("/register", loginLimit, authHandler.Register)
			auth.POST("/login", loginLimit, authHandler.Login)

			// 密码重置
			auth.POST("/password/request-reset", authHandler.RequestPasswordReset)
			auth.GET("/password/verify-token", authHandler.VerifyResetToken)
			auth.POST("/password/reset", authHandler.ResetPassword)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/profile", authHandler.UpdateProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			// 钱包
			walletHandler := api.NewWalletHandler()
			wallets := authorized.Group("/wallets")
			{
				wallets.POST("", walletHandler.Create)
				wallets.GET("", walletHandler.List)
				wallets.GET("/:id", walletHandler.Get)
				wallets.PUT("/:id", walletHandler.Update)
				wallets.DELETE("/:id", walletHandler.Delete)
			}

			// 收入
			incomeHandler := api.NewIncomeHandler()
			incomes := authorized.Group("/incomes")
			{
				incomes.POST("", incomeHandler.Create)
				incomes.GET("", incomeHandler.List)
				incomes.GET("/:id", incomeHandler.Get)
				incomes.PUT("/:id", incomeHandler.Update)
				incomes.DELETE("/:id", incomeHandler.Delete)
			}

			// 支出
			expenseHandler := api.NewExpenseHandler()
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 相关人
			personHandler := api.NewPersonHandler()
			persons := authorized.Group("/persons")
			{
				persons.POST("", personHandler.Create)
				persons.GET("", personHandler.List)
				persons.PUT("/:id", personHandler.Update)
				persons.DELETE("/:id", personHandler.Delete)
			}

			// 类别
			categoryHandler := api.NewCategoryHandler()
			categories := authorized.Group("/categories")
			{
				categories.POST("", categoryHandler.Create)
				categories.GET("", categoryHandler.List)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			// 标签
			tagHandler := api.NewTagHandler()
			tags := authorized.Group("/tags")
			{
				tags.POST("", tagHandler.Create)
				tags.GET("", tagHandler.List)
				tags.PUT("/:id", tagHandler.Update)
				tags.DELETE("/:id", tagHandler.Delete)
			}

			// 预算
			budgetHandler := api.NewBudgetHandler()
			budgets := authorized.Group("/budgets")
			{
				budgets.POST("", budgetHandler.Create)
				budgets.GET("", budgetHandler.List)
				budgets.PUT("/:id", budgetHandler.Update)
				budgets.DELETE("/:id", budgetHandler.Delete)
			}

			// 借贷
			debtHandler := api.NewDebtHandler()
			debts := authorized.Group("/debts")
			{
				debts.POST("", debtHandler.CreateDebt)
				debts.GET("", debtHandler.ListDebts)
				debts.PUT("/:id", debtHandler.UpdateDebt)
				debts.DELETE("/:id", debtHandler.DeleteDebt)
			}
			credits := authorized.Group("/credits")
			{
				credits.POST("", debtHandler.CreateCredit)
				credits.GET("", debtHandler.ListCredits)
				credits.PUT("/:id", debtHandler.UpdateCredit)
				credits.DELETE("/:id", debtHandler.DeleteCredit)
			}

			// 分期付款
			installmentHandler := api.NewInstallmentHandler()
			installments := authorized.Group("/installments")
			{
				installments.POST("", installmentHandler.Create)
				installments.GET("", installmentHandler.List)
				installments.GET("/:id", installmentHandler.Get)
				installments.POST("/:id/details/:detail_id/pay", installmentHandler.PayDetail)
				installments.DELETE("/:id", installmentHandler.Delete)
			}

			// 分摊群组
			groupHandler := api.NewGroupHandler()
			groups := authorized.Group("/groups")
			{
				groups.POST("", groupHandler.Create)
				groups.GET("", groupHandler.List)
				groups.GET("/:id", groupHandler.Get)
				groups.PUT("/:id", groupHandler.Update)
				groups.DELETE("/:id", groupHandler.Delete)
				groups.POST("/:id/members", groupHandler.AddMember)
				groups.DELETE("/:id/members/:user_id", groupHandler.RemoveMember)
				groups.POST("/:id/expenses", groupHandler.CreateExpense)
				groups.GET("/:id/expenses", groupHandler.ListExpenses)
				groups.GET("/:id/summary", groupHandler.Summary)
			}

			// 互助会
			fundHandler := api.NewFundHandler()
			funds := authorized.Group("/funds")
			{
				funds.POST("", fundHandler.Create)
				funds.GET("", fundHandler.List)
				funds.GET("/:id", fundHandler.Get)
				funds.POST("/:id/members", fundHandler.AddMember)
				funds.POST("/:id/contributions", fundHandler.Contribute)
				funds.POST("/:id/payouts", fundHandler.CreatePayout)
				funds.GET("/:id/payouts", fundHandler.ListPayouts)
				funds.POST("/:id/leave", fundHandler.Leave)
			}

			// 楼栋
			buildingHandler := api.NewBuildingHandler()
			buildings := authorized.Group("/buildings")
			{
				buildings.POST("", buildingHandler.Create)
				buildings.GET("", buildingHandler.List)
				buildings.DELETE("/:id", buildingHandler.Delete)
				buildings.POST("/:id/units", buildingHandler.AddUnit)
				buildings.POST("/:id/expenses", buildingHandler.CreateExpense)
				buildings.POST("/:id/apportion", buildingHandler.Apportion)
				buildings.GET("/:id/fees", buildingHandler.ListFees)
				buildings.POST("/:id/fees/:fee_id/pay", buildingHandler.PayFee)
			}

			// 订阅与支付
			subscriptionHandler := api.NewSubscriptionHandler()
			authorized.GET("/plans", subscriptionHandler.ListPlans)
			authorized.POST("/subscriptions", subscriptionHandler.Subscribe)
			authorized.GET("/subscriptions/current", subscriptionHandler.Current)
			authorized.GET("/payments", subscriptionHandler.ListPayments)
			authorized.POST("/payments/confirm", subscriptionHandler.ConfirmPayment)

			// 好友
			friendshipHandler := api.NewFriendshipHandler()
			friendships := authorized.Group("/friendships")
			{
				friendships.POST("", friendshipHandler.SendRequest)
				friendships.GET("", friendshipHandler.ListFriends)
				friendships.GET("/pending", friendshipHandler.ListPending)
				friendships.POST("/:id/respond", friendshipHandler.Respond)
				friendships.DELETE("/:id", friendshipHandler.Remove)
			}

			// 私信
			messageHandler := api.NewMessageHandler()
			messages := authorized.Group("/messages")
			{
				messages.POST("", messageHandler.Send)
				messages.GET("/conversations/:user_id", messageHandler.Conversation)
				messages.GET("/unread", messageHandler.UnreadCount)
			}

			// 统计
			statsHandler := api.NewStatsHandler()
			stats := authorized.Group("/stats")
			{
				stats.GET("/overview", statsHandler.Overview)
				stats.GET("/monthly", statsHandler.Monthly)
			}

			// 导出
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
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
