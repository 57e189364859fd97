package routes

import (
	"github.com/gin-gonic/gin"

	"traiteur_devis/internal/adapter/http/handlers"
	"traiteur_devis/internal/adapter/http/middleware"
)

const (
	PathOrders          = "/orders"
	PathBudgets         = "/budgets"
	PathDeposits        = "/deposits"
	PathDepositPayments = "/deposit-payments"
)

func addPingRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", handlers.Ping)
}

func addOrderRoutes(rg *gin.RouterGroup, deps Deps) {
	submit := []gin.HandlerFunc{}
	if deps.OrderLimiter != nil {
		submit = append(submit, deps.OrderLimiter.Handler())
	}
	if deps.Idempotency != nil {
		submit = append(submit, middleware.Idempotency(deps.Idempotency, "orders", deps.Log))
	}
	submit = append(submit, deps.Orders.CreateOrder)

	orders := rg.Group(PathOrders)
	{
		orders.POST("", submit...)
		orders.GET("/:id", deps.Orders.GetOrder)
		orders.POST("/:id/budget", deps.Budgets.GenerateBudget)
		orders.GET("/:id/budget", deps.Budgets.GetBudgetByOrder)
	}
}

func addBudgetRoutes(rg *gin.RouterGroup, budgetHandler *handlers.BudgetHandler, depositHandler *handlers.DepositHandler) {
	budgets := rg.Group(PathBudgets)
	{
		budgets.GET("/:id", budgetHandler.GetBudget)
		budgets.PUT("/:id", budgetHandler.EditBudget)
		budgets.GET("/:id/history", budgetHandler.GetHistory)
		budgets.POST("/:id/pdf", budgetHandler.GeneratePDF)
		budgets.POST("/:id/approve", budgetHandler.ApproveAndSend)
		budgets.POST("/:id/mark-sent", budgetHandler.MarkSent)
		budgets.POST("/:id/reject", budgetHandler.RejectBudget)
		budgets.GET("/:id/deposits", depositHandler.ListBudgetDeposits)
	}
}

func addDepositRoutes(rg *gin.RouterGroup, depositHandler *handlers.DepositHandler) {
	deposits := rg.Group(PathDeposits)
	{
		deposits.POST("/:budget_id", depositHandler.CreateDeposit)
		deposits.GET("/:budget_id", depositHandler.GetLatestDeposit)
	}
	rg.GET(PathDepositPayments+"/:id", depositHandler.GetDeposit)
}
