// Package routes assembles the gin engine: middlewares, API routes, swagger and
// the Prometheus endpoint.
package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "traiteur_devis/docs"
	"traiteur_devis/internal/adapter/http/handlers"
	"traiteur_devis/internal/adapter/http/middleware"
	"traiteur_devis/internal/infrastructure/metrics"
)

// Deps are the handlers and middlewares the router wires. Idempotency is
// optional; without it POST /orders has no duplicate guard.
type Deps struct {
	Orders         *handlers.OrderHandler
	Budgets        *handlers.BudgetHandler
	Deposits       *handlers.DepositHandler
	OrderLimiter   *middleware.RateLimiter
	Idempotency    middleware.IdempotencyStore
	AllowedOrigins []string
	Log            *logrus.Logger
}

// NewRouter returns the configured engine.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	setMiddlewares(router, deps)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addOrderRoutes(v1, deps)
	addBudgetRoutes(v1, deps.Budgets, deps.Deposits)
	addDepositRoutes(v1, deps.Deposits)
	return router
}

func setMiddlewares(router *gin.Engine, deps Deps) {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		deps.Log.WithField("panic", recovered).Error("[http] recovered from panic")
		c.AbortWithStatus(500)
	}))
	router.Use(metrics.GinMiddleware())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.HeaderIdempotencyKey)
	if len(deps.AllowedOrigins) == 0 || (len(deps.AllowedOrigins) == 1 && deps.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = deps.AllowedOrigins
	}
	router.Use(cors.New(corsCfg))
}
