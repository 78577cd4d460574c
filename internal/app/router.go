package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	goredis "github.com/redis/go-redis/v9"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/handler"
	"ridebook/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	RideHandler    *handler.RideHandler
	PaymentHandler *handler.PaymentHandler
	TokenManager   *auth.Manager
	Revocations    auth.RevocationChecker
	RedisClient    *goredis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	anyRole := auth.Required(deps.TokenManager, deps.Revocations)
	riderOnly := auth.Required(deps.TokenManager, deps.Revocations, domain.RoleRider)
	driverOnly := auth.Required(deps.TokenManager, deps.Revocations, domain.RoleDriver)

	// Account routes.
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", deps.AuthHandler.Signup)
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.GET("/me", anyRole, deps.AuthHandler.Me)
		authGroup.POST("/profile", anyRole, deps.AuthHandler.UpdateProfile)
		authGroup.POST("/logout", anyRole, deps.AuthHandler.Logout)
	}

	// Ride lifecycle routes.
	rides := router.Group("/ride")
	{
		rides.POST("/request", riderOnly, deps.RideHandler.Request)
		rides.GET("/my-rides", riderOnly, deps.RideHandler.MyRides)
		rides.GET("/driver/:ride_id", riderOnly, deps.RideHandler.DriverDetails)

		rides.GET("/available", driverOnly, deps.RideHandler.Available)
		rides.GET("/current", driverOnly, deps.RideHandler.Current)
		rides.GET("/completed", driverOnly, deps.RideHandler.Completed)
		rides.GET("/stats", driverOnly, deps.RideHandler.Stats)
		rides.POST("/accept/:ride_id", driverOnly, deps.RideHandler.Accept)
		rides.POST("/start/:ride_id", driverOnly, deps.RideHandler.Start)
		rides.POST("/complete/:ride_id", driverOnly, deps.RideHandler.Complete)
		rides.POST("/cancel/:ride_id", driverOnly, deps.RideHandler.Cancel)
	}

	// Payment routes.
	payments := router.Group("/payment")
	{
		payments.POST("/create-order", riderOnly, deps.PaymentHandler.CreateOrder)
		payments.POST("/verify", riderOnly, deps.PaymentHandler.Verify)
		payments.GET("/status/:ride_id", riderOnly, deps.PaymentHandler.Status)
		payments.POST("/cancel", riderOnly, deps.PaymentHandler.Cancel)
	}

	return router
}
