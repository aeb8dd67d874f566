package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/handlers"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

func NewRouter(claims *handlers.ClaimHandler, orders *handlers.OrderHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": telemetry.ServiceName})
	})

	r.GET("/orders/:id/context", orders.GetOrderContext)

	r.POST("/claims", claims.SubmitClaim)
	r.GET("/claims", claims.ListClaims)
	r.GET("/claims/stats", claims.ClaimStats)
	r.GET("/claims/watch", claims.WatchClaims)
	r.GET("/claims/:id", claims.GetClaim)
	r.POST("/claims/:id/override", claims.OverrideClaim)
	r.POST("/claims/:id/respond", claims.RespondToOffer)

	r.GET("/customers/:id/claims", claims.CustomerClaims)

	return r
}
