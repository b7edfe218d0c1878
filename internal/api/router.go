package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/havenlet-escrow-ledger/internal/api/handler"
	"github.com/havenlet-escrow-ledger/internal/api/middleware"
	"github.com/havenlet-escrow-ledger/internal/config"
)

// setupRouter configures API routes and middleware for the application.
// All /escrow routes sit behind the identity middleware; wrong verbs on
// known routes answer 405 instead of gin's default 404.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	cfg *config.Config,
	cache *redis.Client,
	escrowHandler *handler.EscrowHandler,
	auditHandler *handler.AuditHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		handler.RespondMethodNotAllowed(c)
	})

	escrow := r.Group("/escrow")
	escrow.Use(middleware.Auth(cfg.Auth.JWTSecret))
	escrow.Use(middleware.Idempotency(cache, cfg.Redis.IdempotencyTTL, logger))
	{
		escrow.GET("", escrowHandler.GetAccount)
		escrow.GET("/balance", escrowHandler.GetBalance)
		escrow.POST("/deposit", escrowHandler.Deposit)
		escrow.POST("/withdraw", escrowHandler.Withdraw)
		escrow.GET("/audit", auditHandler.GetTrail)
		escrow.GET("/audit/:transaction_id", auditHandler.GetByTransactionID)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
