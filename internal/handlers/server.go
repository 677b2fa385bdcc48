package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/atharvakonge/stock-portfolio/internal/engine"
	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Accounts is the part of the account service the HTTP layer calls directly.
// Trades go through the TradeProcessor instead.
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) error
	Quote(ctx context.Context, ticker string) (models.QuoteResponse, error)
	History(ctx context.Context, username, password string, limit int) ([]models.Trade, error)
}

type Server struct {
	R          *gin.Engine
	Accounts   Accounts
	Processor  *TradeProcessor
	Oracle     engine.PriceOracle
	Logger     *zap.Logger
	WSInterval time.Duration
}

// NewServer wires the router, services, and middleware.
func NewServer(accounts Accounts, processor *TradeProcessor, oracle engine.PriceOracle, logger *zap.Logger, corsOrigin string, wsInterval time.Duration) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			c.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	if wsInterval <= 0 {
		wsInterval = time.Second
	}

	s := &Server{
		R:          g,
		Accounts:   accounts,
		Processor:  processor,
		Oracle:     oracle,
		Logger:     logger,
		WSInterval: wsInterval,
	}

	api := g.Group("/api")
	{
		api.POST("/login", s.login)
		api.POST("/signup", s.signup)
		api.POST("/live_price", s.livePrice)
		api.POST("/trades", s.trade)
		api.POST("/trades/history", s.history)
	}

	// WebSocket endpoint
	g.GET("/ws/prices", s.streamPrices)

	// Health check
	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return s
}
