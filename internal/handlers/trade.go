package handlers

import (
	"net/http"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// login handles POST /api/login
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	user, err := s.Accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// signup handles POST /api/signup
func (s *Server) signup(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.Accounts.Register(c.Request.Context(), req); err != nil {
		s.fail(c, "signup", err)
		return
	}

	c.JSON(http.StatusOK, models.AckResponse{Ack: "Account created successfully."})
}

// livePrice handles POST /api/live_price
func (s *Server) livePrice(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	q, err := s.Accounts.Quote(c.Request.Context(), req.Ticker)
	if err != nil {
		s.fail(c, "live_price", err)
		return
	}

	c.JSON(http.StatusOK, q)
}

// trade handles POST /api/trades
func (s *Server) trade(c *gin.Context) {
	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	user, err := s.Processor.SubmitTrade(c.Request.Context(), req)
	if err != nil {
		s.fail(c, "trade", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// history handles POST /api/trades/history
func (s *Server) history(c *gin.Context) {
	var req models.HistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	trades, err := s.Accounts.History(c.Request.Context(), req.Username, req.Password, req.Limit)
	if err != nil {
		s.fail(c, "history", err)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	c.JSON(http.StatusOK, models.HistoryResponse{Trades: trades, Count: len(trades)})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
}

// fail renders err with its status. Unclassified errors are logged and
// hidden behind a generic message.
func (s *Server) fail(c *gin.Context, where string, err error) {
	status, msg := describe(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.String("where", where), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, models.ErrorResponse{Error: msg})
}
