package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/atharvakonge/stock-portfolio/internal/quote"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxStreamTickers = 20
	writeWait        = 10 * time.Second
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (for development and demo)
	},
}

// parseTickers splits "?tickers=A,B", normalizing and dropping duplicates
func parseTickers(raw string) []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, part := range strings.Split(raw, ",") {
		t := quote.NormalizeTicker(part)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	return tickers
}

// streamPrices handles GET /ws/prices?tickers=A,B. Every interval it sends
// one PriceUpdate per ticker whose price moved since the last frame.
func (s *Server) streamPrices(c *gin.Context) {
	tickers := parseTickers(c.Query("tickers"))
	if len(tickers) == 0 || len(tickers) > maxStreamTickers {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "tickers must list between 1 and 20 symbols"})
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	s.Logger.Info("client connected to price stream", zap.Strings("tickers", tickers))

	ctx := c.Request.Context()

	// Reader loop: notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	last := make(map[string]decimal.Decimal, len(tickers))

	send := func() bool {
		for _, symbol := range tickers {
			price, err := s.Oracle.Price(ctx, symbol)
			if err != nil {
				s.Logger.Debug("price stream lookup failed", zap.String("ticker", symbol), zap.Error(err))
				continue
			}

			prev, seen := last[symbol]
			if seen && prev.Equal(price) {
				continue
			}
			last[symbol] = price

			change := 0.0
			if seen && !prev.IsZero() {
				change, _ = price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Float64()
			}

			update := quote.PriceUpdate{
				Symbol:    symbol,
				Price:     price,
				Change:    change,
				Timestamp: time.Now(),
			}

			// Send to client
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(update); err != nil {
				s.Logger.Debug("websocket write error", zap.Error(err))
				return false
			}
		}
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(s.WSInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			s.Logger.Info("client disconnected from price stream")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
