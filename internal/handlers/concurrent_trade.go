package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"go.uber.org/zap"
)

var ErrProcessorStopped = errors.New("trade processor stopped")

// Trader executes one trade to completion
type Trader interface {
	Trade(ctx context.Context, req models.TradeRequest) (models.User, error)
}

// TradeResult represents result of a trade operation
type TradeResult struct {
	User models.User
	Err  error
}

// TradeRequest represents a trade to be processed
type TradeRequest struct {
	ctx      context.Context
	Request  models.TradeRequest
	ResultCh chan TradeResult // Channel to send result back
}

// TradeProcessor handles concurrent trade processing
type TradeProcessor struct {
	workers    int
	trader     Trader
	tradeQueue chan TradeRequest
	stopCh     chan struct{}
	stopMu     sync.RWMutex // held for writing while stopping, for reading while enqueuing
	stopped    bool
	wg         sync.WaitGroup
	logger     *zap.Logger
}

// NewTradeProcessor creates a new trade processor with worker pool
func NewTradeProcessor(workers int, trader Trader, logger *zap.Logger) *TradeProcessor {
	if workers < 1 {
		workers = 1
	}
	return &TradeProcessor{
		workers:    workers,
		trader:     trader,
		tradeQueue: make(chan TradeRequest, 100), // Buffer of 100 trades
		stopCh:     make(chan struct{}),
		logger:     logger,
	}
}

// Start starts the worker pool
func (tp *TradeProcessor) Start() {
	for i := 0; i < tp.workers; i++ {
		tp.wg.Add(1)
		go tp.worker(i)
	}
	tp.logger.Info("started trade workers", zap.Int("workers", tp.workers))
}

// Stop gracefully stops all workers. Trades already picked up finish first;
// queued ones are answered with ErrProcessorStopped.
func (tp *TradeProcessor) Stop() {
	tp.stopMu.Lock()
	if !tp.stopped {
		tp.stopped = true
		close(tp.stopCh)
	}
	tp.stopMu.Unlock()

	tp.wg.Wait()
	// Covers a processor that was never started
	tp.drain(-1)
	tp.logger.Info("trade processor stopped")
}

// worker processes trades from the queue
func (tp *TradeProcessor) worker(id int) {
	defer tp.wg.Done()

	for {
		// Stop wins over queued work
		select {
		case <-tp.stopCh:
			tp.drain(id)
			return
		default:
		}

		select {
		case <-tp.stopCh:
			tp.drain(id)
			return

		case tradeReq := <-tp.tradeQueue:
			// Submitter already gave up, skip the trade
			if err := tradeReq.ctx.Err(); err != nil {
				tradeReq.ResultCh <- TradeResult{Err: err}
				continue
			}

			tp.logger.Debug("processing trade",
				zap.Int("worker", id),
				zap.String("username", tradeReq.Request.Username),
				zap.String("action", tradeReq.Request.Action),
				zap.String("ticker", tradeReq.Request.Ticker),
				zap.Int64("quantity", tradeReq.Request.Quantity),
			)

			user, err := tp.trader.Trade(tradeReq.ctx, tradeReq.Request)
			tradeReq.ResultCh <- TradeResult{User: user, Err: err}
		}
	}
}

// drain answers every queued trade with ErrProcessorStopped. Nothing can be
// enqueued once stopCh is closed, so an empty queue stays empty.
func (tp *TradeProcessor) drain(id int) {
	for {
		select {
		case tradeReq := <-tp.tradeQueue:
			tradeReq.ResultCh <- TradeResult{Err: ErrProcessorStopped}
		default:
			tp.logger.Debug("worker stopping", zap.Int("worker", id))
			return
		}
	}
}

// SubmitTrade queues a trade and waits for its result
func (tp *TradeProcessor) SubmitTrade(ctx context.Context, req models.TradeRequest) (models.User, error) {
	// Buffered so a worker never blocks on a submitter that left
	resultCh := make(chan TradeResult, 1)

	if err := tp.enqueue(ctx, TradeRequest{ctx: ctx, Request: req, ResultCh: resultCh}); err != nil {
		return models.User{}, err
	}

	select {
	case result := <-resultCh:
		return result.User, result.Err
	case <-ctx.Done():
		return models.User{}, ctx.Err()
	}
}

// enqueue hands the trade to the workers unless the processor is stopped.
// Workers keep draining the queue until Stop holds stopMu, so a full queue
// never deadlocks Stop.
func (tp *TradeProcessor) enqueue(ctx context.Context, tradeReq TradeRequest) error {
	tp.stopMu.RLock()
	defer tp.stopMu.RUnlock()

	if tp.stopped {
		return ErrProcessorStopped
	}

	select {
	case tp.tradeQueue <- tradeReq:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
