package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atharvakonge/stock-portfolio/internal/account"
	"github.com/atharvakonge/stock-portfolio/internal/config"
	"github.com/atharvakonge/stock-portfolio/internal/db"
	"github.com/atharvakonge/stock-portfolio/internal/events"
	"github.com/atharvakonge/stock-portfolio/internal/handlers"
	"github.com/atharvakonge/stock-portfolio/internal/logger"
	"github.com/atharvakonge/stock-portfolio/internal/quote"
	"github.com/atharvakonge/stock-portfolio/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// quoteCacheCost bounds the number of cached quotes (one unit each)
const quoteCacheCost = 10_000

func main() {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer lg.Sync() //nolint:errcheck

	if !foundEnv {
		lg.Info("no .env file found, using defaults or environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	st, closeStore, err := openStore(cfg, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	oracle, closeOracle, err := openOracle(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeOracle()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, lg)
		lg.Info("publishing trades to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer publisher.Close()

	svc := account.New(st, oracle, lg,
		account.WithJournal(st),
		account.WithPublisher(publisher),
	)

	// Initialize trade processor
	tradeProcessor := handlers.NewTradeProcessor(cfg.NumWorkers, svc, lg)
	tradeProcessor.Start()
	defer tradeProcessor.Stop()

	// Set Gin mode based on environment
	gin.SetMode(cfg.GinMode)

	server := handlers.NewServer(svc, tradeProcessor, oracle, lg, cfg.CORSOrigin, cfg.WSInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server starting", zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("store", cfg.StoreDriver), zap.String("quotes", cfg.Quote.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore builds the configured user store and trade journal
func openStore(cfg config.Config, lg *zap.Logger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return store.NewMemoryStore(), func() {}, nil

	case config.StoreFile:
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open data dir: %w", err)
		}
		return fs, func() {}, nil

	case config.StorePostgres:
		database, err := db.Open(cfg.DB.ConnString())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(database); err != nil {
			database.Close()
			return nil, nil, err
		}
		lg.Info("connected to database", zap.String("host", cfg.DB.Host), zap.String("name", cfg.DB.Name))
		return store.NewPostgresStore(database, lg), func() { database.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// openOracle builds source -> USD converter -> cache. The simulated market
// keeps ticking in the background until ctx is done.
func openOracle(ctx context.Context, cfg config.Config) (*quote.Cached, func(), error) {
	httpClient := &http.Client{Timeout: cfg.Quote.Timeout}

	var converted quote.Oracle
	switch cfg.Quote.Provider {
	case config.ProviderYahoo:
		converted = quote.NewConverter(quote.NewYahooSource(httpClient, ""), quote.YahooFXTicker)
	case config.ProviderEODHD:
		converted = quote.NewConverter(quote.NewEODHDSource(httpClient, "", cfg.Quote.EODHDKey), quote.EODHDFXTicker)
	case config.ProviderSim:
		sim := quote.NewSimSource(cfg.Quote.SimSeed, cfg.Quote.SimINRUSD)
		go sim.Run(ctx, cfg.WSInterval)
		converted = quote.NewConverter(sim, quote.SimFXTicker)
	default:
		return nil, nil, fmt.Errorf("unknown quote provider %q", cfg.Quote.Provider)
	}

	cached, err := quote.NewCached(converted, quoteCacheCost, cfg.Quote.CacheTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create quote cache: %w", err)
	}
	return cached, cached.Close, nil
}
