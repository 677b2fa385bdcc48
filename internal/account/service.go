package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/atharvakonge/stock-portfolio/internal/engine"
	"github.com/atharvakonge/stock-portfolio/internal/events"
	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/atharvakonge/stock-portfolio/internal/quote"
	"github.com/atharvakonge/stock-portfolio/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrTickerUnavailable = errors.New("ticker unavailable")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrMissingField      = errors.New("missing required field")
)

// Service orchestrates the store, the engine and the price oracle. Every
// operation runs to completion; trades on one username are serialized.
type Service struct {
	users     store.UserStore
	journal   store.TradeJournal
	oracle    engine.PriceOracle
	publisher events.Publisher
	locks     *models.UserLocks
	logger    *zap.Logger
	hashCost  int
}

type Option func(*Service)

// WithJournal records every executed trade
func WithJournal(j store.TradeJournal) Option {
	return func(s *Service) { s.journal = j }
}

// WithPublisher announces every executed trade
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func New(users store.UserStore, oracle engine.PriceOracle, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		users:     users,
		oracle:    oracle,
		publisher: events.Nop{},
		locks:     models.NewUserLocks(),
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate checks credentials and returns the user with fresh prices.
// Nothing is persisted.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.verify(ctx, username, password)
	if err != nil {
		return models.User{}, err
	}

	user, err = engine.Revalue(ctx, user, s.oracle)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Register creates a new account with the starting balance
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" || req.Password == "" {
		return ErrMissingField
	}
	if !store.ValidUsername(req.Username) {
		return ErrInvalidUsername
	}
	if !models.ValidEmail(req.Email) {
		return ErrInvalidEmail
	}

	exists, err := s.users.Exists(ctx, req.Username)
	if err != nil {
		return err
	}
	if exists {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := models.NewUser(req.Name, req.Username, req.Email, string(hash))
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrUsernameTaken
		}
		if errors.Is(err, store.ErrInvalidUsername) {
			return ErrInvalidUsername
		}
		return err
	}

	s.logger.Info("user registered", zap.String("username", req.Username))
	return nil
}

// Trade prices the ticker, then applies and persists the trade while holding
// the account lock. On any failure nothing is persisted.
func (s *Service) Trade(ctx context.Context, req models.TradeRequest) (models.User, error) {
	action, ok := models.ParseAction(req.Action)
	if !ok {
		return models.User{}, fmt.Errorf("%w: %q", engine.ErrUnknownAction, req.Action)
	}
	if req.Quantity <= 0 {
		return models.User{}, engine.ErrInvalidQuantity
	}

	ticker := quote.NormalizeTicker(req.Ticker)
	price, err := s.price(ctx, ticker)
	if err != nil {
		return models.User{}, err
	}

	var updated models.User
	err = s.locks.WithLock(req.Username, func() error {
		user, err := s.verify(ctx, req.Username, req.Password)
		if err != nil {
			return err
		}

		updated, err = engine.Apply(ctx, user, action, ticker, req.Quantity, price, s.oracle)
		if err != nil {
			return err
		}

		return s.users.Save(ctx, updated)
	})
	if err != nil {
		return models.User{}, err
	}

	trade := models.NewTrade(req.Username, action, ticker, req.Quantity, price)
	s.logger.Info("trade executed",
		zap.String("trade_id", trade.ID.String()),
		zap.String("username", trade.Username),
		zap.String("action", string(trade.Action)),
		zap.String("ticker", trade.Ticker),
		zap.Int64("quantity", trade.Quantity),
		zap.String("price", trade.Price.String()),
	)
	s.afterTrade(ctx, trade)

	return updated, nil
}

// afterTrade records and publishes an executed trade. Failures are logged
// only: the trade is already persisted.
func (s *Service) afterTrade(ctx context.Context, trade models.Trade) {
	if s.journal != nil {
		if err := s.journal.Record(ctx, trade); err != nil {
			s.logger.Warn("failed to record trade", zap.String("trade_id", trade.ID.String()), zap.Error(err))
		}
	}
	if err := s.publisher.Publish(ctx, trade); err != nil {
		s.logger.Warn("failed to publish trade", zap.String("trade_id", trade.ID.String()), zap.Error(err))
	}
}

// History returns the user's most recent trades, newest first
func (s *Service) History(ctx context.Context, username, password string, limit int) ([]models.Trade, error) {
	if _, err := s.verify(ctx, username, password); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []models.Trade{}, nil
	}
	return s.journal.History(ctx, username, limit)
}

// Quote returns the ticker's price in USD
func (s *Service) Quote(ctx context.Context, ticker string) (models.QuoteResponse, error) {
	ticker = quote.NormalizeTicker(ticker)
	price, err := s.price(ctx, ticker)
	if err != nil {
		return models.QuoteResponse{}, err
	}
	return models.QuoteResponse{Ticker: ticker, Price: price}, nil
}

func (s *Service) price(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if ticker == "" {
		return decimal.Zero, fmt.Errorf("%w: empty ticker", ErrTickerUnavailable)
	}
	price, err := s.oracle.Price(ctx, ticker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrTickerUnavailable, ticker, err)
	}
	return price, nil
}

// verify loads the user and checks the password
func (s *Service) verify(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.users.Load(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return models.User{}, ErrWrongPassword
	}
	return user, nil
}

// checkPassword accepts bcrypt hashes and, for records imported from the
// legacy JSON files, plaintext passwords.
func checkPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}
