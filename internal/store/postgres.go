package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// PostgresStore persists users, positions and trades in PostgreSQL.
// Save rewrites a user's row and all of its positions in one transaction.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.Error("failed to rollback transaction", zap.Error(err))
	}
}

func (s *PostgresStore) Load(ctx context.Context, username string) (models.User, error) {
	// Repeatable read so the user row and its positions come from one snapshot
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return models.User{}, fmt.Errorf("%w: begin: %w", ErrIO, err)
	}
	defer s.rollback(tx)

	var u models.User
	err = tx.QueryRowContext(ctx, `
        SELECT username, name, email, password_hash, balance, portfolio_value
        FROM users
        WHERE username = $1
    `, username).Scan(&u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.Balance, &u.PortfolioValue)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: load user: %w", ErrIO, err)
	}

	rows, err := tx.QueryContext(ctx, `
        SELECT ticker, quantity, investment, current_price
        FROM positions
        WHERE username = $1
        ORDER BY seq
    `, username)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: load positions: %w", ErrIO, err)
	}
	defer rows.Close()

	u.Positions = make([]models.Position, 0)
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Name, &p.Quantity, &p.Investment, &p.CurrentPrice); err != nil {
			return models.User{}, fmt.Errorf("%w: scan position: %w", ErrIO, err)
		}
		u.Positions = append(u.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return models.User{}, fmt.Errorf("%w: load positions: %w", ErrIO, err)
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, fmt.Errorf("%w: commit: %w", ErrIO, err)
	}
	return u, nil
}

func (s *PostgresStore) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)",
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: exists: %w", ErrIO, err)
	}
	return exists, nil
}

func (s *PostgresStore) Save(ctx context.Context, user models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrIO, err)
	}
	defer s.rollback(tx)

	// 1. Lock the user row
	var locked string
	err = tx.QueryRowContext(ctx,
		"SELECT username FROM users WHERE username = $1 FOR UPDATE",
		user.Username,
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: lock user: %w", ErrIO, err)
	}

	// 2. Overwrite user columns
	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET name = $1, email = $2, password_hash = $3, balance = $4, portfolio_value = $5, updated_at = NOW()
        WHERE username = $6
    `, user.Name, user.Email, user.PasswordHash, user.Balance, user.PortfolioValue, user.Username)
	if err != nil {
		return fmt.Errorf("%w: update user: %w", ErrIO, err)
	}

	// 3. Replace positions
	if _, err = tx.ExecContext(ctx, "DELETE FROM positions WHERE username = $1", user.Username); err != nil {
		return fmt.Errorf("%w: clear positions: %w", ErrIO, err)
	}
	if err := insertPositions(ctx, tx, user); err != nil {
		return err
	}

	// Commit transaction (all or nothing!)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrIO, err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, user models.User) error {
	if !ValidUsername(user.Username) {
		return ErrInvalidUsername
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrIO, err)
	}
	defer s.rollback(tx)

	_, err = tx.ExecContext(ctx, `
        INSERT INTO users (username, name, email, password_hash, balance, portfolio_value)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.Username, user.Name, user.Email, user.PasswordHash, user.Balance, user.PortfolioValue)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("%w: insert user: %w", ErrIO, err)
	}

	if err := insertPositions(ctx, tx, user); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrIO, err)
	}
	return nil
}

func insertPositions(ctx context.Context, tx *sql.Tx, user models.User) error {
	for i, p := range user.Positions {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO positions (username, ticker, seq, quantity, investment, current_price)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, user.Username, p.Name, i, p.Quantity, p.Investment, p.CurrentPrice)
		if err != nil {
			return fmt.Errorf("%w: insert position %s: %w", ErrIO, p.Name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, trade models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO trades (id, username, action, ticker, quantity, price, total, executed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, trade.ID, trade.Username, string(trade.Action), trade.Ticker, trade.Quantity, trade.Price, trade.Total, trade.ExecutedAt)
	if err != nil {
		return fmt.Errorf("%w: record trade: %w", ErrIO, err)
	}
	return nil
}

// History returns the most recent trades first
func (s *PostgresStore) History(ctx context.Context, username string, limit int) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, username, action, ticker, quantity, price, total, executed_at
        FROM trades
        WHERE username = $1
        ORDER BY executed_at DESC
        LIMIT $2
    `, username, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch trades: %w", ErrIO, err)
	}
	defer rows.Close()

	trades := make([]models.Trade, 0)
	for rows.Next() {
		var t models.Trade
		var action string
		if err := rows.Scan(&t.ID, &t.Username, &action, &t.Ticker, &t.Quantity, &t.Price, &t.Total, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("%w: scan trade: %w", ErrIO, err)
		}
		t.Action = models.Action(action)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: fetch trades: %w", ErrIO, err)
	}
	return trades, nil
}
