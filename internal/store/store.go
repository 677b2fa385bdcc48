package store

import (
	"context"
	"errors"
	"regexp"

	"github.com/atharvakonge/stock-portfolio/internal/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrIO            = errors.New("storage failure")

	ErrInvalidUsername = errors.New("invalid username")
)

// UserStore keeps one durable record per username. Records are read and
// written as a whole; there is no partial-field update.
type UserStore interface {
	Load(ctx context.Context, username string) (models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Save(ctx context.Context, user models.User) error
	Create(ctx context.Context, user models.User) error
}

// TradeJournal is the append-only history of executed trades
type TradeJournal interface {
	Record(ctx context.Context, trade models.Trade) error
	History(ctx context.Context, username string, limit int) ([]models.Trade, error)
}

// Store is what the server wires: records plus their trade history
type Store interface {
	UserStore
	TradeJournal
}

// DefaultHistoryLimit applies when callers pass a non-positive limit
const DefaultHistoryLimit = 50

var usernameRule = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidUsername reports whether username is safe to use as a record key
// (including as a file name).
func ValidUsername(username string) bool {
	return usernameRule.MatchString(username) && username != "." && username != ".."
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
