package store

import (
	"context"
	"sync"

	"github.com/atharvakonge/stock-portfolio/internal/models"
)

// MemoryStore is a process-local Store. Records are copied on the way in
// and out so callers never share position slices with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	trades map[string][]models.Trade
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]models.User),
		trades: make(map[string][]models.Trade),
	}
}

func (m *MemoryStore) Load(_ context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *MemoryStore) Exists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.users[username]
	return ok, nil
}

func (m *MemoryStore) Save(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; !ok {
		return ErrNotFound
	}
	m.users[user.Username] = user.Clone()
	return nil
}

func (m *MemoryStore) Create(_ context.Context, user models.User) error {
	if !ValidUsername(user.Username) {
		return ErrInvalidUsername
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return ErrAlreadyExists
	}
	m.users[user.Username] = user.Clone()
	return nil
}

func (m *MemoryStore) Record(_ context.Context, trade models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades[trade.Username] = append(m.trades[trade.Username], trade)
	return nil
}

// History returns the most recent trades first
func (m *MemoryStore) History(_ context.Context, username string, limit int) ([]models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return newestFirst(m.trades[username], historyLimit(limit)), nil
}

func newestFirst(trades []models.Trade, limit int) []models.Trade {
	out := make([]models.Trade, 0, min(limit, len(trades)))
	for i := len(trades) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, trades[i])
	}
	return out
}
