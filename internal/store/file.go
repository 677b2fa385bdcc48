package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/shopspring/decimal"
)

// FileStore keeps every user in <dir>/<username>.json and their trades in
// <dir>/<username>.trades.jsonl. Records are replaced by writing a temp
// file and renaming it over the old one.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// userFile is the on-disk shape of a user record
type userFile struct {
	Name           string          `json:"name"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	Password       string          `json:"password"`
	Balance        decimal.Decimal `json:"balance"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	Portfolio      []positionFile  `json:"portfolio"`
}

type positionFile struct {
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	Investment decimal.Decimal `json:"investment"`
	CurPrice   decimal.Decimal `json:"cur_price"`
}

func newUserFile(u models.User) userFile {
	f := userFile{
		Name:           u.Name,
		Username:       u.Username,
		Email:          u.Email,
		Password:       u.PasswordHash,
		Balance:        u.Balance,
		PortfolioValue: u.PortfolioValue,
		Portfolio:      make([]positionFile, 0, len(u.Positions)),
	}
	for _, p := range u.Positions {
		f.Portfolio = append(f.Portfolio, positionFile{
			Name:       p.Name,
			Quantity:   p.Quantity,
			Investment: p.Investment,
			CurPrice:   p.CurrentPrice,
		})
	}
	return f
}

func (f userFile) CreateDomain() models.User {
	u := models.User{
		Name:           f.Name,
		Username:       f.Username,
		Email:          f.Email,
		PasswordHash:   f.Password,
		Balance:        f.Balance,
		PortfolioValue: f.PortfolioValue,
		Positions:      make([]models.Position, 0, len(f.Portfolio)),
	}
	for _, p := range f.Portfolio {
		u.Positions = append(u.Positions, models.Position{
			Name:         p.Name,
			Quantity:     p.Quantity,
			Investment:   p.Investment,
			CurrentPrice: p.CurPrice,
		})
	}
	return u
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", ErrIO, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) userPath(username string) string {
	return filepath.Join(s.dir, username+".json")
}

func (s *FileStore) tradesPath(username string) string {
	return filepath.Join(s.dir, username+".trades.jsonl")
}

func (s *FileStore) Load(_ context.Context, username string) (models.User, error) {
	if !ValidUsername(username) {
		return models.User{}, ErrNotFound
	}

	content, err := os.ReadFile(s.userPath(username))
	if errors.Is(err, fs.ErrNotExist) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: read %s: %w", ErrIO, username, err)
	}

	var f userFile
	if err := json.Unmarshal(content, &f); err != nil {
		return models.User{}, fmt.Errorf("%w: corrupt record %s: %w", ErrIO, username, err)
	}
	return f.CreateDomain(), nil
}

func (s *FileStore) Exists(_ context.Context, username string) (bool, error) {
	if !ValidUsername(username) {
		return false, nil
	}

	_, err := os.Stat(s.userPath(username))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", ErrIO, username, err)
	}
	return true, nil
}

func (s *FileStore) Save(_ context.Context, user models.User) error {
	if !ValidUsername(user.Username) {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.userPath(user.Username)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: stat %s: %w", ErrIO, user.Username, err)
	}

	tmp, err := s.writeTemp(user)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %w", ErrIO, user.Username, err)
	}
	return nil
}

func (s *FileStore) Create(_ context.Context, user models.User) error {
	if !ValidUsername(user.Username) {
		return ErrInvalidUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.writeTemp(user)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	// Link fails when the target exists, so creation is all-or-nothing
	if err := os.Link(tmp, s.userPath(user.Username)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("%w: create %s: %w", ErrIO, user.Username, err)
	}
	return nil
}

func (s *FileStore) writeTemp(user models.User) (string, error) {
	content, err := json.Marshal(newUserFile(user))
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", ErrIO, user.Username, err)
	}

	f, err := os.CreateTemp(s.dir, user.Username+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: temp file: %w", ErrIO, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write %s: %w", ErrIO, user.Username, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: sync %s: %w", ErrIO, user.Username, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: close %s: %w", ErrIO, user.Username, err)
	}
	return f.Name(), nil
}

func (s *FileStore) Record(_ context.Context, trade models.Trade) error {
	if !ValidUsername(trade.Username) {
		return ErrInvalidUsername
	}

	line, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("%w: encode trade: %w", ErrIO, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.tradesPath(trade.Username), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open journal: %w", ErrIO, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("%w: append journal: %w", ErrIO, err)
	}
	return nil
}

// History returns the most recent trades first
func (s *FileStore) History(_ context.Context, username string, limit int) ([]models.Trade, error) {
	if !ValidUsername(username) {
		return []models.Trade{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.tradesPath(username))
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Trade{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open journal: %w", ErrIO, err)
	}
	defer f.Close()

	var trades []models.Trade
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var t models.Trade
		if err := json.Unmarshal(scanner.Bytes(), &t); err != nil {
			return nil, fmt.Errorf("%w: corrupt journal %s: %w", ErrIO, username, err)
		}
		trades = append(trades, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read journal: %w", ErrIO, err)
	}

	return newestFirst(trades, historyLimit(limit)), nil
}
