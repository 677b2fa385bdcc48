package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/atharvakonge/stock-portfolio/internal/db"
	"github.com/atharvakonge/stock-portfolio/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// storeFactories returns every Store implementation under test
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"postgres": func(t *testing.T) Store {
			database := db.SetupTestDB(t)
			db.CleanupTestDB(t, database)
			t.Cleanup(func() {
				db.CleanupTestDB(t, database)
				database.Close()
			})
			return NewPostgresStore(database, zap.NewNop())
		},
	}
}

func sampleUser(username string) models.User {
	u := models.NewUser("Sample", username, username+"@mail.com", "hash")
	u.Balance = d("9600")
	u.Positions = []models.Position{
		{Name: "CCC", Quantity: 6, Investment: d("400"), CurrentPrice: d("150")},
		{Name: "AAA", Quantity: 1, Investment: d("12.5"), CurrentPrice: d("13.25")},
	}
	u.PortfolioValue = u.Valuation()
	return u
}

func assertSameUser(t *testing.T, want, got models.User) {
	t.Helper()
	assert.Equal(t, want.Username, got.Username)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.PasswordHash, got.PasswordHash)
	assert.True(t, want.Balance.Equal(got.Balance), "balance %s != %s", want.Balance, got.Balance)
	assert.True(t, want.PortfolioValue.Equal(got.PortfolioValue), "portfolio value %s != %s", want.PortfolioValue, got.PortfolioValue)
	require.Len(t, got.Positions, len(want.Positions))
	for i := range want.Positions {
		assert.Equal(t, want.Positions[i].Name, got.Positions[i].Name)
		assert.Equal(t, want.Positions[i].Quantity, got.Positions[i].Quantity)
		assert.True(t, want.Positions[i].Investment.Equal(got.Positions[i].Investment))
		assert.True(t, want.Positions[i].CurrentPrice.Equal(got.Positions[i].CurrentPrice))
	}
}

func TestStore_Contract(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			_, err := s.Load(ctx, "nobody")
			assert.ErrorIs(t, err, ErrNotFound)

			ok, err := s.Exists(ctx, "nobody")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.ErrorIs(t, s.Save(ctx, sampleUser("nobody")), ErrNotFound)

			// create + load round trip keeps position order
			u := sampleUser("ann")
			require.NoError(t, s.Create(ctx, u))
			got, err := s.Load(ctx, "ann")
			require.NoError(t, err)
			assertSameUser(t, u, got)

			ok, err = s.Exists(ctx, "ann")
			require.NoError(t, err)
			assert.True(t, ok)

			// duplicate create leaves the record unchanged
			dup := models.NewUser("Other", "ann", "other@mail.com", "other")
			assert.ErrorIs(t, s.Create(ctx, dup), ErrAlreadyExists)
			got, err = s.Load(ctx, "ann")
			require.NoError(t, err)
			assertSameUser(t, u, got)

			// save replaces the whole record
			u.Balance = d("10000")
			u.Positions = []models.Position{{Name: "BBB", Quantity: 2, Investment: d("20"), CurrentPrice: d("11")}}
			u.PortfolioValue = u.Valuation()
			require.NoError(t, s.Save(ctx, u))
			got, err = s.Load(ctx, "ann")
			require.NoError(t, err)
			assertSameUser(t, u, got)

			// save with no positions clears them
			u.Positions = []models.Position{}
			u.PortfolioValue = decimal.Zero
			require.NoError(t, s.Save(ctx, u))
			got, err = s.Load(ctx, "ann")
			require.NoError(t, err)
			assert.Empty(t, got.Positions)
		})
	}
}

func TestStore_KeepsFullPrecision(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			// INR prices divided by the exchange rate carry many decimals
			u := models.NewUser("Precise", "eve", "eve@mail.com", "hash")
			u.Balance = d("9965.123456789012")
			u.Positions = []models.Position{
				{Name: "TCS.BO", Quantity: 3, Investment: d("34.876543210988"), CurrentPrice: d("11.62558139534883")},
			}
			u.PortfolioValue = u.Valuation()
			require.NoError(t, s.Create(ctx, u))

			got, err := s.Load(ctx, "eve")
			require.NoError(t, err)
			assertSameUser(t, u, got)

			tr := models.NewTrade("eve", models.ActionBuy, "TCS.BO", 3, d("11.62558139534883"))
			require.NoError(t, s.Record(ctx, tr))
			trades, err := s.History(ctx, "eve", 1)
			require.NoError(t, err)
			require.Len(t, trades, 1)
			assert.True(t, tr.Price.Equal(trades[0].Price), "Expected price %s, got %s", tr.Price, trades[0].Price)
			assert.True(t, tr.Total.Equal(trades[0].Total), "Expected total %s, got %s", tr.Total, trades[0].Total)
		})
	}
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			require.NoError(t, s.Create(ctx, sampleUser("bob")))

			got, err := s.Load(ctx, "bob")
			require.NoError(t, err)
			got.Positions[0].Quantity = 1000

			again, err := s.Load(ctx, "bob")
			require.NoError(t, err)
			assert.Equal(t, int64(6), again.Positions[0].Quantity)
		})
	}
}

func TestStore_Journal(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			require.NoError(t, s.Create(ctx, sampleUser("cat")))

			empty, err := s.History(ctx, "cat", 10)
			require.NoError(t, err)
			assert.Empty(t, empty)

			base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
			for i := 0; i < 3; i++ {
				tr := models.NewTrade("cat", models.ActionBuy, fmt.Sprintf("T%d", i), int64(i+1), d("10"))
				tr.ExecutedAt = base.Add(time.Duration(i) * time.Minute)
				require.NoError(t, s.Record(ctx, tr))
			}

			trades, err := s.History(ctx, "cat", 2)
			require.NoError(t, err)
			require.Len(t, trades, 2)
			assert.Equal(t, "T2", trades[0].Ticker)
			assert.Equal(t, "T1", trades[1].Ticker)
			assert.True(t, trades[0].Total.Equal(d("30")))
			assert.Equal(t, models.ActionBuy, trades[0].Action)

			all, err := s.History(ctx, "cat", 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestStore_InvalidUsername(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			err := s.Create(context.Background(), models.NewUser("x", "../etc/passwd", "x@mail.com", "h"))
			assert.ErrorIs(t, err, ErrInvalidUsername)
		})
	}
}

func TestStore_ConcurrentCreate(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			var wg sync.WaitGroup
			errs := make(chan error, 10)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- s.Create(context.Background(), sampleUser("dan"))
				}()
			}
			wg.Wait()
			close(errs)

			created := 0
			for err := range errs {
				if err == nil {
					created++
					continue
				}
				assert.ErrorIs(t, err, ErrAlreadyExists)
			}
			assert.Equal(t, 1, created)
		})
	}
}

func TestFileStore_CorruptRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "eve.json"), []byte("{not json"), 0o644))

	_, err = s.Load(context.Background(), "eve")
	assert.ErrorIs(t, err, ErrIO)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	u := sampleUser("fay")
	require.NoError(t, s.Create(ctx, u))
	require.NoError(t, s.Save(ctx, u))
	assert.ErrorIs(t, s.Create(ctx, u), ErrAlreadyExists)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("ann_01.x-y"))
	assert.False(t, ValidUsername(""))
	assert.False(t, ValidUsername(".."))
	assert.False(t, ValidUsername("a/b"))
	assert.False(t, ValidUsername("with space"))
}
